// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs go to stderr by default; stdout carries tunneled response bodies
// in the CLI.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	wsLog := logger.Component("bare.ws")
//	wsLog.Debug("handshake sent", zap.String("remote", remote.String()))
package logging

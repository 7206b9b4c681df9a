// Package content decodes and labels remote bodies.
//
// The tunnel passes remote bodies through untouched, so a body may still
// carry the remote Content-Encoding. Decode undoes it; DetectType sniffs a
// media type when the remote did not send one.
package content

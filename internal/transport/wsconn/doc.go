// Package wsconn adapts gorilla/websocket to the small surface the tunnel
// socket needs: read a frame, write a frame verbatim, send a close frame.
//
// Writes are serialized. Close errors from the peer are translated to
// *CloseError so callers never import gorilla directly.
package wsconn

// Package bare defines the client side of the Bare tunneling protocol.
//
// A Bare server performs outbound HTTP requests and WebSocket connections on
// behalf of a client that cannot reach the remote origin directly. This
// package holds the types shared by every protocol version:
//   - Transport: the capability interface {Init, Request, Connect}
//   - Request / Response: a logical HTTP exchange with the remote origin
//   - Fault: the tunnel itself rejected the request
//   - ConnectOptions / SocketHandlers / Message: a tunneled WebSocket
//
// Protocol versions live in sub-packages (v3). Header chunking lives in
// the header sub-package.
//
// Example Usage:
//
//	client, err := v3.New(serverURL, v3.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	if err := client.Init(ctx); err != nil {
//		return err
//	}
//	resp, err := client.Request(ctx, &bare.Request{Remote: remote, Method: "GET"})
package bare

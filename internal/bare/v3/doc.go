// Package v3 implements version 3 of the Bare tunneling protocol.
//
// A Client tunnels HTTP requests through the server's HTTP endpoint and
// WebSocket connections through the matching ws/wss endpoint. Both
// endpoints are derived once, from the server address given to New.
//
//	client, err := v3.New("https://proxy.example/bare/v3/")
//	if err != nil { ... }
//	if err := client.Init(ctx); err != nil { ... }
//	resp, err := client.Request(ctx, &bare.Request{Remote: remote})
//
// A non-2xx answer from the tunnel itself is returned as *bare.Fault and
// never as a response. Anything the remote origin answered, including
// 4xx and 5xx, is returned as a *bare.Response.
package v3

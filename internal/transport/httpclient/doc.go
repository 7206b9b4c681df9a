// Package httpclient is the physical HTTP transport for tunnel requests.
//
// Built on go-resty/resty with a pooled transport from
// hashicorp/go-retryablehttp:
//   - No retries: a failed exchange is reported once
//   - No transparent decompression: response bodies are the tunnel's bytes
//   - No cookie jar and no redirects: the tunnel's own response is returned
//   - Streamed request bodies, unparsed response bodies
//   - Token-bucket rate limiting (golang.org/x/time/rate)
//   - Optional circuit breaker counting transport failures and gateway
//     statuses (502, 503, 504); tunnel faults are answers
//
// Example Usage:
//
//	client := httpclient.NewClient(httpclient.Options{UserAgent: "bareclient/3"})
//	req, err := client.Request(ctx)
//	resp, err := client.Execute(func() (*resty.Response, error) {
//		return req.SetDoNotParseResponse(true).Execute("GET", endpoint)
//	})
package httpclient

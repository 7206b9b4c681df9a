package v3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/bareclient/internal/bare"
	"github.com/GriffinCanCode/bareclient/internal/bare/header"
	"github.com/GriffinCanCode/bareclient/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/bareclient/internal/shared/id"
	"github.com/GriffinCanCode/bareclient/internal/shared/utils"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// Tunnel header names.
const (
	headerURL            = "x-bare-url"
	headerHeaders        = "x-bare-headers"
	headerForwardHeaders = "x-bare-forward-headers"
	headerPassHeaders    = "x-bare-pass-headers"
	headerPassStatus     = "x-bare-pass-status"
	headerStatus         = "x-bare-status"
	headerStatusText     = "x-bare-status-text"
)

// maxFaultBody caps how much of a fault body is read.
const maxFaultBody = 64 << 10

// Request sends req through the tunnel. A tunnel rejection is returned as
// *bare.Fault. On success the caller owns resp.Body.
func (c *Client) Request(ctx context.Context, req *bare.Request) (*bare.Response, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if req == nil || !validRemote(req.Remote) {
		return nil, bare.ErrInvalidRemote
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	rid := id.NewRequestID()
	start := time.Now()
	resp, outcome, err := c.roundTrip(ctx, method, req)
	c.metrics.RecordRequest(method, outcome, time.Since(start))
	if err != nil {
		c.logger.Debug("tunnel request failed",
			zap.String("request", rid.String()),
			zap.String("method", method),
			zap.String("remote", req.Remote.String()),
			zap.String("outcome", outcome),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("tunnel request",
		zap.String("request", rid.String()),
		zap.String("method", method),
		zap.String("remote", req.Remote.String()),
		zap.Int("status", resp.Status),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method string, req *bare.Request) (*bare.Response, string, error) {
	logical, err := encodeRequestHeaders(req)
	if err != nil {
		return nil, monitoring.OutcomeProtocol, err
	}
	physical, err := header.Split(logical)
	if err != nil {
		return nil, monitoring.OutcomeProtocol, err
	}
	if len(physical) > len(logical) {
		c.metrics.IncChunked()
	}

	r, err := c.http.Request(ctx)
	if err != nil {
		return nil, outcomeOf(err), fmt.Errorf("bare: %w", err)
	}
	r.SetDoNotParseResponse(true).
		SetQueryParam("cache", utils.Fingerprint(req.Remote.String()))
	for _, f := range physical {
		r.Header.Add(f.Name, f.Value)
	}
	if req.Body != nil {
		// The logical Content-Type travels in x-bare-headers.
		r.SetHeader("Content-Type", "application/octet-stream").
			SetBody(req.Body)
	}

	endpoint := c.endpoints.HTTP.String()
	res, err := c.http.Execute(func() (*resty.Response, error) {
		return r.Execute(method, endpoint)
	})
	if err != nil {
		if res != nil && res.RawBody() != nil {
			res.RawBody().Close()
		}
		return nil, outcomeOf(err), fmt.Errorf("bare: %s %s: %w", method, req.Remote, err)
	}

	body := res.RawBody()
	if body == nil {
		body = http.NoBody
	}

	status := res.StatusCode()
	if status < 200 || status > 299 {
		defer body.Close()
		fault := readFault(status, body)
		c.metrics.RecordFault(status)
		return nil, monitoring.OutcomeFault, fault
	}

	resp, err := decodeResponse(header.FromHTTP(res.Header()))
	if err != nil {
		body.Close()
		return nil, monitoring.OutcomeProtocol, err
	}
	resp.Body = body
	return resp, monitoring.OutcomeOK, nil
}

// encodeRequestHeaders builds the logical tunnel headers, before chunking.
func encodeRequestHeaders(req *bare.Request) (header.Header, error) {
	logical := req.Headers.Clone()
	logical.Set("Host", req.Remote.Host)

	encoded, err := sonic.Marshal(groupHeaders(logical))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", headerHeaders, err)
	}

	out := header.Header{
		{Name: headerURL, Value: req.Remote.String()},
		{Name: headerHeaders, Value: string(encoded)},
	}
	for _, name := range req.ForwardHeaders {
		out.Add(headerForwardHeaders, strings.ToLower(name))
	}
	for _, name := range req.PassHeaders {
		out.Add(headerPassHeaders, strings.ToLower(name))
	}
	for _, status := range req.PassStatus {
		out.Add(headerPassStatus, strconv.Itoa(status))
	}
	return out, nil
}

// groupHeaders keys fields by first spelling; repeated names become arrays.
func groupHeaders(h header.Header) *orderedmap.OrderedMap[string, any] {
	out := orderedmap.New[string, any]()
	keys := make(map[string]string, len(h))
	for _, f := range h {
		lower := strings.ToLower(f.Name)
		key, seen := keys[lower]
		if !seen {
			keys[lower] = f.Name
			out.Set(f.Name, f.Value)
			continue
		}
		prev, _ := out.Get(key)
		switch prev := prev.(type) {
		case string:
			out.Set(key, []string{prev, f.Value})
		case []string:
			out.Set(key, append(prev, f.Value))
		}
	}
	return out
}

// decodeResponse reads the remote status and headers from joined tunnel headers.
func decodeResponse(physical header.Header) (*bare.Response, error) {
	joined, err := header.Join(physical)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bare.ErrProtocol, err)
	}

	resp := &bare.Response{Headers: header.Header{}}
	if v, ok := joined.Get(headerStatus); ok {
		status, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || status < 100 || status > 999 {
			return nil, fmt.Errorf("%w: %s %q", bare.ErrProtocol, headerStatus, v)
		}
		resp.Status = status
	}
	if v, ok := joined.Get(headerStatusText); ok {
		resp.StatusText = v
		resp.HasStatusText = true
	}
	if v, ok := joined.Get(headerHeaders); ok {
		h, err := decodeHeaders([]byte(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", bare.ErrProtocol, headerHeaders, err)
		}
		resp.Headers = h
	}
	return resp, nil
}

// decodeHeaders accepts a JSON object of string or string-array values, or
// a JSON array of [name, value] entries. Order is kept either way.
func decodeHeaders(data []byte) (header.Header, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty value")
	}

	if data[0] == '[' {
		var entries [][]string
		if err := sonic.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
		out := make(header.Header, 0, len(entries))
		for i, e := range entries {
			if len(e) != 2 {
				return nil, fmt.Errorf("entry %d has %d elements", i, len(e))
			}
			out.Add(e[0], e[1])
		}
		return out, nil
	}

	om := orderedmap.New[string, any]()
	if err := sonic.Unmarshal(data, om); err != nil {
		return nil, err
	}
	out := make(header.Header, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		switch v := pair.Value.(type) {
		case string:
			out.Add(pair.Key, v)
		case []any:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("header %q: non-string value", pair.Key)
				}
				out.Add(pair.Key, s)
			}
		default:
			return nil, fmt.Errorf("header %q: unsupported value %T", pair.Key, v)
		}
	}
	return out, nil
}

// readFault decodes a tunnel error body. Non-JSON bodies are kept as text.
func readFault(status int, body io.Reader) *bare.Fault {
	data, err := io.ReadAll(io.LimitReader(body, maxFaultBody))
	if err != nil && len(data) == 0 {
		return &bare.Fault{Status: status, Body: err.Error()}
	}

	var decoded any
	if err := sonic.Unmarshal(data, &decoded); err != nil {
		return &bare.Fault{Status: status, Body: string(data)}
	}
	return &bare.Fault{Status: status, Body: decoded}
}

func outcomeOf(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return monitoring.OutcomeCanceled
	}
	return monitoring.OutcomeTransport
}

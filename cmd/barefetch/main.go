package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/GriffinCanCode/bareclient/internal/bare"
	"github.com/GriffinCanCode/bareclient/internal/bare/header"
	v3 "github.com/GriffinCanCode/bareclient/internal/bare/v3"
	"github.com/GriffinCanCode/bareclient/internal/config"
	"github.com/GriffinCanCode/bareclient/internal/content"
	"github.com/GriffinCanCode/bareclient/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/bareclient/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/bareclient/internal/infrastructure/server"
	"github.com/GriffinCanCode/bareclient/internal/logging"
	"github.com/GriffinCanCode/bareclient/internal/transport/httpclient"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	exitOK    = 0
	exitError = 1
	exitFault = 2
)

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ", ") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("barefetch", flag.ContinueOnError)
	serverAddr := fs.String("server", "", "Bare v3 server address (overrides BARE_SERVER)")
	method := fs.String("method", http.MethodGet, "Request method")
	data := fs.String("d", "", "Request body, or @file to stream a file")
	configPath := fs.String("config", "", "YAML or TOML file of environment settings")
	decode := fs.Bool("decode", true, "Undo the remote Content-Encoding before writing the body")
	ws := fs.Bool("ws", false, "Open a WebSocket instead of fetching")
	metricsAddr := fs.String("metrics", "", "Serve Prometheus metrics on this address (overrides METRICS_ADDR)")
	dev := fs.Bool("dev", false, "Development logging")
	var headers, protocols multiFlag
	fs.Var(&headers, "H", "Request header 'Name: value' (repeatable)")
	fs.Var(&protocols, "protocol", "WebSocket subprotocol (repeatable)")
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: barefetch [flags] <url>")
		return exitError
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitError
	}
	if *serverAddr != "" {
		cfg.Bare.Server = *serverAddr
	}
	if *metricsAddr != "" {
		cfg.Metrics.Address = *metricsAddr
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return exitError
	}
	defer logger.Sync()

	remote, err := url.Parse(fs.Arg(0))
	if err != nil {
		logger.Error("invalid url", zap.Error(err))
		return exitError
	}
	h, err := parseHeaders(headers)
	if err != nil {
		logger.Error("invalid header", zap.Error(err))
		return exitError
	}

	metrics := monitoring.NewMetrics(nil)
	httpClient := newHTTPClient(cfg, logger)
	client, err := v3.New(cfg.Bare.Server,
		v3.WithLogger(logger.Component("bare")),
		v3.WithMetrics(metrics),
		v3.WithHTTPClient(httpClient),
		v3.WithCloseTimeout(cfg.Bare.CloseTimeout),
	)
	if err != nil {
		logger.Error("failed to create client", zap.Error(err))
		return exitError
	}

	if cfg.Metrics.Address != "" {
		diag := server.New(server.Config{
			Address:     cfg.Metrics.Address,
			Development: cfg.Logging.Development,
		}, metrics, logger.Component("diagnostics"), func() gin.H {
			return gin.H{"breaker": httpClient.BreakerState().String()}
		})
		if _, err := diag.Start(); err != nil {
			logger.Error("failed to start diagnostics server", zap.Error(err))
			return exitError
		}
		defer diag.Close(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Init(ctx); err != nil {
		logger.Error("init failed", zap.Error(err))
		return exitError
	}

	if *ws {
		return runSocket(ctx, client, logger, remote, protocols, h, stdin, stdout)
	}

	body, closeBody, err := openBody(*data, &h)
	if err != nil {
		logger.Error("invalid body", zap.Error(err))
		return exitError
	}
	defer closeBody()

	return runFetch(ctx, client, logger, &bare.Request{
		Remote:  remote,
		Method:  strings.ToUpper(*method),
		Headers: h,
		Body:    body,
	}, *decode, stdout)
}

// openBody resolves -d. A body without a Content-Type header gets a sniffed one.
func openBody(data string, h *header.Header) (io.Reader, func(), error) {
	if data == "" {
		return nil, func() {}, nil
	}

	var r io.Reader = strings.NewReader(data)
	closeBody := func() {}
	if path, ok := strings.CutPrefix(data, "@"); ok {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		r = f
		closeBody = func() { f.Close() }
	}

	if _, ok := h.Get("Content-Type"); ok {
		return r, closeBody, nil
	}
	mediaType, sniffed, err := content.Sniff(r)
	if err != nil {
		closeBody()
		return nil, nil, err
	}
	h.Add("Content-Type", mediaType)
	return sniffed, closeBody, nil
}

func newHTTPClient(cfg *config.Config, logger *logging.Logger) *httpclient.Client {
	opts := httpclient.Options{
		UserAgent: cfg.Bare.UserAgent,
		Timeout:   cfg.Bare.RequestTimeout,
		RateLimit: cfg.Bare.RateLimitRPS,
	}
	if cfg.Breaker.Enabled {
		breakerLog := logger.Component("breaker")
		opts.Breaker = &httpclient.BreakerOptions{
			Failures: cfg.Breaker.Failures,
			Cooldown: cfg.Breaker.Cooldown,
			OnStateChange: func(name string, from, to resilience.State) {
				breakerLog.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}
	}

	return httpclient.NewClient(opts)
}

func runFetch(ctx context.Context, client *v3.Client, logger *logging.Logger, req *bare.Request, decode bool, stdout io.Writer) int {
	resp, err := client.Request(ctx, req)
	if err != nil {
		var fault *bare.Fault
		if errors.As(err, &fault) {
			logger.Error("tunnel rejected request",
				zap.Int("status", fault.Status),
				zap.String("code", fault.Code()),
				zap.Any("body", fault.Body))
			return exitFault
		}
		logger.Error("request failed", zap.Error(err))
		return exitError
	}
	defer resp.Body.Close()

	logger.Info("remote response",
		zap.Int("status", resp.Status),
		zap.String("status_text", resp.StatusText),
		zap.Int("headers", len(resp.Headers)))
	for _, f := range resp.Headers {
		logger.Debug("remote header", zap.String("name", f.Name), zap.String("value", f.Value))
	}

	var body io.ReadCloser = resp.Body
	if encoding, ok := resp.Headers.Get("Content-Encoding"); ok && decode {
		decoded, err := content.Decode(encoding, resp.Body)
		if err != nil {
			logger.Error("cannot decode body", zap.String("encoding", encoding), zap.Error(err))
			return exitError
		}
		defer decoded.Close()
		body = decoded
	}

	if _, err := io.Copy(stdout, body); err != nil {
		logger.Error("reading body failed", zap.Error(err))
		return exitError
	}
	return exitOK
}

func runSocket(ctx context.Context, client *v3.Client, logger *logging.Logger, remote *url.URL,
	protocols []string, h header.Header, stdin io.Reader, stdout io.Writer) int {
	opened := make(chan struct{})
	failed := make(chan struct{}, 1)

	sock, err := client.Open(ctx, bare.ConnectOptions{
		Remote:    remote,
		Protocols: protocols,
		Headers:   h,
	}, bare.SocketHandlers{
		OnOpen: func(protocol, extensions string) {
			logger.Info("socket open", zap.String("protocol", protocol))
			close(opened)
		},
		OnMessage: func(msg bare.Message) {
			if msg.Type == bare.TextMessage {
				fmt.Fprintln(stdout, string(msg.Data))
				return
			}
			fmt.Fprintf(stdout, "<binary %d bytes>\n", len(msg.Data))
		},
		OnSetCookies: func(cookies []string) {
			logger.Debug("set cookies", zap.Strings("cookies", cookies))
		},
		OnError: func(err error) {
			logger.Error("socket error", zap.Error(err))
			select {
			case failed <- struct{}{}:
			default:
			}
		},
		OnClose: func(code int, reason string) {
			logger.Info("socket closed", zap.Int("code", code), zap.String("reason", reason))
		},
	})
	if err != nil {
		logger.Error("connect failed", zap.Error(err))
		return exitError
	}

	select {
	case <-opened:
	case <-sock.Done():
		return exitError
	case <-ctx.Done():
		_ = sock.Close(0, "")
		<-sock.Done()
		return exitOK
	}

	go func() {
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			if err := sock.Send(bare.Message{Type: bare.TextMessage, Data: []byte(scanner.Text())}); err != nil {
				logger.Debug("send stopped", zap.Error(err))
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		_ = sock.Close(0, "")
		<-sock.Done()
	case <-sock.Done():
	}

	select {
	case <-failed:
		return exitError
	default:
		return exitOK
	}
}

// parseHeaders reads "Name: value" pairs in order.
func parseHeaders(raw []string) (header.Header, error) {
	var h header.Header
	for _, line := range raw {
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected 'Name: value', got %q", line)
		}
		h.Add(name, strings.TrimSpace(value))
	}
	return h, nil
}

// Package webhook compiles webhook action configurations into HTTP calls
// and normalizes the responses.
package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every outbound webhook call.
const DefaultTimeout = 30 * time.Second

// Request is a compiled webhook call, ready to send.
type Request struct {
	Method  Method
	URL     string
	Headers *Mapping
	Body    *Body
}

// Compiler turns webhook configurations into HTTP calls and normalizes the
// responses. It is safe for concurrent use; every call builds its own headers
// and payload.
type Compiler struct {
	client *resty.Client
	log    *zap.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Compiler) {
		if d > 0 {
			c.client.SetTimeout(d)
		}
	}
}

// WithTransport sets the round tripper used for outbound calls.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Compiler) {
		c.client.SetTransport(rt)
	}
}

// WithUserAgent sets the User-Agent sent when the configuration does not declare one.
func WithUserAgent(ua string) Option {
	return func(c *Compiler) {
		if ua != "" {
			c.client.SetHeader("User-Agent", ua)
		}
	}
}

// NewCompiler creates a Compiler. Failed calls are never retried.
func NewCompiler(log *zap.Logger, opts ...Option) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("webhook")

	client := resty.New().
		SetTimeout(DefaultTimeout).
		SetRetryCount(0).
		SetLogger(log.Sugar())

	c := &Compiler{client: client, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the request for cfg without sending it.
func (c *Compiler) Compile(cfg *Config) (*Request, error) {
	switch cfg.Method {
	case MethodGet:
		url := cfg.URL()
		if url == "" {
			return nil, ErrMissingURL
		}
		return &Request{
			Method:  MethodGet,
			URL:     url + EncodeQuery(cfg.Data()),
			Headers: buildHeaders("", cfg.Headers()),
		}, nil

	case MethodPost, MethodPut:
		url := cfg.URL()
		if url == "" {
			return nil, ErrMissingURL
		}
		payloadType := cfg.PayloadType()
		body, err := EncodeBody(cfg.Data(), payloadType)
		if err != nil {
			return nil, err
		}
		return &Request{
			Method:  cfg.Method,
			URL:     url,
			Headers: buildHeaders(payloadType.ContentType(), cfg.Headers()),
			Body:    body,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, string(cfg.Method))
	}
}

// buildHeaders starts from a fresh map holding the default Content-Type (if
// any) and lays the declared headers over it.
func buildHeaders(contentType string, declared *Mapping) *Mapping {
	headers := NewMapping()
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}
	if declared != nil {
		for p := declared.Oldest(); p != nil; p = p.Next() {
			headers.Set(p.Key, p.Value)
		}
	}
	return headers
}

// Send compiles cfg, performs the call and normalizes the response.
func (c *Compiler) Send(ctx context.Context, cfg *Config) (*Result, error) {
	req, err := c.Compile(cfg)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Do performs a compiled request.
func (c *Compiler) Do(ctx context.Context, req *Request) (*Result, error) {
	r := c.client.R().SetContext(ctx)
	for p := req.Headers.Oldest(); p != nil; p = p.Next() {
		r.SetHeader(p.Key, text(p.Value))
	}

	if req.Body != nil {
		if req.Body.Form != nil {
			data, contentType, err := encodeMultipart(req.Body.Form)
			if err != nil {
				return nil, err
			}
			if r.Header.Get("Content-Type") == ContentTypeForm {
				r.SetHeader("Content-Type", contentType)
			}
			r.SetBody(data)
		} else {
			r.SetBody(req.Body.Bytes)
		}
	}

	start := time.Now()
	resp, err := r.Execute(string(req.Method), req.URL)
	if err != nil {
		return nil, fmt.Errorf("send webhook: %w", err)
	}

	c.log.Debug("webhook call completed",
		zap.String("method", string(req.Method)),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", time.Since(start)),
	)

	return Normalize(c.log, resp.StatusCode(), resp.Body())
}

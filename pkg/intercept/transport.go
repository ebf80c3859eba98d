// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package intercept

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/mcpany/trpcstub/pkg/logging"
)

// Transport is an http.RoundTripper that applies interception rules to the
// requests of a Go HTTP client. Unmatched requests go to Base.
type Transport struct {
	// Base performs real requests. http.DefaultTransport is used when nil.
	Base http.RoundTripper

	rec   *Recorder
	mu    sync.RWMutex
	rules []Rule
}

var _ Network = (*Transport)(nil)

// NewTransport returns a Transport without rules.
func NewTransport(base http.RoundTripper) *Transport {
	return &Transport{Base: base, rec: NewRecorder()}
}

// Client returns an HTTP client using the transport.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// Route implements Network.
func (t *Transport) Route(rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	t.rules = append(t.rules, rule)
	t.mu.Unlock()
	t.rec.Declare(rule.Alias)
	logging.GetLogger().Debug("interception rule registered", "alias", rule.Alias, "pattern", rule.Pattern.String())
	return nil
}

// Wait implements Network.
func (t *Transport) Wait(ctx context.Context, alias string) (*Exchange, error) {
	return t.rec.Wait(ctx, alias)
}

// Recorder returns the recorder holding the exchanges of the transport.
func (t *Transport) Recorder() *Recorder {
	return t.rec
}

// Reset removes every rule and recorded exchange.
func (t *Transport) Reset() {
	t.mu.Lock()
	t.rules = nil
	t.mu.Unlock()
	t.rec.Reset()
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	rule, ok := t.match(req)
	if !ok {
		return t.base().RoundTrip(req)
	}

	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		body = b
	}

	u := *req.URL
	ireq := &Request{
		Method: req.Method,
		URL:    &u,
		Header: req.Header.Clone(),
		Body:   body,
	}
	next := func(ctx context.Context) (*Response, error) {
		return t.fetch(ctx, req, body)
	}

	log := logging.GetLogger()
	log.Debug("intercepted request", "alias", rule.Alias, "method", req.Method, "url", req.URL.String())

	ex := NewExchange(rule.Alias, ireq)
	resp, err := rule.Handler(req.Context(), ireq, next)
	if err == nil && resp == nil {
		err = fmt.Errorf("handler returned no response")
	}
	ex.Finish(resp, err)
	t.rec.RecordAs(ex, rule.AliasesFor(ireq))

	if err != nil {
		log.Warn("interception handler failed", "alias", rule.Alias, "url", req.URL.String(), "error", err)
		return nil, fmt.Errorf("intercept %q: %w", rule.Alias, err)
	}
	return toHTTPResponse(req, resp), nil
}

func (t *Transport) match(req *http.Request) (Rule, bool) {
	target := req.URL.String()
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.rules) - 1; i >= 0; i-- {
		if t.rules[i].Pattern.MatchString(target) {
			return t.rules[i], true
		}
	}
	return Rule{}, false
}

func (t *Transport) fetch(ctx context.Context, req *http.Request, body []byte) (*Response, error) {
	out := req.Clone(ctx)
	if req.Body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.ContentLength = int64(len(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: b}, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func toHTTPResponse(req *http.Request, r *Response) *http.Response {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Del("Content-Length")
	header.Del("Content-Encoding")
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

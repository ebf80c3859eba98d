// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

// Package intercept defines the network-interception API the stub builder
// drives: registering rules that answer matching requests (with a fixed
// response, or by letting the request through and rewriting the response)
// and awaiting the exchanges handled by a named rule.
//
// Two backends are provided: Transport, an http.RoundTripper for Go HTTP
// clients, and the browser sub-package, backed by Playwright.
package intercept

//go:generate mockgen -source=network.go -destination=mock_network.go -package=intercept

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
)

// Request is an intercepted outbound request.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// Query returns the first value of the query parameter key.
func (r *Request) Query(key string) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.Query().Get(key)
}

// Response is the response delivered to the caller of an intercepted
// request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSONResponse returns a response with a JSON content type.
func JSONResponse(status int, body []byte) *Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &Response{Status: status, Header: h, Body: body}
}

// Fetcher lets an intercepted request proceed to the real backend and
// returns the real response.
type Fetcher func(ctx context.Context) (*Response, error)

// Handler answers an intercepted request. It may call next to let the
// request through; it returns the response to deliver.
type Handler func(ctx context.Context, req *Request, next Fetcher) (*Response, error)

// Rule is an interception rule.
type Rule struct {
	// Alias names the rule for Wait. Rules without alias are not recorded.
	Alias string
	// Pattern is matched against the full request URL.
	Pattern *regexp.Regexp
	Handler Handler
	// ExtraAliases optionally names further aliases the exchange of req is
	// recorded under, such as the other procedures of a batched call.
	ExtraAliases func(req *Request) []string
}

// AliasesFor returns the distinct, non-empty aliases an exchange of req is
// recorded under, starting with the rule alias.
func (r Rule) AliasesFor(req *Request) []string {
	var extra []string
	if r.ExtraAliases != nil {
		extra = r.ExtraAliases(req)
	}
	out := make([]string, 0, 1+len(extra))
	seen := make(map[string]struct{}, 1+len(extra))
	for _, a := range append([]string{r.Alias}, extra...) {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Validate reports whether the rule can be registered.
func (r Rule) Validate() error {
	if r.Pattern == nil {
		return fmt.Errorf("%w: missing pattern", ErrInvalidRule)
	}
	if r.Handler == nil {
		return fmt.Errorf("%w: missing handler", ErrInvalidRule)
	}
	return nil
}

// Network is a network-interception backend. Rules registered later take
// precedence over earlier rules matching the same request.
type Network interface {
	// Route registers an interception rule.
	Route(rule Rule) error
	// Wait blocks until the next exchange handled by the rule named alias
	// has completed, or ctx is done.
	Wait(ctx context.Context, alias string) (*Exchange, error)
}

var (
	// ErrInvalidRule is returned by Route for incomplete rules.
	ErrInvalidRule = errors.New("invalid interception rule")
	// ErrUnknownAlias is returned by Wait when no rule was registered under
	// the alias.
	ErrUnknownAlias = errors.New("no interception registered for alias")
	// ErrWaitTimeout is returned by Wait when ctx ends before an exchange
	// completes.
	ErrWaitTimeout = errors.New("timed out waiting for interception")
	// ErrRecorderReset is returned by a Wait that was blocked when the
	// recorder was reset.
	ErrRecorderReset = errors.New("interceptions were reset")
)

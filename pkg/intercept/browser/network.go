// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

// Package browser provides the Playwright-backed network-interception
// backend: rules are registered with Route on a page or browser context and
// answered with Route.Fulfill.
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mcpany/trpcstub/pkg/intercept"
	"github.com/mcpany/trpcstub/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// routeFunc registers a Playwright route handler for a URL matcher.
type routeFunc func(url interface{}, handler func(playwright.Route)) error

// Network implements intercept.Network on top of Playwright routing.
type Network struct {
	route routeFunc
	rec   *intercept.Recorder
}

var _ intercept.Network = (*Network)(nil)

// NewPageNetwork intercepts the requests of a single page.
func NewPageNetwork(page playwright.Page) *Network {
	return newNetwork(func(u interface{}, h func(playwright.Route)) error {
		return page.Route(u, h)
	})
}

// NewContextNetwork intercepts the requests of every page of a browser
// context.
func NewContextNetwork(bc playwright.BrowserContext) *Network {
	return newNetwork(func(u interface{}, h func(playwright.Route)) error {
		return bc.Route(u, h)
	})
}

func newNetwork(route routeFunc) *Network {
	return &Network{route: route, rec: intercept.NewRecorder()}
}

// Route implements intercept.Network.
func (n *Network) Route(rule intercept.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	n.rec.Declare(rule.Alias)
	if err := n.route(rule.Pattern, func(r playwright.Route) { n.handle(rule, r) }); err != nil {
		return fmt.Errorf("could not register route %q: %w", rule.Alias, err)
	}
	logging.GetLogger().Debug("browser route registered", "alias", rule.Alias, "pattern", rule.Pattern.String())
	return nil
}

// Wait implements intercept.Network.
func (n *Network) Wait(ctx context.Context, alias string) (*intercept.Exchange, error) {
	return n.rec.Wait(ctx, alias)
}

// Recorder returns the recorder holding the exchanges of the network.
func (n *Network) Recorder() *intercept.Recorder {
	return n.rec
}

func (n *Network) handle(rule intercept.Rule, route playwright.Route) {
	log := logging.GetLogger()

	req, err := toRequest(route.Request())
	if err != nil {
		log.Warn("could not read intercepted request", "alias", rule.Alias, "error", err)
		_ = route.Abort("failed")
		return
	}

	next := func(context.Context) (*intercept.Response, error) {
		return fetch(route)
	}

	ex := intercept.NewExchange(rule.Alias, req)
	resp, err := rule.Handler(context.Background(), req, next)
	if err == nil && resp == nil {
		err = fmt.Errorf("handler returned no response")
	}
	if err == nil {
		err = route.Fulfill(fulfillOptions(resp))
	} else {
		log.Warn("interception handler failed", "alias", rule.Alias, "url", req.URL.String(), "error", err)
		_ = route.Abort("failed")
	}
	ex.Finish(resp, err)
	n.rec.RecordAs(ex, rule.AliasesFor(req))
}

func toRequest(r playwright.Request) (*intercept.Request, error) {
	u, err := url.Parse(r.URL())
	if err != nil {
		return nil, fmt.Errorf("could not parse url: %w", err)
	}
	body, err := r.PostDataBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not read post data: %w", err)
	}
	return &intercept.Request{
		Method: r.Method(),
		URL:    u,
		Header: toHeader(r.Headers()),
		Body:   body,
	}, nil
}

func fetch(route playwright.Route) (*intercept.Response, error) {
	resp, err := route.Fetch()
	if err != nil {
		return nil, fmt.Errorf("could not fetch: %w", err)
	}
	body, err := resp.Body()
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	return &intercept.Response{
		Status: resp.Status(),
		Header: toHeader(resp.Headers()),
		Body:   body,
	}, nil
}

func fulfillOptions(resp *intercept.Response) playwright.RouteFulfillOptions {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		switch strings.ToLower(k) {
		// The body handed to Fulfill is already decoded and may have been
		// rewritten.
		case "content-length", "content-encoding":
			continue
		}
		headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return playwright.RouteFulfillOptions{
		Status:  playwright.Int(status),
		Headers: headers,
		Body:    resp.Body,
	}
}

func toHeader(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

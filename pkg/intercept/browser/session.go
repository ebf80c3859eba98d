// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Options configures Launch.
type Options struct {
	// Browser is "chromium" (default), "firefox" or "webkit".
	Browser string
	// Headed shows the browser window.
	Headed bool
	// BaseURL resolves relative URLs passed to Page.Goto.
	BaseURL string
}

// Session is a running browser with one context and one page whose network
// is intercepted at the context level.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	network *Network

	mu     sync.Mutex
	closed bool
}

// Launch starts Playwright and a browser, then opens a context and a page.
func Launch(opts Options) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browserType, err := selectBrowser(pw, opts.Browser)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}

	b, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!opts.Headed),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	s := &Session{pw: pw, browser: b}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if opts.BaseURL != "" {
		ctxOpts.BaseURL = playwright.String(opts.BaseURL)
	}
	bc, err := b.NewContext(ctxOpts)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	s.context = bc

	page, err := bc.NewPage()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	s.page = page
	s.network = NewContextNetwork(bc)
	return s, nil
}

func selectBrowser(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch name {
	case "", "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unknown browser %q", name)
	}
}

// Page returns the session page.
func (s *Session) Page() playwright.Page {
	return s.page
}

// Context returns the session browser context.
func (s *Session) Context() playwright.BrowserContext {
	return s.context
}

// Network returns the interception backend of the session context.
func (s *Session) Network() *Network {
	return s.network
}

// Close shuts the browser and Playwright down. It is safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			firstErr = fmt.Errorf("could not close browser: %w", err)
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not stop playwright: %w", err)
		}
	}
	return firstErr
}

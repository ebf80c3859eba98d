// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package intercept

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
)

// Exchange is one request handled by an interception rule.
type Exchange struct {
	ID         string
	Alias      string
	Request    *Request
	Response   *Response
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewExchange starts an exchange for req handled by the rule named alias.
func NewExchange(alias string, req *Request) *Exchange {
	return &Exchange{
		ID:        uuid.New().String(),
		Alias:     alias,
		Request:   req,
		StartedAt: time.Now(),
	}
}

// Finish completes the exchange with the handler outcome.
func (e *Exchange) Finish(resp *Response, err error) {
	e.Response = resp
	e.Err = err
	e.FinishedAt = time.Now()
}

// WithAlias returns a shallow copy of the exchange recorded under alias.
func (e *Exchange) WithAlias(alias string) *Exchange {
	c := *e
	c.Alias = alias
	return &c
}

// Duration returns how long the exchange took.
func (e *Exchange) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Recorder keeps the completed exchanges of every alias and serves Wait.
// Each exchange is returned by Wait exactly once, in completion order.
type Recorder struct {
	logs *xsync.Map[string, *aliasLog]
}

type aliasLog struct {
	mu        sync.Mutex
	exchanges []*Exchange
	waited    int
	changed   chan struct{}
	// dropped is set once Reset removed the log.
	dropped bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{logs: xsync.NewMap[string, *aliasLog]()}
}

// Declare makes alias known to Wait. Backends call it when a rule is
// registered.
func (r *Recorder) Declare(alias string) {
	if alias == "" {
		return
	}
	r.log(alias)
}

// Record stores a completed exchange and wakes up waiters of its alias.
func (r *Recorder) Record(ex *Exchange) {
	if ex == nil || ex.Alias == "" {
		return
	}
	for {
		l := r.log(ex.Alias)
		l.mu.Lock()
		if l.dropped {
			l.mu.Unlock()
			continue
		}
		l.exchanges = append(l.exchanges, ex)
		close(l.changed)
		l.changed = make(chan struct{})
		l.mu.Unlock()
		return
	}
}

// RecordAs stores a completed exchange under each of aliases.
func (r *Recorder) RecordAs(ex *Exchange, aliases []string) {
	for _, a := range aliases {
		if a == ex.Alias {
			r.Record(ex)
			continue
		}
		r.Record(ex.WithAlias(a))
	}
}

// Wait returns the oldest exchange of alias not yet returned by Wait,
// blocking until one is recorded or ctx is done.
func (r *Recorder) Wait(ctx context.Context, alias string) (*Exchange, error) {
	l, ok := r.logs.Load(alias)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlias, alias)
	}
	for {
		l.mu.Lock()
		if l.dropped {
			l.mu.Unlock()
			return nil, fmt.Errorf("%w: %q", ErrRecorderReset, alias)
		}
		if l.waited < len(l.exchanges) {
			ex := l.exchanges[l.waited]
			l.waited++
			l.mu.Unlock()
			return ex, nil
		}
		changed := l.changed
		l.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w %q: %w", ErrWaitTimeout, alias, ctx.Err())
		}
	}
}

// Exchanges returns every recorded exchange of alias, waited or not.
func (r *Recorder) Exchanges(alias string) []*Exchange {
	l, ok := r.logs.Load(alias)
	if !ok {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Exchange(nil), l.exchanges...)
}

// Reset forgets every alias and exchange. Waits blocked on a forgotten
// alias return ErrRecorderReset.
func (r *Recorder) Reset() {
	r.logs.Range(func(alias string, l *aliasLog) bool {
		r.logs.Delete(alias)
		l.mu.Lock()
		if !l.dropped {
			l.dropped = true
			close(l.changed)
		}
		l.mu.Unlock()
		return true
	})
}

func (r *Recorder) log(alias string) *aliasLog {
	l, _ := r.logs.LoadOrStore(alias, &aliasLog{changed: make(chan struct{})})
	return l
}

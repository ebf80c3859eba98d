// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package intercept

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_WaitUnknownAlias(t *testing.T) {
	r := NewRecorder()
	_, err := r.Wait(context.Background(), "user.get")
	assert.ErrorIs(t, err, ErrUnknownAlias)
}

func TestRecorder_WaitReturnsRecordedInOrder(t *testing.T) {
	r := NewRecorder()
	r.Declare("user.get")

	first := NewExchange("user.get", &Request{Method: "GET"})
	second := NewExchange("user.get", &Request{Method: "GET"})
	first.Finish(&Response{Status: 200}, nil)
	second.Finish(&Response{Status: 200}, nil)
	r.Record(first)
	r.Record(second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := r.Wait(ctx, "user.get")
	require.NoError(t, err)
	assert.Same(t, first, got)

	got, err = r.Wait(ctx, "user.get")
	require.NoError(t, err)
	assert.Same(t, second, got)

	assert.Len(t, r.Exchanges("user.get"), 2, "waited exchanges stay listed")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRecorder_WaitBlocksUntilRecord(t *testing.T) {
	r := NewRecorder()
	r.Declare("user.get")

	var (
		wg  sync.WaitGroup
		got *Exchange
		err error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		got, err = r.Wait(ctx, "user.get")
	}()

	time.Sleep(20 * time.Millisecond)
	ex := NewExchange("user.get", &Request{})
	ex.Finish(&Response{Status: 200}, nil)
	r.Record(ex)

	wg.Wait()
	require.NoError(t, err)
	assert.Same(t, ex, got)
	assert.GreaterOrEqual(t, ex.Duration(), time.Duration(0))
}

func TestRecorder_WaitTimeout(t *testing.T) {
	r := NewRecorder()
	r.Declare("user.get")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Wait(ctx, "user.get")
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRecorder_IgnoresAnonymous(t *testing.T) {
	r := NewRecorder()
	r.Declare("")
	r.Record(NewExchange("", &Request{}))
	r.Record(nil)

	assert.Nil(t, r.Exchanges(""))
}

func TestRecorder_Reset(t *testing.T) {
	r := NewRecorder()
	r.Declare("a")
	r.Record(NewExchange("a", &Request{}))
	r.Reset()

	assert.Nil(t, r.Exchanges("a"))
	_, err := r.Wait(context.Background(), "a")
	assert.ErrorIs(t, err, ErrUnknownAlias)
}

func TestRecorder_ResetReleasesWaiters(t *testing.T) {
	r := NewRecorder()
	r.Declare("user.get")

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := r.Wait(ctx, "user.get")
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	r.Reset()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrRecorderReset)
	case <-time.After(time.Second):
		t.Fatal("Wait still blocked after Reset")
	}

	r.Declare("user.get")
	ex := NewExchange("user.get", &Request{})
	r.Record(ex)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := r.Wait(ctx, "user.get")
	require.NoError(t, err)
	assert.Same(t, ex, got)
}

func TestRecorder_RecordAs(t *testing.T) {
	r := NewRecorder()
	rule := Rule{
		Alias: "user.get",
		ExtraAliases: func(*Request) []string {
			return []string{"user.list", "", "user.get"}
		},
	}
	aliases := rule.AliasesFor(&Request{Method: "GET"})
	assert.Equal(t, []string{"user.get", "user.list"}, aliases)

	ex := NewExchange("user.get", &Request{Method: "GET"})
	ex.Finish(JSONResponse(200, []byte(`[]`)), nil)
	r.RecordAs(ex, aliases)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := r.Wait(ctx, "user.get")
	require.NoError(t, err)
	assert.Same(t, ex, got)
	other, err := r.Wait(ctx, "user.list")
	require.NoError(t, err)
	assert.Equal(t, ex.ID, other.ID)
	assert.Equal(t, "user.list", other.Alias)
	assert.Equal(t, "user.get", ex.Alias, "copies leave the original alias untouched")
}

func TestRule_AliasesForWithoutExtras(t *testing.T) {
	assert.Equal(t, []string{"a"}, Rule{Alias: "a"}.AliasesFor(nil))
	assert.Empty(t, Rule{}.AliasesFor(nil))
}

// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package trpcstub

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/mcpany/trpcstub/pkg/intercept"
	"github.com/mcpany/trpcstub/pkg/logging"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// dataPath is the location of the procedure output in a response envelope.
const dataPath = "result.data"

// anyOrigin matches an optional scheme://host prefix.
const anyOrigin = `(?:[a-zA-Z][a-zA-Z0-9+.\-]*://[^/?#]*)?`

type stubKind int

const (
	kindFixed stubKind = iota
	kindIntercept
)

// stub is the current behavior registered for a procedure.
type stub struct {
	kind stubKind
	// data is the serialized output of a fixed stub.
	data []byte
	// rewrite transforms the serialized output of an intercepted call. A nil
	// rewrite leaves it untouched.
	rewrite func(data []byte) ([]byte, error)
}

// pattern matches calls to path, alone or as a member of a batch.
func (s *Stubber) pattern(path string) *regexp.Regexp {
	origin := anyOrigin
	if s.host != "" {
		origin = regexp.QuoteMeta(s.host)
	}
	return regexp.MustCompile("^" + origin +
		regexp.QuoteMeta(s.endpointPath) + `/(?:[^/?#]*,)?` +
		regexp.QuoteMeta(path) + `(?:,[^/?#]*)?(?:[?#].*)?$`)
}

// members returns the procedure paths addressed by req, in batch order.
func (s *Stubber) members(req *intercept.Request) []string {
	if req == nil || req.URL == nil {
		return nil
	}
	p := req.URL.Path
	i := strings.Index(p, s.endpointPath+"/")
	if i < 0 {
		return nil
	}
	rest := p[i+len(s.endpointPath)+1:]
	if rest == "" {
		return nil
	}
	return strings.Split(rest, ",")
}

func isBatch(req *intercept.Request) bool {
	return req.Query("batch") == "1"
}

func (s *Stubber) lookupStub(path string) *stub {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stubs[path]
}

func (s *Stubber) setStub(path string, st *stub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[path] = st
}

// stubbedMembers lists the members of req that currently have a stub, so a
// batched exchange resolves Wait for each of them.
func (s *Stubber) stubbedMembers(req *intercept.Request) []string {
	var out []string
	for _, m := range s.members(req) {
		if s.lookupStub(m) != nil {
			out = append(out, m)
		}
	}
	return out
}

func envelope(data []byte) ([]byte, error) {
	b, err := sjson.SetRawBytes([]byte(`{}`), dataPath, data)
	if err != nil {
		return nil, fmt.Errorf("failed to build response envelope: %w", err)
	}
	return b, nil
}

// handle answers every request matched by a rule of this Stubber. Fixed
// members are answered without reaching the backend when possible; the
// others are fetched once and patched in place.
func (s *Stubber) handle(ctx context.Context, req *intercept.Request, next intercept.Fetcher) (*intercept.Response, error) {
	log := logging.GetLogger()
	members := s.members(req)
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %s is not a procedure call", ErrUnknownProcedure, req.URL)
	}
	batch := isBatch(req)
	if !batch {
		members = members[:1]
	}

	stubs := make([]*stub, len(members))
	fetch := false
	for i, m := range members {
		stubs[i] = s.lookupStub(m)
		if stubs[i] == nil || stubs[i].kind == kindIntercept {
			fetch = true
		}
	}

	if !fetch {
		envs := make([][]byte, len(members))
		for i, st := range stubs {
			env, err := envelope(st.data)
			if err != nil {
				return nil, err
			}
			envs[i] = env
		}
		body := envs[0]
		if batch {
			body = append(append([]byte{'['}, bytes.Join(envs, []byte{','})...), ']')
		}
		log.Debug("Answered tRPC call with stub", "procedures", members, "batch", batch)
		return intercept.JSONResponse(http.StatusOK, body), nil
	}

	resp, err := next(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", strings.Join(members, ","), err)
	}
	body := resp.Body
	for i, st := range stubs {
		if st == nil {
			continue
		}
		at := dataPath
		if batch {
			at = strconv.Itoa(i) + "." + dataPath
		}
		switch st.kind {
		case kindFixed:
			env, err := envelope(st.data)
			if err != nil {
				return nil, err
			}
			target := "@this"
			if batch {
				target = strconv.Itoa(i)
			}
			if body, err = setRaw(body, target, env); err != nil {
				return nil, err
			}
		case kindIntercept:
			if body, err = rewriteAt(body, at, st.rewrite); err != nil {
				return nil, fmt.Errorf("failed to intercept %s: %w", members[i], err)
			}
		}
	}
	log.Debug("Patched tRPC response", "procedures", members, "batch", batch, "status", resp.Status)
	resp.Body = body
	return resp, nil
}

// setRaw replaces the value at path; "@this" replaces the whole document.
func setRaw(body []byte, path string, raw []byte) ([]byte, error) {
	if path == "@this" {
		return raw, nil
	}
	b, err := sjson.SetRawBytes(body, path, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to splice response entry %s: %w", path, err)
	}
	return b, nil
}

// rewriteAt applies fn to the raw JSON at path. Bodies without a value at
// path, such as tRPC error envelopes, are returned unmodified.
func rewriteAt(body []byte, path string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	if fn == nil {
		return body, nil
	}
	res := gjson.GetBytes(body, path)
	if !res.Exists() {
		logging.GetLogger().Debug("No result data to intercept", "path", path)
		return body, nil
	}
	data, err := fn([]byte(res.Raw))
	if err != nil {
		return nil, err
	}
	out, err := sjson.SetRawBytes(body, path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to write rewritten data: %w", err)
	}
	return out, nil
}

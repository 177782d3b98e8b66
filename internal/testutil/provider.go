// Package testutil provides the scripted model provider used by pipeline
// and command tests: prompts are matched by substring and answered with
// canned artifact JSON, so a whole generation run executes without network
// access.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cory-johannsen/worldforge/internal/llm"
)

// rule binds a prompt substring to its canned outcome.
type rule struct {
	substr   string
	response string
	err      error
}

// ScriptedProvider implements llm.Provider with canned responses. Rules are
// matched in registration order against the request prompt; the first match
// wins. A prompt matching no rule fails the request, which keeps tests from
// silently passing on prompts they never anticipated.
type ScriptedProvider struct {
	mu    sync.Mutex
	rules []rule
	calls []string
}

// NewScriptedProvider constructs an empty provider.
func NewScriptedProvider() *ScriptedProvider {
	return &ScriptedProvider{}
}

// Name implements llm.Provider.
func (p *ScriptedProvider) Name() string { return "scripted" }

// On registers a canned response for prompts containing substr.
func (p *ScriptedProvider) On(substr, response string) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, rule{substr: substr, response: response})
	return p
}

// OnError registers a canned failure for prompts containing substr.
func (p *ScriptedProvider) OnError(substr string, err error) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, rule{substr: substr, err: err})
	return p
}

// Complete implements llm.Provider.
func (p *ScriptedProvider) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, req.Prompt)
	for _, r := range p.rules {
		if strings.Contains(req.Prompt, r.substr) {
			if r.err != nil {
				return llm.Response{}, r.err
			}
			return llm.Response{Content: r.response, PromptTokens: 10, CompletionTokens: 20}, nil
		}
	}
	return llm.Response{}, fmt.Errorf("testutil.ScriptedProvider: no rule matches prompt %.80q", req.Prompt)
}

// Calls returns a copy of all prompts received so far.
func (p *ScriptedProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// MustJSON marshals v or fails the test. Artifact fixtures are built as
// world types and marshaled, so fixtures can never drift from the real
// field tags.
func MustJSON(t testing.TB, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling fixture: %v", err)
	}
	return string(data)
}

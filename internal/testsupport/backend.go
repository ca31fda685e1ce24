package testsupport

import (
	"context"
	"sync"
)

// ScriptedBackend returns canned responses in order, cycling when exhausted.
// It satisfies the Backend interfaces of the generation and pipeline
// packages.
type ScriptedBackend struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
}

// NewScriptedBackend builds a backend returning the supplied responses.
func NewScriptedBackend(responses ...string) *ScriptedBackend {
	return &ScriptedBackend{responses: responses}
}

// FailWith scripts per-call errors: call i returns errs[i] when it is
// non-nil, a scripted response otherwise.
func (b *ScriptedBackend) FailWith(errs ...error) *ScriptedBackend {
	b.errs = errs
	return b
}

// Generate pops the next scripted response.
func (b *ScriptedBackend) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	call := b.calls
	b.calls++

	if call < len(b.errs) && b.errs[call] != nil {
		return "", b.errs[call]
	}
	if len(b.responses) == 0 {
		return "{}", nil
	}
	return b.responses[call%len(b.responses)], nil
}

// Calls reports how many times Generate ran.
func (b *ScriptedBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

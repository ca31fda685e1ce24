package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storyforge/internal/services"
	"storyforge/internal/workitem"
)

type openGate struct{ acquired int }

func (g *openGate) Acquire(ctx context.Context) error {
	g.acquired++
	return nil
}

type closedGate struct{}

func (closedGate) Acquire(ctx context.Context) error {
	return services.Wrap(services.ErrQuotaExceeded, "quota", "acquire", "daily ceiling reached", nil)
}

type scriptedBackend struct {
	calls   int
	failAt  int
	failErr error
}

func (b *scriptedBackend) Generate(ctx context.Context, system, user string) (string, error) {
	b.calls++
	if b.failAt > 0 && b.calls == b.failAt {
		return "", b.failErr
	}
	return fmt.Sprintf("output-%d", b.calls), nil
}

var testItem = workitem.Item{ID: "ep-1", Title: "Episode One", Transcript: "raw transcript"}

func TestRunExecutesStagesInOrder(t *testing.T) {
	var seen []string
	backend := &scriptedBackend{}
	gate := &openGate{}
	pipeline := New(backend, gate, nil, WithStages([]Stage{
		{Name: "first", System: "s", User: func(c *Context) string {
			seen = append(seen, "first")
			return c.Item.Transcript
		}},
		{Name: "second", System: "s", User: func(c *Context) string {
			seen = append(seen, "second")
			prev, ok := c.Section("first")
			if !ok || prev != "output-1" {
				t.Fatalf("second stage should see first stage output, got %q (ok=%v)", prev, ok)
			}
			return prev
		}},
	}))

	output, err := pipeline.Run(context.Background(), testItem)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if output != "output-2" {
		t.Fatalf("expected final stage output, got %q", output)
	}
	if len(seen) != 2 || seen[0] != "first" || seen[1] != "second" {
		t.Fatalf("unexpected stage order: %v", seen)
	}
	if gate.acquired != 2 {
		t.Fatalf("expected one quota acquisition per stage, got %d", gate.acquired)
	}
}

func TestRunAbandonsOnStageFailure(t *testing.T) {
	backend := &scriptedBackend{failAt: 2, failErr: errors.New("boom")}
	pipeline := New(backend, &openGate{}, nil, WithStages([]Stage{
		{Name: "a", System: "s", User: func(*Context) string { return "p" }},
		{Name: "b", System: "s", User: func(*Context) string { return "p" }},
		{Name: "c", System: "s", User: func(*Context) string { return "p" }},
	}))

	_, err := pipeline.Run(context.Background(), testItem)
	if !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if backend.calls != 2 {
		t.Fatalf("later stages must not run after a failure, got %d calls", backend.calls)
	}
}

func TestRunClassifiesTimeoutAsStageTimeout(t *testing.T) {
	backend := &scriptedBackend{failAt: 1, failErr: context.DeadlineExceeded}
	pipeline := New(backend, &openGate{}, nil, WithStages([]Stage{
		{Name: "a", System: "s", User: func(*Context) string { return "p" }},
	}), WithStageTimeout(time.Millisecond))

	_, err := pipeline.Run(context.Background(), testItem)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestRunPropagatesQuotaErrors(t *testing.T) {
	backend := &scriptedBackend{}
	pipeline := New(backend, closedGate{}, nil, WithStages([]Stage{
		{Name: "a", System: "s", User: func(*Context) string { return "p" }},
	}))

	_, err := pipeline.Run(context.Background(), testItem)
	if !errors.Is(err, services.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("backend must not be called when quota is exhausted, got %d calls", backend.calls)
	}
}

func TestDefaultStagesCoverFullSequence(t *testing.T) {
	want := []string{
		"foundation", "narrative", "factcheck", "engagement", "family",
		"aitools", "channels", "schema", "qualitygate",
	}
	stages := Stages()
	if len(stages) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(stages))
	}
	for i, stage := range stages {
		if stage.Name != want[i] {
			t.Fatalf("stage %d: expected %q, got %q", i, want[i], stage.Name)
		}
		if stage.System == "" || stage.User == nil {
			t.Fatalf("stage %q missing prompts", stage.Name)
		}
	}
}

func TestContextAppendRejectsDuplicates(t *testing.T) {
	runCtx := NewContext(testItem)
	if err := runCtx.Append("foundation", "one"); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := runCtx.Append("foundation", "two"); err == nil {
		t.Fatal("expected duplicate section append to fail")
	}
	if got := runCtx.Last(); got != "one" {
		t.Fatalf("duplicate append must not overwrite, got %q", got)
	}
}

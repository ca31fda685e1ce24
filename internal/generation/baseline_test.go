package generation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storyforge/internal/artifact"
	"storyforge/internal/monitor"
	"storyforge/internal/rollout"
	"storyforge/internal/services"
	"storyforge/internal/testsupport"
	"storyforge/internal/workitem"
)

type gateFunc func(ctx context.Context) error

func (f gateFunc) Acquire(ctx context.Context) error { return f(ctx) }

var openGate = gateFunc(func(context.Context) error { return nil })

type captureBackend struct {
	system string
	user   string
}

func (b *captureBackend) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	b.system = systemPrompt
	b.user = userPrompt
	return "{}", nil
}

func TestBaselineReturnsBackendOutput(t *testing.T) {
	backend := testsupport.NewScriptedBackend(`{"stories": []}`)
	baseline, err := NewBaseline(backend, openGate, nil, "", time.Minute)
	if err != nil {
		t.Fatalf("NewBaseline returned error: %v", err)
	}

	output, err := baseline.Run(context.Background(), testItem)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if output != `{"stories": []}` {
		t.Fatalf("unexpected output: %q", output)
	}
	if backend.Calls() != 1 {
		t.Fatalf("expected 1 backend call, got %d", backend.Calls())
	}
}

func TestBaselineGateErrorSkipsBackend(t *testing.T) {
	quotaErr := services.Wrap(services.ErrQuotaExceeded, "quota", "acquire", "daily ceiling reached", nil)
	gate := gateFunc(func(context.Context) error { return quotaErr })
	backend := testsupport.NewScriptedBackend(`{}`)

	baseline, err := NewBaseline(backend, gate, nil, "", time.Minute)
	if err != nil {
		t.Fatalf("NewBaseline returned error: %v", err)
	}

	_, err = baseline.Run(context.Background(), testItem)
	if !errors.Is(err, services.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if backend.Calls() != 0 {
		t.Fatalf("expected no backend calls, got %d", backend.Calls())
	}
}

func TestBaselineWrapsBackendFailure(t *testing.T) {
	backend := testsupport.NewScriptedBackend().FailWith(errors.New("boom"))
	baseline, err := NewBaseline(backend, openGate, nil, "", time.Minute)
	if err != nil {
		t.Fatalf("NewBaseline returned error: %v", err)
	}

	_, err = baseline.Run(context.Background(), testItem)
	if !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend error classification, got %v", err)
	}
}

func TestBaselinePromptOverrideAndTranscriptCap(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	promptPath := filepath.Join(cfg.Paths.DataDir, "prompt.txt")
	if err := os.WriteFile(promptPath, []byte("CUSTOM MASTER PROMPT\n"), 0o644); err != nil {
		t.Fatalf("write prompt: %v", err)
	}

	backend := &captureBackend{}
	timeout := time.Duration(cfg.Generation.StageTimeoutSeconds) * time.Second
	baseline, err := NewBaseline(backend, openGate, nil, promptPath, timeout)
	if err != nil {
		t.Fatalf("NewBaseline returned error: %v", err)
	}

	item := testItem
	item.Transcript = strings.Repeat("a", 30000)
	if _, err := baseline.Run(context.Background(), item); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if backend.system != "CUSTOM MASTER PROMPT" {
		t.Fatalf("expected override prompt, got %q", backend.system)
	}
	if got := strings.Count(backend.user, "a"); got != 24000 {
		t.Fatalf("expected transcript capped at 24000 chars, got %d", got)
	}
	if !strings.Contains(backend.user, item.Title) {
		t.Fatal("expected episode title in user prompt")
	}
}

func TestCoordinatorEndToEndWithScriptedBackend(t *testing.T) {
	const doc = `{"stories": [{
		"id": "story-1",
		"title": "The Emergency Fund Kata",
		"summary": "Why three months of expenses is the white belt move.",
		"full_content": "A long-form walkthrough of building the fund.",
		"content_type": "curriculum-war-story"
	}]}`

	cases := []struct {
		name       string
		options    []testsupport.ConfigOption
		wantPath   monitor.Path
		wantMethod string
	}{
		{
			name:       "rollout disabled stays on baseline",
			wantPath:   monitor.PathBaseline,
			wantMethod: "single-pass",
		},
		{
			name:       "full rollout routes experimental",
			options:    []testsupport.ConfigOption{testsupport.WithRollout(100)},
			wantPath:   monitor.PathExperimental,
			wantMethod: "staged-pipeline",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, tc.options...)
			backend := testsupport.NewScriptedBackend(doc)
			generator, err := NewBaseline(backend, openGate, nil, "", time.Minute)
			if err != nil {
				t.Fatalf("NewBaseline returned error: %v", err)
			}
			recorder := &fakeRecorder{}

			coordinator := NewCoordinator(
				generator, generator,
				artifact.NewValidator(nil),
				recorder,
				Settings{
					Rollout: rollout.Settings{
						Enabled:    cfg.Rollout.Enabled,
						Percentage: cfg.Rollout.Percentage,
						Seed:       cfg.Rollout.Seed,
					},
					AutoFallback: cfg.Rollout.AutoFallback,
				},
				nil,
			)

			result := coordinator.Process(context.Background(), workitem.Item{
				ID:         "ep-9",
				Title:      "Episode Nine",
				Transcript: "transcript",
			})
			if result.Err != nil {
				t.Fatalf("Process returned error: %v", result.Err)
			}
			if result.Path != tc.wantPath {
				t.Fatalf("unexpected path: got %s want %s", result.Path, tc.wantPath)
			}
			if len(result.Artifacts) != 1 {
				t.Fatalf("expected 1 artifact, got %d", len(result.Artifacts))
			}
			got := result.Artifacts[0]
			if got.GenerationMethod != tc.wantMethod {
				t.Fatalf("unexpected generation method: %q", got.GenerationMethod)
			}
			if got.QualityScore <= 0 {
				t.Fatalf("expected positive quality score, got %v", got.QualityScore)
			}
			if len(recorder.sessions) != 1 {
				t.Fatalf("expected 1 session, got %d", len(recorder.sessions))
			}
			if recorder.sessions[0].Path != tc.wantPath {
				t.Fatalf("unexpected session path: %s", recorder.sessions[0].Path)
			}
		})
	}
}

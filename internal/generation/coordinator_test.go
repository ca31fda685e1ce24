package generation

import (
	"context"
	"errors"
	"testing"

	"storyforge/internal/artifact"
	"storyforge/internal/monitor"
	"storyforge/internal/rollout"
	"storyforge/internal/workitem"
)

type fakeGenerator struct {
	output string
	err    error
	calls  int
}

func (g *fakeGenerator) Run(ctx context.Context, item workitem.Item) (string, error) {
	g.calls++
	return g.output, g.err
}

type fakeValidator struct {
	artifacts map[string][]artifact.Artifact
	err       error
}

func (v *fakeValidator) Validate(rawOutput string, item workitem.Item) ([]artifact.Artifact, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.artifacts[rawOutput], nil
}

type fakeRecorder struct {
	sessions []monitor.Session
	rollback bool
	err      error
}

func (r *fakeRecorder) Record(ctx context.Context, session monitor.Session) error {
	r.sessions = append(r.sessions, session)
	return nil
}

func (r *fakeRecorder) ShouldRollback(ctx context.Context) (bool, error) {
	return r.rollback, r.err
}

var testItem = workitem.Item{ID: "ep-1", Title: "Episode One", Transcript: "raw transcript"}

func experimentalSettings(autoFallback bool) Settings {
	return Settings{
		Rollout:      rollout.Settings{Enabled: true, Percentage: 100, Seed: "test"},
		AutoFallback: autoFallback,
	}
}

func validArtifacts() []artifact.Artifact {
	return []artifact.Artifact{{
		ID: "s1", Title: "T", Summary: "S", FullContent: "body", ContentType: "mindset-hack",
	}}
}

func TestProcessBaselinePath(t *testing.T) {
	baseline := &fakeGenerator{output: "raw"}
	experimental := &fakeGenerator{output: "raw"}
	validator := &fakeValidator{artifacts: map[string][]artifact.Artifact{"raw": validArtifacts()}}
	recorder := &fakeRecorder{}

	c := NewCoordinator(baseline, experimental, validator, recorder, Settings{}, nil)
	result := c.Process(context.Background(), testItem)

	if result.Err != nil {
		t.Fatalf("Process returned error: %v", result.Err)
	}
	if result.Path != monitor.PathBaseline {
		t.Fatalf("expected baseline path, got %s", result.Path)
	}
	if experimental.calls != 0 {
		t.Fatal("experimental path must not run when rollout is disabled")
	}
	if len(result.Artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(result.Artifacts))
	}
	if result.Artifacts[0].GenerationMethod != "single-pass" {
		t.Fatalf("unexpected generation method %q", result.Artifacts[0].GenerationMethod)
	}
	if result.Artifacts[0].QualityScore <= 0 {
		t.Fatal("expected a computed quality score")
	}
}

func TestProcessExperimentalPath(t *testing.T) {
	baseline := &fakeGenerator{output: "raw"}
	experimental := &fakeGenerator{output: "raw"}
	validator := &fakeValidator{artifacts: map[string][]artifact.Artifact{"raw": validArtifacts()}}
	recorder := &fakeRecorder{}

	c := NewCoordinator(baseline, experimental, validator, recorder, experimentalSettings(true), nil)
	result := c.Process(context.Background(), testItem)

	if result.Err != nil {
		t.Fatalf("Process returned error: %v", result.Err)
	}
	if result.Path != monitor.PathExperimental {
		t.Fatalf("expected experimental path, got %s", result.Path)
	}
	if baseline.calls != 0 {
		t.Fatal("baseline must not run when the experimental path succeeds")
	}
	if result.Artifacts[0].GenerationMethod != "staged-pipeline" {
		t.Fatalf("unexpected generation method %q", result.Artifacts[0].GenerationMethod)
	}
}

func TestProcessFallsBackWhenExperimentalFails(t *testing.T) {
	baseline := &fakeGenerator{output: "raw"}
	experimental := &fakeGenerator{err: errors.New("stage blew up")}
	validator := &fakeValidator{artifacts: map[string][]artifact.Artifact{"raw": validArtifacts()}}
	recorder := &fakeRecorder{}

	c := NewCoordinator(baseline, experimental, validator, recorder, experimentalSettings(true), nil)
	result := c.Process(context.Background(), testItem)

	if result.Err != nil {
		t.Fatalf("Process returned error: %v", result.Err)
	}
	if result.Path != monitor.PathExperimentalFallback {
		t.Fatalf("expected fallback path, got %s", result.Path)
	}
	if baseline.calls != 1 {
		t.Fatalf("expected one baseline call, got %d", baseline.calls)
	}
	if len(recorder.sessions) != 1 {
		t.Fatalf("expected exactly one session, got %d", len(recorder.sessions))
	}
	session := recorder.sessions[0]
	if session.Path != monitor.PathExperimentalFallback || session.ErrorOccurred {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestProcessNoFallbackWhenDisabled(t *testing.T) {
	baseline := &fakeGenerator{output: "raw"}
	experimental := &fakeGenerator{err: errors.New("stage blew up")}
	validator := &fakeValidator{artifacts: map[string][]artifact.Artifact{"raw": validArtifacts()}}
	recorder := &fakeRecorder{}

	c := NewCoordinator(baseline, experimental, validator, recorder, experimentalSettings(false), nil)
	result := c.Process(context.Background(), testItem)

	if result.Err == nil {
		t.Fatal("expected an error with fallback disabled")
	}
	if baseline.calls != 0 {
		t.Fatal("baseline must not run with fallback disabled")
	}
	if len(recorder.sessions) != 1 {
		t.Fatalf("expected exactly one session, got %d", len(recorder.sessions))
	}
	if !recorder.sessions[0].ErrorOccurred {
		t.Fatal("expected an error session")
	}
}

func TestProcessBothPathsFailing(t *testing.T) {
	baseline := &fakeGenerator{err: errors.New("baseline down")}
	experimental := &fakeGenerator{err: errors.New("experimental down")}
	validator := &fakeValidator{}
	recorder := &fakeRecorder{}

	c := NewCoordinator(baseline, experimental, validator, recorder, experimentalSettings(true), nil)
	result := c.Process(context.Background(), testItem)

	if result.Err == nil {
		t.Fatal("expected an error when both paths fail")
	}
	if len(recorder.sessions) != 1 {
		t.Fatalf("expected exactly one session, got %d", len(recorder.sessions))
	}
	session := recorder.sessions[0]
	if !session.ErrorOccurred || session.ArtifactCount != 0 {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.Path != monitor.PathExperimentalFallback {
		t.Fatalf("expected the fallback path on the failure session, got %s", session.Path)
	}
}

func TestProcessRollbackForcesBaseline(t *testing.T) {
	baseline := &fakeGenerator{output: "raw"}
	experimental := &fakeGenerator{output: "raw"}
	validator := &fakeValidator{artifacts: map[string][]artifact.Artifact{"raw": validArtifacts()}}
	recorder := &fakeRecorder{rollback: true}

	c := NewCoordinator(baseline, experimental, validator, recorder, experimentalSettings(true), nil)
	result := c.Process(context.Background(), testItem)

	if result.Err != nil {
		t.Fatalf("Process returned error: %v", result.Err)
	}
	if result.Path != monitor.PathBaseline {
		t.Fatalf("expected forced baseline, got %s", result.Path)
	}
	if experimental.calls != 0 {
		t.Fatal("experimental must not run after rollback")
	}
}

func TestProcessValidationFailureTriggersFallback(t *testing.T) {
	baseline := &fakeGenerator{output: "good"}
	experimental := &fakeGenerator{output: "garbage"}
	validator := &fakeValidator{artifacts: map[string][]artifact.Artifact{"good": validArtifacts()}}
	recorder := &fakeRecorder{}

	// The experimental output parses to nothing usable.
	validator.artifacts["garbage"] = nil

	c := NewCoordinator(baseline, experimental, validator, recorder, experimentalSettings(true), nil)
	result := c.Process(context.Background(), testItem)

	// An empty-but-valid result is DONE, not a failure: the fallback must not run.
	if result.Err != nil {
		t.Fatalf("Process returned error: %v", result.Err)
	}
	if result.Path != monitor.PathExperimental {
		t.Fatalf("expected experimental path, got %s", result.Path)
	}
	if baseline.calls != 0 {
		t.Fatal("an empty valid result must not trigger fallback")
	}
}

func TestProcessValidationErrorTriggersFallback(t *testing.T) {
	baseline := &fakeGenerator{output: "good"}
	experimental := &fakeGenerator{output: "garbage"}
	recorder := &fakeRecorder{}
	validator := &fakeValidator{err: errors.New("not json")}

	c := NewCoordinator(baseline, experimental, validator, recorder, experimentalSettings(true), nil)
	result := c.Process(context.Background(), testItem)

	// Validation errors on the fallback output too, so the call fails, but
	// still with exactly one session.
	if result.Err == nil {
		t.Fatal("expected an error")
	}
	if baseline.calls != 1 {
		t.Fatalf("expected the fallback to run once, got %d baseline calls", baseline.calls)
	}
	if len(recorder.sessions) != 1 {
		t.Fatalf("expected exactly one session, got %d", len(recorder.sessions))
	}
}

func TestUpdateSettingsSwapsAtomically(t *testing.T) {
	baseline := &fakeGenerator{output: "raw"}
	experimental := &fakeGenerator{output: "raw"}
	validator := &fakeValidator{artifacts: map[string][]artifact.Artifact{"raw": validArtifacts()}}
	recorder := &fakeRecorder{}

	c := NewCoordinator(baseline, experimental, validator, recorder, Settings{}, nil)
	if got := c.Process(context.Background(), testItem); got.Path != monitor.PathBaseline {
		t.Fatalf("expected baseline before update, got %s", got.Path)
	}

	c.UpdateSettings(experimentalSettings(true))
	if got := c.Process(context.Background(), testItem); got.Path != monitor.PathExperimental {
		t.Fatalf("expected experimental after update, got %s", got.Path)
	}
	if got := c.Settings(); !got.AutoFallback || got.Rollout.Percentage != 100 {
		t.Fatalf("unexpected settings after update: %+v", got)
	}
}

func TestProcessRecordsExactlyOneSessionPerCall(t *testing.T) {
	baseline := &fakeGenerator{output: "raw"}
	experimental := &fakeGenerator{err: errors.New("down")}
	validator := &fakeValidator{artifacts: map[string][]artifact.Artifact{"raw": validArtifacts()}}
	recorder := &fakeRecorder{}

	c := NewCoordinator(baseline, experimental, validator, recorder, experimentalSettings(true), nil)
	for i := 0; i < 5; i++ {
		c.Process(context.Background(), testItem)
	}
	if len(recorder.sessions) != 5 {
		t.Fatalf("expected 5 sessions for 5 calls, got %d", len(recorder.sessions))
	}
}

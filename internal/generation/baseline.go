package generation

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"storyforge/internal/logging"
	"storyforge/internal/services"
	"storyforge/internal/workitem"
)

//go:embed master_prompt.txt
var defaultMasterPrompt string

// Backend is the generative service a path calls.
type Backend interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Gate reserves backend capacity before each call.
type Gate interface {
	Acquire(ctx context.Context) error
}

// Generator is one generation path: it turns a work item into raw output.
type Generator interface {
	Run(ctx context.Context, item workitem.Item) (string, error)
}

const baselineTranscriptLimit = 24000

// Baseline is the single-pass generation path: one backend call with the
// master prompt.
type Baseline struct {
	backend Backend
	gate    Gate
	logger  *slog.Logger
	prompt  string
	timeout time.Duration
}

// NewBaseline constructs the baseline generator. promptPath optionally
// overrides the built-in master prompt.
func NewBaseline(backend Backend, gate Gate, logger *slog.Logger, promptPath string, timeout time.Duration) (*Baseline, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	prompt := defaultMasterPrompt
	if promptPath != "" {
		data, err := os.ReadFile(promptPath)
		if err != nil {
			return nil, fmt.Errorf("read master prompt: %w", err)
		}
		if trimmed := strings.TrimSpace(string(data)); trimmed != "" {
			prompt = trimmed
		}
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Baseline{
		backend: backend,
		gate:    gate,
		logger:  logger,
		prompt:  prompt,
		timeout: timeout,
	}, nil
}

// Run issues the single master-prompt call for the item.
func (b *Baseline) Run(ctx context.Context, item workitem.Item) (string, error) {
	if err := b.gate.Acquire(ctx); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	transcript := item.Transcript
	if len(transcript) > baselineTranscriptLimit {
		transcript = transcript[:baselineTranscriptLimit]
	}
	user := fmt.Sprintf("Episode: %s\n\nTranscript:\n%s", item.Title, transcript)

	output, err := b.backend.Generate(callCtx, b.prompt, user)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuotaExceeded):
			return "", err
		case errors.Is(err, context.DeadlineExceeded):
			return "", services.Wrap(services.ErrTimeout, "baseline", "generate", "generation exceeded its time ceiling", err)
		default:
			return "", services.Wrap(services.ErrBackend, "baseline", "generate", "backend call failed", err)
		}
	}
	b.logger.Debug("baseline generation complete",
		logging.String(logging.FieldItemID, item.ID),
		logging.Int("output_bytes", len(output)),
	)
	return output, nil
}

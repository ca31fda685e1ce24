package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyforge/internal/config"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvAPIKey, "test-key")
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "storyforge")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != config.Default().LLM.Model {
		t.Fatalf("unexpected model: %q", cfg.LLM.Model)
	}
	if cfg.Rollout.Enabled {
		t.Fatal("expected rollout disabled by default")
	}
	if cfg.Rollout.Percentage != 0 {
		t.Fatalf("expected rollout percentage 0, got %d", cfg.Rollout.Percentage)
	}
	if !cfg.Rollout.AutoFallback {
		t.Fatal("expected auto fallback enabled by default")
	}
	if !cfg.Monitoring.Enabled {
		t.Fatal("expected monitoring enabled by default")
	}
	if cfg.Quota.MaxPerMinute != 10 || cfg.Quota.MaxPerDay != 150 {
		t.Fatalf("unexpected quota defaults: %d/%d", cfg.Quota.MaxPerMinute, cfg.Quota.MaxPerDay)
	}
}

func TestLoadReadsFileAndEnvWins(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "storyforge.toml")
	body := `
[llm]
api_key = "file-key"
model = "test/model"

[rollout]
enabled = true
percentage = 25
seed = "launch-2026"

[quota]
max_per_minute = 4
max_per_day = 40
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvAPIKey, "env-key")
	t.Setenv(config.EnvRolloutPercentage, "50")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, path)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected env to override file key, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "test/model" {
		t.Fatalf("unexpected model: %q", cfg.LLM.Model)
	}
	if !cfg.Rollout.Enabled || cfg.Rollout.Percentage != 50 {
		t.Fatalf("unexpected rollout: enabled=%t percentage=%d", cfg.Rollout.Enabled, cfg.Rollout.Percentage)
	}
	if cfg.Rollout.Seed != "launch-2026" {
		t.Fatalf("unexpected seed: %q", cfg.Rollout.Seed)
	}
	if cfg.Quota.MaxPerMinute != 4 || cfg.Quota.MaxPerDay != 40 {
		t.Fatalf("unexpected quota: %d/%d", cfg.Quota.MaxPerMinute, cfg.Quota.MaxPerDay)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "percentage out of range",
			body: "[rollout]\nenabled = true\npercentage = 150\nseed = \"s\"\n",
			want: "rollout.percentage",
		},
		{
			name: "enabled without seed",
			body: "[rollout]\nenabled = true\npercentage = 10\nseed = \"\"\n",
			want: "rollout.seed",
		},
		{
			name: "zero minute quota",
			body: "[quota]\nmax_per_minute = 0\n",
			want: "quota.max_per_minute",
		},
		{
			name: "bad timezone",
			body: "[quota]\ntimezone = \"Mars/Olympus\"\n",
			want: "quota.timezone",
		},
		{
			name: "zero batch size",
			body: "[generation]\nbatch_size = 0\n",
			want: "generation.batch_size",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireAPIKey(); err == nil {
		t.Fatal("expected error with no API key")
	} else if !strings.Contains(err.Error(), config.EnvAPIKey) {
		t.Fatalf("error %q does not mention %s", err, config.EnvAPIKey)
	}
	cfg.LLM.APIKey = "key"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQuotaLocation(t *testing.T) {
	cfg := config.Default()
	if got := cfg.QuotaLocation(); got.String() != "UTC" {
		t.Fatalf("unexpected default location: %v", got)
	}
	cfg.Quota.Timezone = "America/New_York"
	if got := cfg.QuotaLocation(); got.String() != "America/New_York" {
		t.Fatalf("unexpected location: %v", got)
	}
}

func TestCreateSampleParsesAndValidates(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Rollout.Enabled {
		t.Fatal("expected sample rollout to ship disabled")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected directory at %s", dir)
		}
	}
}

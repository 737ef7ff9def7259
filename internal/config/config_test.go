package config

import "testing"

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{
		DefaultModel: "default",
		Models: []ModelConfig{
			{Key: "default", Model: "claude-sonnet-4-6"},
			{Key: "fast", Model: "claude-haiku-4-6"},
		},
	}

	cfg.ApplyOverrides("fast")
	if cfg.DefaultModel != "fast" {
		t.Fatalf("DefaultModel=%q, want %q", cfg.DefaultModel, "fast")
	}
	if len(cfg.Models) != 2 {
		t.Fatalf("expected no new model entries for an existing key, got %d", len(cfg.Models))
	}

	cfg.ApplyOverrides("")
	if cfg.DefaultModel != "fast" {
		t.Fatalf("DefaultModel changed unexpectedly: %q", cfg.DefaultModel)
	}

	cfg.ApplyOverrides("claude-opus-4-6")
	if cfg.DefaultModel != "claude-opus-4-6" {
		t.Fatalf("DefaultModel=%q, want %q", cfg.DefaultModel, "claude-opus-4-6")
	}
	m := cfg.ModelByKey("claude-opus-4-6")
	if m == nil || m.Model != "claude-opus-4-6" {
		t.Fatalf("expected a seeded model entry for the override key, got %#v", m)
	}
}

func TestModelByKey_Missing(t *testing.T) {
	cfg := &Config{Models: []ModelConfig{{Key: "default", Model: "claude-sonnet-4-6"}}}
	if cfg.ModelByKey("nope") != nil {
		t.Fatalf("expected nil for an unknown key")
	}
}

func TestGetDefaultsIncludesTavilyKey(t *testing.T) {
	defaults := GetDefaults()
	if _, ok := defaults["tavily_api_key"]; !ok {
		t.Fatalf("expected tavily_api_key in defaults")
	}
}

package config

import (
	"strings"
	"testing"
	"time"
)

func TestFullModelName(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		want     string
	}{
		{"gemini maps to googleai", ProviderGemini, "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"ollama", ProviderOllama, "llama3.3", "ollama/llama3.3"},
		{"openai", ProviderOpenAI, "gpt-4o", "openai/gpt-4o"},
		{"already qualified", ProviderGemini, "ollama/mistral", "ollama/mistral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: tt.provider, ModelName: tt.model}
			if got := cfg.FullModelName(); got != tt.want {
				t.Errorf("FullModelName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRelayInterval(t *testing.T) {
	cfg := &Config{RelayIntervalSeconds: 5}
	if got := cfg.RelayInterval(); got != 5*time.Second {
		t.Errorf("RelayInterval() = %v", got)
	}
}

func TestMarshalJSON_MasksPassword(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "extremely_secret_password"

	out := cfg.String()
	if strings.Contains(out, "extremely_secret_password") {
		t.Errorf("password leaked: %s", out)
	}
	if !strings.Contains(out, maskedValue) {
		t.Errorf("no mask present: %s", out)
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "" {
		t.Errorf("maskSecret(empty) = %q", got)
	}
	// Short secrets are fully masked so no substring leaks.
	if got := maskSecret("abcd"); strings.Contains(got, "a") {
		t.Errorf("short secret leaked: %q", got)
	}
	got := maskSecret("my_long_secret_key_123")
	if !strings.HasPrefix(got, "my") || !strings.HasSuffix(got, "23") {
		t.Errorf("long secret mask = %q", got)
	}
	if strings.Contains(got, "long_secret") {
		t.Errorf("middle leaked: %q", got)
	}
}

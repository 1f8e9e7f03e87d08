package config

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_GET_ENV_VAR", "test_value")

	if got := GetEnv("TEST_GET_ENV_VAR", "default"); got != "test_value" {
		t.Errorf("GetEnv() = %v, want test_value", got)
	}
	if got := GetEnv("NON_EXISTING_VAR_STAFFDESK", "default_value"); got != "default_value" {
		t.Errorf("GetEnv() = %v, want default_value", got)
	}
}

func TestIsProductionLike(t *testing.T) {
	tests := []struct {
		envValue string
		want     bool
	}{
		{"development", false},
		{"staging", true},
		{"PRODUCTION", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("STAFFDESK_SERVER_ENVIRONMENT", tt.envValue)
			if got := IsProductionLike(); got != tt.want {
				t.Errorf("IsProductionLike() = %v, want %v", got, tt.want)
			}
		})
	}
}

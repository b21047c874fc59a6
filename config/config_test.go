package config

import (
	"testing"
	"time"
)

func TestLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "English"},
		{"hi", "Hindi"},
		{"ta", "Tamil"},
		{"xx", "xx"}, // unknown codes fall back to the code itself
	}
	for _, tt := range tests {
		if got := LanguageName(tt.code); got != tt.want {
			t.Errorf("LanguageName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestGetLanguagesEnv(t *testing.T) {
	t.Setenv("TEST_LANGS", "en, hi,ta")
	langs := getLanguagesEnv("TEST_LANGS", "en")
	if len(langs) != 3 {
		t.Fatalf("languages = %v, want 3 entries", langs)
	}
	if langs["hi"] != "Hindi" {
		t.Errorf(`langs["hi"] = %q, want Hindi`, langs["hi"])
	}

	t.Setenv("TEST_LANGS", "")
	langs = getLanguagesEnv("TEST_LANGS", "en,hi")
	if len(langs) != 2 || langs["en"] != "English" {
		t.Errorf("default languages = %v, want en and hi", langs)
	}
}

func TestTypedEnvGetters(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := getIntEnv("TEST_INT", 7); got != 42 {
		t.Errorf("getIntEnv() = %d, want 42", got)
	}
	if got := getIntEnv("TEST_INT_MISSING", 7); got != 7 {
		t.Errorf("getIntEnv() default = %d, want 7", got)
	}

	t.Setenv("TEST_DUR", "2s")
	if got := getDurationEnv("TEST_DUR", time.Second); got != 2*time.Second {
		t.Errorf("getDurationEnv() = %v, want 2s", got)
	}
	t.Setenv("TEST_DUR", "garbage")
	if got := getDurationEnv("TEST_DUR", time.Second); got != time.Second {
		t.Errorf("getDurationEnv() fallback = %v, want 1s", got)
	}

	t.Setenv("TEST_BOOL", "true")
	if !getBoolEnv("TEST_BOOL", false) {
		t.Error("getBoolEnv() = false, want true")
	}
}

func TestGetAMQPURL(t *testing.T) {
	r := RabbitMQConfig{Host: "mq", Port: "5672", User: "guest", Password: "guest"}
	want := "amqp://guest:guest@mq:5672/"
	if got := r.GetAMQPURL(); got != want {
		t.Errorf("GetAMQPURL() = %q, want %q", got, want)
	}
}

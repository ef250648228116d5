package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "barbershop.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != Default().Port || cfg.Timing != Default().Timing {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if cfg.IsDev {
		t.Error("IsDev set without ENV=dev")
	}
}

func TestLoadOverridesTiming(t *testing.T) {
	t.Setenv("ENV", "dev")
	path := writeConfig(t, `
port: "9090"
redis_address: localhost:6379
timing:
  cut_min: 10ms
  cut_max: 1.5s
  arrival_max: 250ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9090" || cfg.RedisAddr != "localhost:6379" || !cfg.IsDev {
		t.Errorf("cfg = %+v", cfg)
	}

	st := cfg.ShopTiming()
	if st.CutMin != 10*time.Millisecond || st.CutMax != 1500*time.Millisecond {
		t.Errorf("cut range = %s..%s", st.CutMin, st.CutMax)
	}
	if st.PayMax != time.Duration(Default().Timing.PayMax) {
		t.Errorf("unset pay_max changed to %s", st.PayMax)
	}
	if time.Duration(cfg.Timing.ArrivalMax) != 250*time.Millisecond {
		t.Errorf("arrival_max = %s", cfg.Timing.ArrivalMax)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad duration", "timing:\n  cut_min: soon\n", "line 2"},
		{"inverted cut range", "timing:\n  cut_min: 2s\n  cut_max: 1s\n", "cut_max"},
		{"inverted pay range", "timing:\n  pay_min: 2s\n  pay_max: 1s\n", "pay_max"},
		{"negative arrival", "timing:\n  arrival_max: -1s\n", "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

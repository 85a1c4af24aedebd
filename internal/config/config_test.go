package config

import (
	"log/slog"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/cigraph/internal/render"
)

func TestLoad(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name string
		env  map[string]string
		want Config
	}{
		{
			name: "defaults",
			want: Config{LogLevel: slog.LevelInfo, MaxPixels: render.DefaultMaxPixels, Workers: procs, AutoOrient: true},
		},
		{
			name: "all set",
			env: map[string]string{
				EnvLogLevel:   "debug",
				EnvMaxPixels:  "1000",
				EnvWorkers:    "3",
				EnvAutoOrient: "false",
			},
			want: Config{LogLevel: slog.LevelDebug, MaxPixels: 1000, Workers: 3, AutoOrient: false},
		},
		{
			name: "mixed case level",
			env:  map[string]string{EnvLogLevel: "Warn"},
			want: Config{LogLevel: slog.LevelWarn, MaxPixels: render.DefaultMaxPixels, Workers: procs, AutoOrient: true},
		},
		{
			name: "empty values keep defaults",
			env:  map[string]string{EnvLogLevel: "", EnvWorkers: ""},
			want: Config{LogLevel: slog.LevelInfo, MaxPixels: render.DefaultMaxPixels, Workers: procs, AutoOrient: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{EnvLogLevel, EnvMaxPixels, EnvWorkers, EnvAutoOrient} {
				t.Setenv(k, tt.env[k])
			}
			got, err := Load()
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvLogLevel, "loud"},
		{EnvMaxPixels, "lots"},
		{EnvMaxPixels, "0"},
		{EnvWorkers, "-2"},
		{EnvWorkers, "1.5"},
		{EnvAutoOrient, "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestRenderOptions(t *testing.T) {
	cfg := Config{MaxPixels: 42, Workers: 2}
	if got := cfg.RenderOptions(); got != (render.Options{MaxPixels: 42, Workers: 2}) {
		t.Errorf("RenderOptions() = %+v", got)
	}
}

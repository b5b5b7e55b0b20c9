package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/rogerboy38/amb-print-app/internal/config"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	// Save original stdout
	originalStdout := os.Stdout

	// Create a pipe to capture output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}

	// Redirect stdout to the pipe
	os.Stdout = w

	// Set version variables for testing
	oldVersion := version
	oldBuildTime := buildTime
	oldGitCommit := gitCommit

	version = testVersion
	buildTime = "2026-08-01_10:30:00"
	gitCommit = "abc123"

	defer func() {
		// Restore original values
		version = oldVersion
		buildTime = oldBuildTime
		gitCommit = oldGitCommit
		os.Stdout = originalStdout
	}()

	// Call printVersion in a goroutine
	done := make(chan struct{})
	go func() {
		defer close(done)
		printVersion()
		w.Close()
	}()

	// Read the output
	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done

	output := buf.String()

	// Verify output contains expected information
	expectedStrings := []string{
		"AMB Print",
		"Version: " + testVersion,
		"Build Time: 2026-08-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestSetupLogging(t *testing.T) {
	originalDefault := slog.Default()
	defer slog.SetDefault(originalDefault)

	tests := []struct {
		name      string
		logLevel  string
		wantDebug bool
		wantInfo  bool
	}{
		{
			name:      "debug level",
			logLevel:  "debug",
			wantDebug: true,
			wantInfo:  true,
		},
		{
			name:      "info level",
			logLevel:  "info",
			wantDebug: false,
			wantInfo:  true,
		},
		{
			name:      "warn level",
			logLevel:  "warn",
			wantDebug: false,
			wantInfo:  false,
		},
		{
			name:      "error level",
			logLevel:  "error",
			wantDebug: false,
			wantInfo:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := setupLogging(&config.Config{LogLevel: tt.logLevel})

			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("setupLogging(%s): debug enabled = %v, want %v", tt.logLevel, got, tt.wantDebug)
			}
			if got := logger.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("setupLogging(%s): info enabled = %v, want %v", tt.logLevel, got, tt.wantInfo)
			}
		})
	}
}

func TestStageName(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{
			name: "explicit name wins",
			cfg:  &config.Config{Name: "coa-v2", Input: "docs/coa_2024.pdf"},
			want: "coa-v2",
		},
		{
			name: "derived from input basename",
			cfg:  &config.Config{Input: "docs/coa_2024.pdf"},
			want: "coa_2024",
		},
		{
			name: "input without extension",
			cfg:  &config.Config{Input: "coa"},
			want: "coa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &app{cfg: tt.cfg}
			if got := a.stageName(); got != tt.want {
				t.Errorf("stageName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJobFromConfig(t *testing.T) {
	a := &app{cfg: &config.Config{
		Input:         "coa.pdf",
		DocType:       "COA AMB",
		Name:          "coa",
		OverridesPath: "coa.overrides.json",
		Upload:        true,
	}}

	job := a.job()

	if job.ID == "" {
		t.Error("job() should assign an ID")
	}
	if job.Source != "coa.pdf" {
		t.Errorf("job() Source = %v, want %v", job.Source, "coa.pdf")
	}
	if job.DocType != "COA AMB" {
		t.Errorf("job() DocType = %v, want %v", job.DocType, "COA AMB")
	}
	if job.OverridesPath != "coa.overrides.json" {
		t.Errorf("job() OverridesPath = %v, want %v", job.OverridesPath, "coa.overrides.json")
	}
	if !job.Upload {
		t.Error("job() Upload should carry through")
	}

	// IDs must be unique per job
	if a.job().ID == job.ID {
		t.Error("job() should assign a fresh ID per call")
	}
}

func TestVersionFlagDetection(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		hasVersion bool
	}{
		{
			name:       "no version flag",
			args:       []string{"program"},
			hasVersion: false,
		},
		{
			name:       "-version flag",
			args:       []string{"program", "-version"},
			hasVersion: true,
		},
		{
			name:       "--version flag",
			args:       []string{"program", "--version"},
			hasVersion: true,
		},
		{
			name:       "-v flag",
			args:       []string{"program", "-v"},
			hasVersion: true,
		},
		{
			name:       "version flag with other args",
			args:       []string{"program", "--mode=run", "-version", "--input=coa.pdf"},
			hasVersion: true,
		},
		{
			name:       "similar but not version flag",
			args:       []string{"program", "-verbose", "-versions"},
			hasVersion: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := false
			for _, arg := range tt.args[1:] { // Skip program name
				if arg == "-version" || arg == "--version" || arg == "-v" {
					found = true
					break
				}
			}

			if found != tt.hasVersion {
				t.Errorf("Version flag detection for %v: got %v, want %v", tt.args, found, tt.hasVersion)
			}
		})
	}
}

package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "[░░░░░░░░░░]"},
		{50, "[█████░░░░░]"},
		{100, "[██████████]"},
		{140, "[██████████]"},
		{-5, "[░░░░░░░░░░]"},
	}
	for _, tt := range tests {
		if got := renderProgressBar(tt.score, 10); got != tt.want {
			t.Errorf("renderProgressBar(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestStars(t *testing.T) {
	if got := stars(0); got != "☆☆☆" {
		t.Errorf("stars(0) = %q", got)
	}
	if got := stars(2); got != "★★☆" {
		t.Errorf("stars(2) = %q", got)
	}
}

func TestParseSubmissionArgs(t *testing.T) {
	file := filepath.Join(t.TempDir(), "solution.py")
	if err := os.WriteFile(file, []byte("print(1)\n"), 0644); err != nil {
		t.Fatal(err)
	}
	const user = "6f1c2a9e-0d7b-4b39-9b6a-5a7f1e0c3d21"

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"positional only", []string{user, "two-sum", file}, false},
		{"with flags", []string{"-purpose", "optimal", "-json", user, "two-sum", file}, false},
		{"missing file arg", []string{user, "two-sum"}, true},
		{"bad user id", []string{"bob", "two-sum", file}, true},
		{"unreadable file", []string{user, "two-sum", file + ".missing"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("grade", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			got, err := parseSubmissionArgs(fs, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSubmissionArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.problemID != "two-sum" || got.code != "print(1)\n" {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	if parseLogLevel("debug").String() != "DEBUG" {
		t.Error("debug")
	}
	if parseLogLevel("info").String() != "WARN" {
		t.Error("info should stay quiet on the CLI")
	}
}

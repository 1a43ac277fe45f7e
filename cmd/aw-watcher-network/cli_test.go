package main

import (
	"bytes"
	"errors"
	"flag"
	"strings"
	"testing"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		command string
		port    uint16
		testing bool
	}{
		{name: "defaults", args: nil, command: commandRun, port: 5600},
		{name: "port", args: []string{"--port", "5601"}, command: commandRun, port: 5601},
		{name: "testing", args: []string{"--testing"}, command: commandRun, port: 5699, testing: true},
		{name: "testing wins over port", args: []string{"--port", "1234", "--testing"}, command: commandRun, port: 5699, testing: true},
		{name: "locate", args: []string{"locate"}, command: commandLocate, port: 5600},
		{name: "serve stub", args: []string{"serve-stub", "--port", "5700"}, command: commandServeStub, port: 5700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(tt.args, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.command != tt.command || opts.port != tt.port || opts.testing != tt.testing {
				t.Fatalf("unexpected options %+v", opts)
			}
		})
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := [][]string{
		{"--port"},
		{"--port", "notaport"},
		{"--port", "70000"},
		{"--port", "-1"},
		{"--bogus"},
		{"frobnicate"},
		{"--testing", "extra"},
	}
	for _, args := range tests {
		var out bytes.Buffer
		if _, err := parseArgs(args, &out); err == nil {
			t.Fatalf("expected error for %v", args)
		}
		if out.Len() != 0 {
			t.Fatalf("expected no output for %v, got %q", args, out.String())
		}
	}
}

func TestParseArgsHelp(t *testing.T) {
	var out bytes.Buffer
	_, err := parseArgs([]string{"--help"}, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "Usage: aw-watcher-network") {
		t.Fatalf("expected usage output, got %q", out.String())
	}
}

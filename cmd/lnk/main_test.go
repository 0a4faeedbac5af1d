package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAttrs(t *testing.T) {
	got, err := parseAttrs([]string{"source=cli", " env =prod=1"})
	if err != nil {
		t.Fatalf("parseAttrs: %v", err)
	}
	if got["source"] != "cli" || got["env"] != "prod=1" {
		t.Fatalf("unexpected attrs %#v", got)
	}
	if _, err := parseAttrs([]string{"novalue"}); err == nil {
		t.Fatalf("expected error for attribute without '='")
	}
	if got, _ := parseAttrs(nil); got != nil {
		t.Fatalf("expected nil map, got %#v", got)
	}
}

func TestListCommandUsesConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connectors.json")
	content := `{"apis":{"tracker":{"wrapper":"api","base_url":"https://example.com"}}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("LNK_LOG_LEVEL", "error")

	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"list", "--config", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "apis/tracker") {
		t.Fatalf("list output missing entry: %q", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "lnk v"+version) {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestSendAttrFlagKeepsCommas(t *testing.T) {
	send, _, err := newRootCmd().Find([]string{"send"})
	if err != nil {
		t.Fatalf("find send: %v", err)
	}
	if err := send.ParseFlags([]string{"--attr", "note=a,b", "-a", "source=cli"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	raw, err := send.Flags().GetStringArray("attr")
	if err != nil {
		t.Fatalf("attr flag: %v", err)
	}
	got, err := parseAttrs(raw)
	if err != nil {
		t.Fatalf("parseAttrs: %v", err)
	}
	if len(got) != 2 || got["note"] != "a,b" || got["source"] != "cli" {
		t.Fatalf("unexpected attrs %#v", got)
	}
}

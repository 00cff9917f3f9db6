package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestHandleRootFlagsVersion(t *testing.T) {
	var out bytes.Buffer
	oldStdout := rootStdout
	rootStdout = &out
	defer func() { rootStdout = oldStdout }()

	handled, code := handleRootFlags([]string{"--version"})
	if !handled {
		t.Fatal("handleRootFlags(--version) handled = false, want true")
	}
	if code != 0 {
		t.Fatalf("handleRootFlags(--version) code = %d, want 0", code)
	}
	if !strings.HasPrefix(out.String(), "hostbridge ") {
		t.Fatalf("version output = %q, want hostbridge prefix", out.String())
	}
}

func TestHandleRootFlagsHelp(t *testing.T) {
	var out bytes.Buffer
	oldStdout := rootStdout
	rootStdout = &out
	defer func() { rootStdout = oldStdout }()

	handled, code := handleRootFlags([]string{"-h"})
	if !handled || code != 0 {
		t.Fatalf("handleRootFlags(-h) = (%v, %d), want (true, 0)", handled, code)
	}
	if !strings.Contains(out.String(), "hostbridge call") {
		t.Fatalf("help output missing call usage: %q", out.String())
	}
}

func TestHandleRootFlagsPassThrough(t *testing.T) {
	handled, _ := handleRootFlags([]string{"status"})
	if handled {
		t.Fatal("handleRootFlags(status) handled = true, want false")
	}
	handled, _ = handleRootFlags([]string{"--version", "extra"})
	if handled {
		t.Fatal("handleRootFlags with extra args handled = true, want false")
	}
}

func TestParseCallArgs(t *testing.T) {
	parsed, err := parseCallArgs([]string{"object", "find", `{"pattern":"Enemy*"}`})
	if err != nil {
		t.Fatalf("parseCallArgs() error = %v", err)
	}
	if parsed.category != "object" || parsed.operation != "find" {
		t.Fatalf("parseCallArgs() = %q %q, want object find", parsed.category, parsed.operation)
	}
	if string(parsed.payload) != `{"pattern":"Enemy*"}` {
		t.Fatalf("parseCallArgs() payload = %s", parsed.payload)
	}
}

func TestParseCallArgsCacheFlag(t *testing.T) {
	parsed, err := parseCallArgs([]string{"object", "find", "--cache", "30s"})
	if err != nil {
		t.Fatalf("parseCallArgs() error = %v", err)
	}
	if parsed.cacheTTL == nil || *parsed.cacheTTL != 30*time.Second {
		t.Fatalf("parseCallArgs() cacheTTL = %v, want 30s", parsed.cacheTTL)
	}

	parsed, err = parseCallArgs([]string{"object", "find", "--cache=1m"})
	if err != nil {
		t.Fatalf("parseCallArgs(--cache=1m) error = %v", err)
	}
	if parsed.cacheTTL == nil || *parsed.cacheTTL != time.Minute {
		t.Fatalf("parseCallArgs() cacheTTL = %v, want 1m", parsed.cacheTTL)
	}
}

func TestParseCallArgsErrors(t *testing.T) {
	cases := [][]string{
		{},
		{"object"},
		{"object", "find", "not-json"},
		{"object", "find", `{"a":1}`, `{"b":2}`},
		{"object", "find", "--cache"},
		{"object", "find", "--cache", "soon"},
		{"object", "find", "--bogus"},
	}
	for _, args := range cases {
		if _, err := parseCallArgs(args); err == nil {
			t.Fatalf("parseCallArgs(%v) error = nil, want non-nil", args)
		}
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var errOut bytes.Buffer
	oldStderr := rootStderr
	rootStderr = &errOut
	defer func() { rootStderr = oldStderr }()

	code := Run([]string{"dance"})
	if code == 0 {
		t.Fatal("Run(dance) code = 0, want non-zero")
	}
	if !strings.Contains(errOut.String(), "unknown command") {
		t.Fatalf("stderr = %q, want unknown command", errOut.String())
	}
}

func TestRunConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	oldStdout := rootStdout
	rootStdout = &out
	defer func() { rootStdout = oldStdout }()

	code := runConfig([]string{"path"})
	if code != 0 {
		t.Fatalf("runConfig(path) code = %d, want 0", code)
	}
	if !strings.HasSuffix(strings.TrimSpace(out.String()), "config.toml") {
		t.Fatalf("config path output = %q", out.String())
	}
}

func TestRunTokenSetAndShow(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HOSTBRIDGE_TOKEN", "")

	var out bytes.Buffer
	oldStdout := rootStdout
	rootStdout = &out
	defer func() { rootStdout = oldStdout }()

	if code := runToken([]string{"set", "abcd0123456789wxyz"}); code != 0 {
		t.Fatalf("token set code = %d, want 0", code)
	}
	if strings.Contains(out.String(), "abcd0123456789wxyz") {
		t.Fatalf("token set printed the raw token: %q", out.String())
	}

	out.Reset()
	if code := runToken([]string{"show"}); code != 0 {
		t.Fatalf("token show code = %d, want 0", code)
	}
	got := out.String()
	if strings.Contains(got, "abcd0123456789wxyz") {
		t.Fatalf("token show printed the raw token: %q", got)
	}
	if !strings.Contains(got, "abcd") || !strings.Contains(got, "wxyz") {
		t.Fatalf("token show output = %q, want masked token", got)
	}
}

func TestRunTokenUsage(t *testing.T) {
	var errOut bytes.Buffer
	oldStderr := rootStderr
	rootStderr = &errOut
	defer func() { rootStderr = oldStderr }()

	if code := runToken(nil); code == 0 {
		t.Fatal("runToken() code = 0, want usage error")
	}
	if code := runToken([]string{"set"}); code == 0 {
		t.Fatal("runToken(set) code = 0, want usage error")
	}
	if code := runToken([]string{"rotate"}); code == 0 {
		t.Fatal("runToken(rotate) code = 0, want usage error")
	}
}

package main

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/vango-dev/sso/internal/errors"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRunCommand(t *testing.T) {
	out, _, err := execute(t, "run", "testdata/pass", "--metrics")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}

	for _, want := range []string{
		"counter #2 update count += 2 ok",
		"counter: 4 steps passed",
		`sso_writes_total{key="count",store="counter"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandQuiet(t *testing.T) {
	out, _, err := execute(t, "run", "--quiet", "testdata/pass/counter.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "#1") {
		t.Errorf("quiet run printed the trace:\n%s", out)
	}
}

func TestRunCommandFailure(t *testing.T) {
	out, _, err := execute(t, "run", "testdata/fail.json")

	var se *errors.Error
	if !stderrors.As(err, &se) || se.Code != "S102" {
		t.Fatalf("run error = %v, want S102", err)
	}
	if !strings.Contains(se.Detail, "1 of 1 scenarios failed") {
		t.Errorf("detail = %q", se.Detail)
	}
	if !strings.Contains(out, "step 2 (get count): expected 5, got 1") {
		t.Errorf("output missing failure:\n%s", out)
	}
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"run", "testdata/nope.yaml"}, "S100"},
		{"no args", []string{"run"}, "requires at least 1 arg"},
		{"bad log format", []string{"run", "--log-format", "xml", "testdata/fail.json"}, "invalid --log-format"},
		{"bad log level", []string{"run", "--log-level", "loud", "testdata/fail.json"}, "invalid --log-level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestCodedErrors(t *testing.T) {
	if coded(nil) != nil {
		t.Error("coded(nil) should be nil")
	}

	_, _, err := execute(t, "run")
	se := coded(err)
	if se.Code != "S103" {
		t.Fatalf("code = %q, want S103", se.Code)
	}
	if !strings.Contains(se.Detail, "requires at least 1 arg") {
		t.Errorf("detail = %q", se.Detail)
	}
	if !stderrors.Is(se, err) {
		t.Error("coded error should wrap the command error")
	}

	_, _, err = execute(t, "run", "testdata/nope.yaml")
	se = coded(err)
	if se.Code != "S100" {
		t.Errorf("coded error = %v, want S100 kept", se)
	}

	errors.DisableColors()
	defer errors.EnableColors()
	var buf bytes.Buffer
	errors.Fprint(&buf, coded(stderrors.New("unknown flag: --nope")))
	if !strings.Contains(buf.String(), "S103: Command failed") || !strings.Contains(buf.String(), "unknown flag: --nope") {
		t.Errorf("formatted error:\n%s", buf.String())
	}
}

func TestRunCommandJSONLogs(t *testing.T) {
	_, errOut, err := execute(t, "run", "--log-format", "json", "--log-level", "info", "testdata/pass")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, `"msg":"scenario finished"`) {
		t.Errorf("expected JSON log lines on stderr, got:\n%s", errOut)
	}
}

func TestErrorsCommand(t *testing.T) {
	out, _, err := execute(t, "errors")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "S004") || !strings.Contains(out, "Method cannot be updated") {
		t.Errorf("errors listing incomplete:\n%s", out)
	}

	out, _, err = execute(t, "--no-color", "errors", "s004")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "S004: Method cannot be updated") {
		t.Errorf("errors S004 output:\n%s", out)
	}

	out, _, err = execute(t, "errors", "S004", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"code"`) {
		t.Errorf("errors --json output:\n%s", out)
	}

	if _, _, err := execute(t, "errors", "X999"); err == nil {
		t.Error("expected error for unknown code")
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version --short = %q, want %q", out, version)
	}
}

package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("server.listen_address", "must not be empty")
	if !strings.Contains(err.Error(), "server.listen_address") {
		t.Errorf("field missing from message: %s", err.Error())
	}

	err = NewConfigError("", "file not found")
	if strings.Contains(err.Error(), "in :") {
		t.Errorf("empty field should be omitted: %s", err.Error())
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	cause := errors.New("listener busy")
	err := NewCommandError("run", cause)

	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
	if !strings.Contains(err.Error(), "run") {
		t.Errorf("command missing from message: %s", err.Error())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewFormatter(FormatJSON)

	data := map[string]interface{}{"id": 7, "name": "svc"}
	if err := formatter.FormatTo(&buf, data); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), `"name": "svc"`) {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestTextFormatterDefault(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewFormatter("unknown")

	if err := formatter.FormatTo(&buf, "hello"); err != nil {
		t.Fatalf("format: %v", err)
	}
	if buf.String() != "hello\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

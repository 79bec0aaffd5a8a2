package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestFormatter_PlainOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewFormatter(WithWriter(buf), WithColor(false))

	f.Header("Usage")
	f.Item("Provider", "openai")
	f.Success("done")

	got := buf.String()
	if !strings.Contains(got, "Usage\n") {
		t.Errorf("missing header in %q", got)
	}
	if !strings.Contains(got, "  Provider: openai\n") {
		t.Errorf("missing item in %q", got)
	}
	if !strings.Contains(got, "✓ done") {
		t.Errorf("missing success marker in %q", got)
	}
	if strings.Contains(got, "\033[") {
		t.Errorf("color codes present with color disabled: %q", got)
	}
}

func TestFormatter_Colorize(t *testing.T) {
	f := NewFormatter(WithColor(true))
	colored := f.Colorize("hi", ColorGreen)
	if colored != string(ColorGreen)+"hi"+string(ColorReset) {
		t.Errorf("Colorize() = %q", colored)
	}

	f = NewFormatter(WithColor(false))
	if f.Colorize("hi", ColorGreen) != "hi" {
		t.Error("Colorize() must pass through with color disabled")
	}
}

func TestFormatter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewFormatter(WithWriter(buf), WithColor(false))

	err := f.Table(TableData{
		Columns: []TableColumn{
			{Header: "MODEL"},
			{Header: "TOKENS", Align: AlignRight},
		},
		Rows: [][]string{
			{"gpt-4o", "120"},
			{"command-r", "45"},
		},
	})
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("len(lines) = %d, want 4", len(lines))
	}
	if !strings.HasPrefix(lines[0], "MODEL") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasSuffix(lines[2], "120") {
		t.Errorf("right-aligned cell = %q", lines[2])
	}
}

func TestFormatter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewFormatter(WithWriter(buf), WithFormat(FormatJSON))

	if err := f.JSON(map[string]int{"total": 42}); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var decoded map[string]int
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if decoded["total"] != 42 {
		t.Errorf("total = %d, want 42", decoded["total"])
	}
}

func TestPadCell_RuneWidth(t *testing.T) {
	// Width is measured in runes, not bytes, so marker cells still align.
	got := padCell("✓", 3, AlignLeft)
	if got != "✓  " {
		t.Errorf("padCell() = %q", got)
	}
	if padCell("45", 6, AlignRight) != "    45" {
		t.Errorf("right pad = %q", padCell("45", 6, AlignRight))
	}
	if padCell("too wide", 3, AlignLeft) != "too wide" {
		t.Error("padCell() must not truncate")
	}
}

func TestSpinner_StartStop(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("waiting", WithSpinnerWriter(buf), WithSpinnerColor(false))

	s.Start()
	s.Stop()
	// Idempotent.
	s.Stop()

	if !strings.HasSuffix(buf.String(), "\r") {
		t.Errorf("Stop() must clear the line, got %q", buf.String())
	}
}

func TestDeltaPrinter(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewDeltaPrinter(WithDeltaWriter(buf))

	p.Delta("Hello")
	p.Delta(" world")
	p.Finish()

	if buf.String() != "Hello world\n" {
		t.Errorf("output = %q, want %q", buf.String(), "Hello world\n")
	}
	if !p.Wrote() {
		t.Error("Wrote() = false after deltas")
	}
}

func TestDeltaPrinter_NoOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewDeltaPrinter(WithDeltaWriter(buf))

	p.Finish()
	if buf.Len() != 0 {
		t.Errorf("Finish() wrote %q with no deltas", buf.String())
	}
}

func TestDeltaPrinter_NoDoubleNewline(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewDeltaPrinter(WithDeltaWriter(buf))

	p.Delta("line\n")
	p.Finish()
	if buf.String() != "line\n" {
		t.Errorf("output = %q, trailing newline must not be duplicated", buf.String())
	}
}

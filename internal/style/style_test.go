package style

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestStyleVariables(t *testing.T) {
	tests := []struct {
		name   string
		render func(...string) string
	}{
		{"Success", Success.Render},
		{"Warning", Warning.Render},
		{"Error", Error.Render},
		{"Info", Info.Render},
		{"Dim", Dim.Render},
		{"Bold", Bold.Render},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.render("test"); result == "" {
				t.Errorf("Style %s.Render() should not return empty string", tt.name)
			}
		})
	}
}

func TestPrefixVariables(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"SuccessPrefix", SuccessPrefix},
		{"WarningPrefix", WarningPrefix},
		{"ErrorPrefix", ErrorPrefix},
		{"ArrowPrefix", ArrowPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prefix == "" {
				t.Errorf("Prefix variable %s should not be empty", tt.name)
			}
		})
	}
}

func TestFprintWarning(t *testing.T) {
	var buf bytes.Buffer
	FprintWarning(&buf, "No matrix file found at %s", "dvc-matrix.yaml")

	if !strings.Contains(buf.String(), "No matrix file found at dvc-matrix.yaml") {
		t.Errorf("FprintWarning() output = %q, missing message", buf.String())
	}
	if !strings.Contains(buf.String(), "Warning:") {
		t.Errorf("FprintWarning() output = %q, missing label", buf.String())
	}
}

func TestMultipleFprintWarning(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		FprintWarning(&buf, "warning %d", i)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Errorf("Expected 3 lines of output, got %d", n)
	}
}

func TestFprintSuccess(t *testing.T) {
	var buf bytes.Buffer
	FprintSuccess(&buf, "wrote %d stages", 4)
	if !strings.Contains(buf.String(), "wrote 4 stages") {
		t.Errorf("FprintSuccess() output = %q", buf.String())
	}
}

func TestTable_AutoWidth(t *testing.T) {
	tbl := NewTable(
		Column{Name: "STAGE"},
		Column{Name: "STATUS"},
	).SetIndent("")
	tbl.AddRow("train@10", "ok")
	tbl.AddRow("t", "not run")

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), tbl.Render())
	}
	// "train@10" is the widest STAGE cell, so STATUS starts at column 9.
	if idx := strings.Index(lines[0], "STATUS"); idx != 9 {
		t.Errorf("STATUS header at %d, want 9: %q", idx, lines[0])
	}
	if !strings.HasPrefix(lines[3], "t        not run") {
		t.Errorf("row = %q", lines[3])
	}
}

func TestTable_Truncate(t *testing.T) {
	tbl := NewTable(Column{Name: "CMD", MaxWidth: 8}).SetIndent("").SetHeaderSeparator(false)
	tbl.AddRow("python train.py --size 10")

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	if got := lines[1]; got != "pytho..." {
		t.Errorf("truncated cell = %q, want %q", got, "pytho...")
	}
}

func TestTable_AddRowPads(t *testing.T) {
	tbl := NewTable(Column{Name: "A"}, Column{Name: "B"})
	tbl.AddRow("x")
	tbl.AddRow("1", "2", "3")
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	if out := tbl.Render(); strings.Contains(out, "3") {
		t.Errorf("extra value rendered: %q", out)
	}
}

func TestTable_CellStyler(t *testing.T) {
	var calls int
	tbl := NewTable(Column{Name: "STATUS"}).SetCellStyler(func(row, col int, value string) (lipgloss.Style, bool) {
		calls++
		return Dim, value == "not run"
	})
	tbl.AddRow("ok").AddRow("not run")
	_ = tbl.Render()
	if calls != 2 {
		t.Errorf("styler called %d times, want 2", calls)
	}
}

func TestTable_Empty(t *testing.T) {
	if got := NewTable().Render(); got != "" {
		t.Errorf("Render() with no columns = %q, want empty", got)
	}
}

package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mrwolf/moodcast/internal/mood"
	"github.com/mrwolf/moodcast/internal/tracking"
)

func testSnapshot() *tracking.Snapshot {
	start := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	social := map[string]tracking.Cell{}
	for _, day := range mood.Weekdays {
		social[day.String()] = tracking.Cell{Predicted: "happy", Confidence: 0.9, Activity: "board games"}
	}
	social["Friday"] = tracking.Cell{Predicted: "tense", Confidence: 0.456, Activity: `<script>alert(1)</script>pub | quiz`}
	return &tracking.Snapshot{
		ID:        "snap-1",
		User:      "ana",
		Year:      2026,
		Week:      8,
		WeekStart: start,
		WeekEnd:   start.AddDate(0, 0, 7).Add(-time.Second),
		Predictions: map[string]map[string]tracking.Cell{
			"social": social,
			"sleep":  {"Monday": {Predicted: mood.NoDataAvailable}},
		},
	}
}

func TestStoreWrite(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewStore(tmpDir)

	relPath, err := store.Write(testSnapshot(), time.Date(2026, 2, 16, 0, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("writing report: %v", err)
	}
	if relPath != filepath.Join("Reports", "ana", "2026-W08.md") {
		t.Errorf("unexpected path %s", relPath)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, relPath))
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}

	fm, body, err := ParseFrontMatter(content)
	if err != nil {
		t.Fatalf("parsing front matter: %v", err)
	}
	if fm.User != "ana" || fm.Week != "2026-W08" || fm.ID == "" {
		t.Errorf("unexpected front matter: %+v", fm)
	}
	if fm.Generated != "2026-02-16T00:30:00Z" {
		t.Errorf("unexpected generated time %q", fm.Generated)
	}

	str := string(body)
	for _, want := range []string{
		"## Social",
		"| Monday | happy | 90% | board games |",
		"| Monday | No data available | - | - |",
		`pub \| quiz`,
	} {
		if !strings.Contains(str, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(str, "<script>") {
		t.Error("expected markup stripped from activity labels")
	}

	// Rewriting leaves no temp files behind
	if _, err := store.Write(testSnapshot(), time.Now()); err != nil {
		t.Fatalf("rewriting report: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(tmpDir, "Reports", "ana"))
	if len(entries) != 1 {
		t.Errorf("expected one file in report dir, got %d", len(entries))
	}
}

func TestStoreReadAndHTML(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Write(testSnapshot(), time.Now()); err != nil {
		t.Fatalf("writing report: %v", err)
	}

	page, err := store.HTML("ana", "2026-W08")
	if err != nil {
		t.Fatalf("rendering report: %v", err)
	}
	str := string(page)
	if !strings.Contains(str, "<table>") {
		t.Error("expected markdown table rendered as HTML")
	}
	if !strings.Contains(str, "<title>ana 2026-W08</title>") {
		t.Error("expected title from front matter")
	}
	if strings.Contains(str, "<script>") {
		t.Error("expected sanitized output")
	}
	if strings.Contains(str, "generated:") {
		t.Error("expected front matter dropped from body")
	}

	if _, err := store.Read("ana", "2026-W09"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReportPathValidation(t *testing.T) {
	tests := []struct {
		user, week string
		valid      bool
	}{
		{"ana", "2026-W08", true},
		{"../etc", "2026-W08", false},
		{"..", "2026-W08", false},
		{"", "2026-W08", false},
		{"ana", "2026-8", false},
		{"ana", "../../2026-W08", false},
	}
	for _, tt := range tests {
		_, err := reportPath(tt.user, tt.week)
		if (err == nil) != tt.valid {
			t.Errorf("reportPath(%q, %q) error = %v, want valid=%v", tt.user, tt.week, err, tt.valid)
		}
	}
}

func TestWriteFileAtomicCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "report.md")
	if err := WriteFileAtomic(path, []byte("hello")); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "hello" {
		t.Errorf("expected hello, got %q (%v)", got, err)
	}
}

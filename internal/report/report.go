package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mrwolf/moodcast/internal/mood"
	"github.com/mrwolf/moodcast/internal/tracking"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no report exists for a user and week
var ErrNotFound = errors.New("report not found")

var (
	weekPattern = regexp.MustCompile(`^\d{4}-W\d{2}$`)
	labelPolicy = bluemonday.StrictPolicy()
)

// FrontMatter is the YAML header of a report file
type FrontMatter struct {
	ID        string `yaml:"id"`
	User      string `yaml:"user"`
	Week      string `yaml:"week"`
	Generated string `yaml:"generated"`
}

// Store keeps weekly forecast reports under <base>/Reports/<user>/<year>-W<week>.md
type Store struct {
	basePath string
}

func NewStore(basePath string) *Store {
	return &Store{basePath: basePath}
}

// WeekKey formats an ISO week as used in report file names
func WeekKey(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write renders the snapshot as markdown and stores it atomically. It returns
// the path relative to the store root.
func (s *Store) Write(snap *tracking.Snapshot, generated time.Time) (string, error) {
	relPath, err := reportPath(snap.User, WeekKey(snap.Year, snap.Week))
	if err != nil {
		return "", err
	}

	content, err := Build(snap, generated)
	if err != nil {
		return "", err
	}

	if err := WriteFileAtomic(filepath.Join(s.basePath, relPath), content); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return relPath, nil
}

// Read returns the markdown of a stored report
func (s *Store) Read(user, week string) ([]byte, error) {
	relPath, err := reportPath(user, week)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(filepath.Join(s.basePath, relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading report: %w", err)
	}
	return content, nil
}

func reportPath(user, week string) (string, error) {
	if user == "" || strings.ContainsAny(user, `/\`) || user == "." || user == ".." {
		return "", fmt.Errorf("invalid user %q", user)
	}
	if !weekPattern.MatchString(week) {
		return "", fmt.Errorf("invalid week %q, expected YYYY-Www", week)
	}
	return filepath.Join("Reports", user, week+".md"), nil
}

// Build renders the report markdown of a snapshot
func Build(snap *tracking.Snapshot, generated time.Time) ([]byte, error) {
	week := WeekKey(snap.Year, snap.Week)
	header, err := yaml.Marshal(FrontMatter{
		ID:        uuid.NewString(),
		User:      snap.User,
		Week:      week,
		Generated: generated.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# Mood forecast for %s, %s\n\n", cell(snap.User), week)
	fmt.Fprintf(&b, "Week of %s to %s.\n",
		snap.WeekStart.Format("January 02, 2006"), snap.WeekEnd.Format("January 02, 2006"))

	for _, category := range mood.Categories {
		days := snap.Predictions[category.String()]
		fmt.Fprintf(&b, "\n## %s\n\n", titleCase(category.String()))
		b.WriteString("| Weekday | Predicted | Confidence | Activity |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, day := range mood.Weekdays {
			c, ok := days[day.String()]
			if !ok || c.Sentinel() {
				fmt.Fprintf(&b, "| %s | %s | - | - |\n", day, mood.NoDataAvailable)
				continue
			}
			fmt.Fprintf(&b, "| %s | %s | %.0f%% | %s |\n", day, cell(c.Predicted), c.Confidence*100, cell(c.Activity))
		}
	}
	return b.Bytes(), nil
}

// ParseFrontMatter reads the YAML header of report markdown
func ParseFrontMatter(content []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	rest, ok := bytes.CutPrefix(content, []byte("---\n"))
	if !ok {
		return fm, content, errors.New("missing front matter")
	}
	header, body, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		return fm, content, errors.New("unterminated front matter")
	}
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return fm, content, fmt.Errorf("decoding front matter: %w", err)
	}
	return fm, bytes.TrimLeft(body, "\n"), nil
}

// cell strips markup from free text and keeps it inside one table cell
func cell(s string) string {
	s = labelPolicy.Sanitize(s)
	s = strings.NewReplacer("|", `\|`, "\n", " ", "\r", " ").Replace(s)
	if s == "" {
		return mood.UnknownActivity
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

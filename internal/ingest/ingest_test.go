package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fennar/vokab/internal/domain"
)

// fakeIntaker records intake calls and flags "dupe" texts as matched.
type fakeIntaker struct {
	texts []string
}

func (f *fakeIntaker) IntakePhrase(text string) (domain.Phrase, bool, error) {
	if text == "kaputt" {
		return domain.Phrase{}, false, fmt.Errorf("intake refused")
	}
	created := text != "dupe"
	f.texts = append(f.texts, text)
	return domain.Phrase{ID: text, Text: text}, created, nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunLocalDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "kapitel1.txt", "der Hund\ndie Katze\n")
	writeFile(t, dir, "kapitel2.md", "# Notizen\n- das Auto\n- dupe\n")
	writeFile(t, dir, "ignored.pdf", "nicht lesbar")

	intaker := &fakeIntaker{}
	report, err := Run(intaker, dir, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Files != 2 {
		t.Errorf("Expected 2 phrase files, got %d", report.Files)
	}
	if report.Parsed != 4 {
		t.Errorf("Expected 4 parsed phrases, got %d", report.Parsed)
	}
	if report.Created != 3 || report.Matched != 1 {
		t.Errorf("Expected 3 created and 1 matched, got %d and %d", report.Created, report.Matched)
	}
	if len(report.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", report.Errors)
	}
}

func TestRunCollectsIntakeErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "liste.txt", "der Hund\nkaputt\ndie Katze\n")

	intaker := &fakeIntaker{}
	report, err := Run(intaker, dir, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Created != 2 {
		t.Errorf("Expected the two good phrases to be created, got %d", report.Created)
	}
	if len(report.Errors) != 1 {
		t.Errorf("Expected 1 collected error, got %v", report.Errors)
	}
}

func TestRunMissingPath(t *testing.T) {
	if _, err := Run(&fakeIntaker{}, filepath.Join(t.TempDir(), "missing"), t.TempDir(), nil); err == nil {
		t.Error("Expected an error for a missing source path")
	}
}

func TestGitURLToLocalPath(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://github.com/jana/vokabeln.git", filepath.Join("cache", "github.com", "jana", "vokabeln")},
		{"git@github.com:jana/vokabeln.git", filepath.Join("cache", "github.com", "jana", "vokabeln")},
	}
	for _, c := range cases {
		got, err := gitURLToLocalPath("cache", c.url)
		if err != nil {
			t.Errorf("gitURLToLocalPath(%q) failed: %v", c.url, err)
			continue
		}
		if got != c.want {
			t.Errorf("gitURLToLocalPath(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

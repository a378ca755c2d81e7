// Package ingest pulls phrase-list files from a local path or a git
// remote and feeds every phrase through intake, so bulk imports pass the
// same duplicate gate as conversational saves.
package ingest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/fennar/vokab/internal/domain"
	"github.com/fennar/vokab/internal/gitsource"
	"github.com/fennar/vokab/internal/parser"
)

// Intaker is the slice of the review service ingest needs.
type Intaker interface {
	IntakePhrase(text string) (domain.Phrase, bool, error)
}

// Report summarizes one ingest pass.
type Report struct {
	Files   int
	Parsed  int
	Created int
	Matched int
	Errors  []error
}

// Run ingests all phrase-list files (.txt and .md) under source, which
// is either a local path or a git URL. Git sources are cloned into
// cacheDir and pulled on subsequent runs. Per-file and per-phrase
// failures are collected in the report; only being unable to reach the
// source at all is a hard error.
func Run(svc Intaker, source, cacheDir string, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	root := source
	if gitsource.IsGitURL(source) {
		localPath, err := gitURLToLocalPath(cacheDir, source)
		if err != nil {
			return Report{}, err
		}
		if err := gitsource.Sync(source, localPath); err != nil {
			return Report{}, err
		}
		root = localPath
	}

	var report Report
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isPhraseFile(d.Name()) {
			return nil
		}

		report.Files++
		phrases, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}

		for _, text := range phrases {
			report.Parsed++
			_, created, intakeErr := svc.IntakePhrase(text)
			if intakeErr != nil {
				report.Errors = append(report.Errors, fmt.Errorf("intake %q from %s: %w", text, path, intakeErr))
				continue
			}
			if created {
				report.Created++
			} else {
				report.Matched++
			}
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("walking %s: %w", root, walkErr)
	}

	logger.Info("ingest complete",
		"source", source,
		"files", report.Files,
		"parsed", report.Parsed,
		"created", report.Created,
		"matched", report.Matched,
		"errors", len(report.Errors),
	)
	return report, nil
}

func isPhraseFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md")
}

// gitURLToLocalPath maps a git URL onto a stable checkout directory
// under baseDir, so repeated ingests reuse the same clone.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err == nil && (parsedURL.Scheme == "https" || parsedURL.Scheme == "http") {
		sanitized := strings.TrimSuffix(parsedURL.Path, ".git")
		return filepath.Join(baseDir, parsedURL.Host, sanitized), nil
	}

	// SSH form: git@host:owner/repo.git
	if strings.Contains(repoURL, "@") {
		parts := strings.SplitN(repoURL, ":", 2)
		if len(parts) == 2 {
			hostAndUser := strings.SplitN(parts[0], "@", 2)
			if len(hostAndUser) == 2 {
				repoPath := strings.TrimSuffix(parts[1], ".git")
				return filepath.Join(baseDir, hostAndUser[1], repoPath), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}

// Package gitsource keeps a local checkout of a git-hosted phrase
// collection up to date.
package gitsource

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones the repository at url into localPath if it is not there
// yet, or pulls the latest changes if it is.
func Sync(url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("cloning phrase source", "url", url, "path", localPath)
		if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: url}); err != nil {
			return fmt.Errorf("failed to clone %s: %w", url, err)
		}
		return nil

	case err == nil:
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing checkout at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree at %s: %w", localPath, err)
		}

		slog.Info("pulling phrase source", "path", localPath)
		err = worktree.Pull(&git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull %s: %w", localPath, err)
		}
		return nil

	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
}

// IsGitURL reports whether path looks like a git remote rather than a
// local directory.
func IsGitURL(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

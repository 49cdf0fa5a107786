// Package gitsource keeps local clones of content repositories current.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
)

// Result says what Sync did.
type Result string

const (
	Cloned   Result = "cloned"
	Pulled   Result = "pulled"
	UpToDate Result = "up-to-date"
)

// Syncer clones or pulls repositories.
type Syncer struct {
	log      logrus.FieldLogger
	progress io.Writer
}

// New returns a Syncer. progress receives the remote's progress output and
// may be nil.
func New(log logrus.FieldLogger, progress io.Writer) *Syncer {
	return &Syncer{log: log, progress: progress}
}

// Sync clones url into localPath if it doesn't exist there yet, or pulls the
// latest changes if it does.
func (s *Syncer) Sync(ctx context.Context, url, localPath string) (Result, error) {
	log := s.log.WithFields(logrus.Fields{"url": url, "path": localPath})

	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info("cloning repository")
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      url,
			Progress: s.progress,
		})
		if err != nil {
			return "", fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		return Cloned, nil

	case err != nil:
		return "", fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	log.Info("pulling repository")
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName: "origin",
		Progress:   s.progress,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return UpToDate, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
	}
	return Pulled, nil
}

// Package sync brings configured content repositories up to date and reports
// what the content directories hold.
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/conorfennell/langdrill/internal/config"
	"github.com/conorfennell/langdrill/internal/content"
	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/gitsource"
)

// Repo is a content repository and the directory it is cloned into.
type Repo struct {
	URL  string
	Path string
}

// Repos resolves the local path of every configured repository.
func Repos(cfg config.ContentConfig) ([]Repo, error) {
	repos := make([]Repo, 0, len(cfg.Repos))
	for _, r := range cfg.Repos {
		path := r.Path
		if path == "" {
			p, err := gitUrlToLocalPath(cfg.ReposDir, r.URL)
			if err != nil {
				return nil, err
			}
			path = p
		}
		repos = append(repos, Repo{URL: r.URL, Path: path})
	}
	return repos, nil
}

// Roots returns the content roots in lookup order: the local content
// directory, then each repository.
func Roots(cfg config.ContentConfig) ([]string, error) {
	repos, err := Repos(cfg)
	if err != nil {
		return nil, err
	}
	roots := []string{cfg.Dir}
	for _, r := range repos {
		roots = append(roots, r.Path)
	}
	return roots, nil
}

// DeckReport counts the entries of one deck after a sync.
type DeckReport struct {
	Deck    domain.Deck
	Entries int
	Custom  int
	Err     error
}

// Report is the outcome of RunSync.
type Report struct {
	Repos map[string]gitsource.Result
	Decks []DeckReport
}

// RunSync syncs every repository, then lists each deck to surface parse
// errors. A failing repository is logged and skipped; the error returned
// joins all repository failures.
func RunSync(ctx context.Context, cfg config.ContentConfig, syncer *gitsource.Syncer, log logrus.FieldLogger) (Report, error) {
	log.Info("starting content sync")
	report := Report{Repos: map[string]gitsource.Result{}}

	repos, err := Repos(cfg)
	if err != nil {
		return report, err
	}
	if len(repos) == 0 {
		log.Info("no content repositories configured")
	}

	var errs []error
	for _, repo := range repos {
		result, err := syncer.Sync(ctx, repo.URL, repo.Path)
		if err != nil {
			log.WithError(err).WithField("url", repo.URL).Error("error syncing git repo")
			errs = append(errs, err)
			continue
		}
		report.Repos[repo.URL] = result
	}

	roots, err := Roots(cfg)
	if err != nil {
		return report, err
	}
	src := content.NewDir(log, roots...)
	for _, deck := range domain.AllDecks {
		dr := DeckReport{Deck: deck}
		entries, err := src.ListEntries(ctx, deck, content.Filter{})
		switch {
		case errors.Is(err, content.ErrNoDeckDir):
		case err != nil:
			dr.Err = err
			log.WithError(err).WithField("deck", deck).Warn("deck content unreadable")
		default:
			dr.Entries = len(entries)
			for _, e := range entries {
				if e.Custom {
					dr.Custom++
				}
			}
		}
		report.Decks = append(report.Decks, dr)
	}

	log.WithField("repos", len(report.Repos)).Info("content sync complete")
	return report, errors.Join(errs...)
}

func gitUrlToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}

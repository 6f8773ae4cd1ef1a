package repo

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/yanizio/gitconf/internal/errs"
	"github.com/yanizio/gitconf/internal/metrics"
)

// CommitRecord is the canonical structured form of a Git commit returned by
// the API (spec.md §3).
type CommitRecord struct {
	CommitID      string `json:"commitId"`
	Author        string `json:"author"`
	Email         string `json:"email"`
	Date          string `json:"date"`
	CommitMessage string `json:"commitMessage,omitempty"`
}

const commitDateLayout = "2006-01-02 15:04:05"

func toRecord(c *object.Commit) CommitRecord {
	return CommitRecord{
		CommitID:      c.Hash.String(),
		Author:        c.Author.Name,
		Email:         c.Author.Email,
		Date:          c.Author.When.Local().Format(commitDateLayout),
		CommitMessage: strings.TrimRight(c.Message, "\n"),
	}
}

// authorFromEmail derives the Git author name convention of spec.md §4.4:
// the local part of the email, before "@".
func authorFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i != -1 {
		return email[:i]
	}
	return email
}

// ReadFile returns the content of relPath as it exists on disk right now
// (the working tree, which always mirrors HEAD since this gateway never
// leaves uncommitted changes between operations).
func (h *Handle) ReadFile(relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(h.dir, relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errs.New(errs.CodeConfigFileNotFound, 404, "file not found: "+relPath)
		}
		return "", errs.Wrap(errs.CodeConfigFileReadFailed, 500, "failed to read file", err)
	}
	return string(data), nil
}

// Exists reports whether relPath exists in the working tree.
func (h *Handle) Exists(relPath string) bool {
	_, err := os.Stat(filepath.Join(h.dir, relPath))
	return err == nil
}

// WriteFile writes content to relPath, creating parent directories as
// needed. It does not stage or commit.
func (h *Handle) WriteFile(relPath, content string) error {
	full := filepath.Join(h.dir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errs.Wrap(errs.CodeConfigFileCreationFailed, 500, "failed to create parent directories", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return errs.Wrap(errs.CodeConfigFileCreationFailed, 500, "failed to write file", err)
	}
	return nil
}

// RemoveFile deletes relPath from the working tree. It does not stage or
// commit.
func (h *Handle) RemoveFile(relPath string) error {
	if err := os.Remove(filepath.Join(h.dir, relPath)); err != nil {
		if os.IsNotExist(err) {
			return errs.New(errs.CodeConfigFileNotFound, 404, "file not found: "+relPath)
		}
		return errs.Wrap(errs.CodeGitOperationFailed, 500, "failed to remove file", err)
	}
	return nil
}

// StageAndCommit stages every path in paths (additions, modifications, and
// removals are all handled the same way by worktree.Add when the file still
// exists; removed files are staged with worktree.Remove) and produces
// exactly one commit whose author is derived from email (spec.md §3, §4.4).
func (h *Handle) StageAndCommit(paths []string, message, email string) (string, error) {
	start := time.Now()
	defer func() { metrics.CommitLatencySeconds.Observe(time.Since(start).Seconds()) }()

	wt, err := h.repo.Worktree()
	if err != nil {
		return "", errs.Wrap(errs.CodeGitOperationFailed, 500, "failed to open worktree", err)
	}

	for _, p := range paths {
		if h.Exists(p) {
			if _, err := wt.Add(p); err != nil {
				return "", errs.Wrap(errs.CodeGitCommitFailed, 500, "failed to stage "+p, err)
			}
			continue
		}
		if _, err := wt.Remove(p); err != nil {
			return "", errs.Wrap(errs.CodeGitCommitFailed, 500, "failed to stage removal of "+p, err)
		}
	}

	sig := &object.Signature{
		Name:  authorFromEmail(email),
		Email: email,
		When:  time.Now(),
	}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", errs.Wrap(errs.CodeGitCommitFailed, 500, "failed to commit", err)
	}
	return hash.String(), nil
}

// Head resolves the repository's current HEAD commit. An empty repository
// (no commits yet) returns CodeGitLogFailed.
func (h *Handle) Head() (*object.Commit, error) {
	ref, err := h.repo.Head()
	if err != nil {
		return nil, errs.Wrap(errs.CodeGitLogFailed, 500, "failed to resolve HEAD", err)
	}
	return h.commitByHash(ref.Hash())
}

func (h *Handle) commitByHash(hash plumbing.Hash) (*object.Commit, error) {
	c, err := h.repo.CommitObject(hash)
	if err != nil {
		return nil, errs.Wrap(errs.CodeGitLogFailed, 500, "failed to load commit object", err)
	}
	return c, nil
}

// CommitByID resolves a (possibly abbreviated) commit ID to a full commit.
func (h *Handle) CommitByID(id string) (*object.Commit, error) {
	hashes, err := h.repo.ResolveRevision(plumbing.Revision(id))
	if err != nil {
		return nil, errs.Wrap(errs.CodeGitLogFailed, 404, "commit not found: "+id, err)
	}
	return h.commitByHash(*hashes)
}

// LatestCommitForPath returns the most recent commit that touched relPath,
// walking from HEAD. Returns CodeConfigFileNotFound if no commit ever
// touched it (spec.md §4.8).
func (h *Handle) LatestCommitForPath(relPath string) (*object.Commit, error) {
	records, err := h.logForPath(relPath, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errs.New(errs.CodeConfigFileNotFound, 404, "no commit touches path: "+relPath)
	}
	return records[0], nil
}

// HistoryForPath returns up to limit most-recent commits touching relPath.
func (h *Handle) HistoryForPath(relPath string, limit int) ([]CommitRecord, error) {
	commits, err := h.logForPath(relPath, limit)
	if err != nil {
		return nil, err
	}
	out := make([]CommitRecord, 0, len(commits))
	for _, c := range commits {
		out = append(out, toRecord(c))
	}
	return out, nil
}

func (h *Handle) logForPath(relPath string, limit int) ([]*object.Commit, error) {
	head, err := h.repo.Head()
	if err != nil {
		// An empty repository has no HEAD yet; treat as "no history".
		return nil, nil
	}

	iter, err := h.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &relPath})
	if err != nil {
		return nil, errs.Wrap(errs.CodeGitLogFailed, 500, "failed to walk commit log", err)
	}
	defer iter.Close()

	var out []*object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.CodeGitLogFailed, 500, "failed to iterate commit log", err)
	}
	return out, nil
}

// NamespaceEvents returns up to limit most-recent commits on the default
// branch. An empty repository returns an empty slice (spec.md §4.8).
func (h *Handle) NamespaceEvents(limit int) ([]CommitRecord, error) {
	head, err := h.repo.Head()
	if err != nil {
		return []CommitRecord{}, nil
	}

	iter, err := h.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, errs.Wrap(errs.CodeGitLogFailed, 500, "failed to walk commit log", err)
	}
	defer iter.Close()

	var out []CommitRecord
	err = iter.ForEach(func(c *object.Commit) error {
		out = append(out, toRecord(c))
		if limit > 0 && len(out) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.CodeGitLogFailed, 500, "failed to iterate commit log", err)
	}
	if out == nil {
		out = []CommitRecord{}
	}
	return out, nil
}

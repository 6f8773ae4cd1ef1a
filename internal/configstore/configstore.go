// Package configstore implements the ConfigStore (C8 in spec.md §4.8), the
// largest component in the system: file-level CRUD over namespace
// configuration files, layered on RepoGateway and SecretProcessor, with
// cache integration on every read and write path.
//
// The method shapes mirror the teacher's tenant cache loader — validate,
// acquire a scoped resource, do the work, invalidate, return — rather than
// introducing a new control-flow idiom for this package.
package configstore

import (
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/gitconf/internal/cache"
	"github.com/yanizio/gitconf/internal/errs"
	"github.com/yanizio/gitconf/internal/metrics"
	"github.com/yanizio/gitconf/internal/repo"
	"github.com/yanizio/gitconf/internal/secret"
	"github.com/yanizio/gitconf/internal/validate"
	"github.com/yanizio/gitconf/internal/yamlops"
)

// Notifier is the subset of notify.Notifier that ConfigStore depends on.
// Declared here, rather than imported, so this package does not import
// internal/notify and tests can pass a fake notifier.
type Notifier interface {
	SendRefresh(namespace, appName, commitID string)
}

const defaultTemplate = "# Configuration for %[1]s\napp:\n  name: %[1]s\nserver:\n  port: 8080\n"

// Store is the ConfigStore.
type Store struct {
	gateway  *repo.Gateway
	secrets  *secret.Processor
	cache    *cache.Cache
	notifier Notifier
	historyN int
	log      *zap.Logger
}

// New constructs a Store. historySize caps the number of commits returned
// by History and NamespaceEvents (spec.md §6, `commitHistorySize`; a value
// of zero or less becomes 20).
func New(gateway *repo.Gateway, secrets *secret.Processor, c *cache.Cache, notifier Notifier, historySize int, log *zap.Logger) *Store {
	if historySize <= 0 {
		historySize = 20
	}
	return &Store{gateway: gateway, secrets: secrets, cache: c, notifier: notifier, historyN: historySize, log: log}
}

func cacheKey(ns, relPath string) string {
	return ns + "/" + relPath
}

// Initialize creates relPath in namespace ns with the default template,
// substituting appName, and makes the first commit (spec.md §4.8).
func (s *Store) Initialize(ns, relPath, appName, email string) error {
	clean, err := validate.ValidateSafePath(relPath)
	if err != nil {
		return err
	}
	if err := validate.ValidateAppName(appName); err != nil {
		return err
	}
	if err := validate.ValidateEmail(email); err != nil {
		return err
	}

	err = repo.WithRepoVoid(s.gateway, ns, func(h *repo.Handle) error {
		if h.Exists(clean) {
			return errs.New(errs.CodeConfigFileAlreadyExists, 409, "config file already exists: "+clean)
		}
		content := fmt.Sprintf(defaultTemplate, appName)
		if err := h.WriteFile(clean, content); err != nil {
			return err
		}
		message := fmt.Sprintf("First commit ApplicationName - %s", appName)
		_, err := h.StageAndCommit([]string{clean}, message, email)
		return err
	})
	if err != nil {
		return err
	}

	s.cache.ConfigFileCreatedOrDeleted(ns)
	return nil
}

// Read returns relPath's content with SecretProcessor internal-mode applied
// (never plaintext secrets), cached under config-content[ns/relPath]
// (spec.md §4.8).
func (s *Store) Read(ns, relPath string) (string, error) {
	clean, err := validate.ValidateSafePath(relPath)
	if err != nil {
		return "", err
	}

	key := cacheKey(ns, clean)
	if v, ok := s.cache.Get(cache.RegionConfigContent, key); ok {
		return v.(string), nil
	}

	raw, err := repo.WithRepo(s.gateway, ns, func(h *repo.Handle) (string, error) {
		return h.ReadFile(clean)
	})
	if err != nil {
		return "", err
	}

	processed := s.secrets.ProcessForInternal(ns, raw)
	s.cache.Put(cache.RegionConfigContent, key, processed)
	return processed, nil
}

// ReadRaw returns relPath's content exactly as stored, with no secret
// processing applied. The Resolver uses this directly: it needs the raw
// YAML so it can merge sources before applying client-mode substitution
// once, over the merged result, rather than once per source (spec.md
// §4.9). Uncached: every call reads the file from disk.
func (s *Store) ReadRaw(ns, relPath string) (string, error) {
	clean, err := validate.ValidateSafePath(relPath)
	if err != nil {
		return "", err
	}
	return repo.WithRepo(s.gateway, ns, func(h *repo.Handle) (string, error) {
		return h.ReadFile(clean)
	})
}

// Update applies an optimistic-concurrency-checked write: content must be
// valid YAML, expectedCommitId must match the path's current latest commit,
// and the committed content is internal-mode secret-redacted before it ever
// touches disk — the write-through-plaintext behavior the spec knowingly
// retains when a referenced secret key has not yet landed in the vault
// (spec.md §9, open question, option (b)). Returns the new commit ID.
func (s *Store) Update(ns, relPath, content, message, email, expectedCommitID string) (string, error) {
	clean, err := validate.ValidateSafePath(relPath)
	if err != nil {
		return "", err
	}
	if err := validate.ValidateYAMLContent(content, yamlops.Parse); err != nil {
		return "", err
	}
	if err := validate.ValidateCommitMessage(message); err != nil {
		return "", err
	}
	if err := validate.ValidateEmail(email); err != nil {
		return "", err
	}
	if err := validate.ValidateCommitID(expectedCommitID); err != nil {
		return "", err
	}

	newCommitID, err := repo.WithRepo(s.gateway, ns, func(h *repo.Handle) (string, error) {
		current, err := h.LatestCommitForPath(clean)
		if err != nil {
			return "", err
		}
		if current.Hash.String() != expectedCommitID {
			metrics.ConfigConflictsTotal.Inc()
			return "", errs.New(errs.CodeConfigConflict, 409,
				"expectedCommitId does not match current HEAD for this path")
		}

		redacted := s.secrets.ProcessForInternal(ns, content)
		if err := h.WriteFile(clean, redacted); err != nil {
			return "", err
		}
		return h.StageAndCommit([]string{clean}, message, email)
	})
	if err != nil {
		return "", err
	}

	s.cache.ConfigFileUpdated(ns, cacheKey(ns, clean))
	s.notifier.SendRefresh(ns, appNameFromPath(clean), newCommitID)
	return newCommitID, nil
}

// Delete removes relPath and commits the removal.
func (s *Store) Delete(ns, relPath, message, email string) error {
	clean, err := validate.ValidateSafePath(relPath)
	if err != nil {
		return err
	}
	if err := validate.ValidateCommitMessage(message); err != nil {
		return err
	}
	if err := validate.ValidateEmail(email); err != nil {
		return err
	}

	err = repo.WithRepoVoid(s.gateway, ns, func(h *repo.Handle) error {
		if err := h.RemoveFile(clean); err != nil {
			return err
		}
		_, err := h.StageAndCommit([]string{clean}, message, email)
		return err
	})
	if err != nil {
		return err
	}

	s.cache.ConfigFileUpdated(ns, cacheKey(ns, clean))
	s.cache.ConfigFileCreatedOrDeleted(ns)
	return nil
}

// LatestCommitID returns the most recent commit ID touching relPath.
func (s *Store) LatestCommitID(ns, relPath string) (string, error) {
	clean, err := validate.ValidateSafePath(relPath)
	if err != nil {
		return "", err
	}

	key := cacheKey(ns, clean)
	if v, ok := s.cache.Get(cache.RegionLatestCommit, key); ok {
		return v.(string), nil
	}

	id, err := repo.WithRepo(s.gateway, ns, func(h *repo.Handle) (string, error) {
		c, err := h.LatestCommitForPath(clean)
		if err != nil {
			return "", err
		}
		return c.Hash.String(), nil
	})
	if err != nil {
		return "", err
	}

	s.cache.Put(cache.RegionLatestCommit, key, id)
	return id, nil
}

// History returns up to the configured commit-history-size most recent
// commits touching relPath.
func (s *Store) History(ns, relPath string) ([]repo.CommitRecord, error) {
	clean, err := validate.ValidateSafePath(relPath)
	if err != nil {
		return nil, err
	}

	key := cacheKey(ns, clean)
	if v, ok := s.cache.Get(cache.RegionCommitHistory, key); ok {
		return v.([]repo.CommitRecord), nil
	}

	records, err := repo.WithRepo(s.gateway, ns, func(h *repo.Handle) ([]repo.CommitRecord, error) {
		return h.HistoryForPath(clean, s.historyN)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Put(cache.RegionCommitHistory, key, records)
	return records, nil
}

// CommitChanges returns a commit's metadata plus its header-stripped
// unified diff, cached under commit-details[commitId_namespace].
func (s *Store) CommitChanges(ns, commitID string) (repo.CommitRecord, string, error) {
	if err := validate.ValidateCommitID(commitID); err != nil {
		return repo.CommitRecord{}, "", err
	}

	key := commitID + "_" + ns
	if v, ok := s.cache.Get(cache.RegionCommitDetails, key); ok {
		pair := v.([2]any)
		return pair[0].(repo.CommitRecord), pair[1].(string), nil
	}

	cd, err := repo.WithRepo(s.gateway, ns, func(h *repo.Handle) (commitDiff, error) {
		rec, d, err := h.CommitChanges(commitID)
		return commitDiff{record: rec, diff: d}, err
	})
	if err != nil {
		return repo.CommitRecord{}, "", err
	}

	s.cache.Put(cache.RegionCommitDetails, key, [2]any{cd.record, cd.diff})
	return cd.record, cd.diff, nil
}

type commitDiff struct {
	record repo.CommitRecord
	diff   string
}

// NamespaceEvents returns up to the configured history size most recent
// commits on the namespace's default branch.
func (s *Store) NamespaceEvents(ns string) ([]repo.CommitRecord, error) {
	if v, ok := s.cache.Get(cache.RegionNamespaceEvents, ns); ok {
		return v.([]repo.CommitRecord), nil
	}

	events, err := repo.WithRepo(s.gateway, ns, func(h *repo.Handle) ([]repo.CommitRecord, error) {
		return h.NamespaceEvents(s.historyN)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Put(cache.RegionNamespaceEvents, ns, events)
	return events, nil
}

// ListDirectory returns the .yml files and subdirectories directly under
// ns/relPath.
func (s *Store) ListDirectory(ns, relPath string) ([]string, error) {
	clean := strings.TrimPrefix(relPath, "/")
	key := cacheKey(ns, clean)
	if v, ok := s.cache.Get(cache.RegionDirectoryListing, key); ok {
		return v.([]string), nil
	}

	names, err := s.gateway.ListDirectory(ns, clean)
	if err != nil {
		return nil, err
	}

	s.cache.Put(cache.RegionDirectoryListing, key, names)
	return names, nil
}

// ListNamespaces returns every valid, Git-backed namespace under the base
// path, cached under namespaces['all'].
func (s *Store) ListNamespaces() ([]string, error) {
	if v, ok := s.cache.Get(cache.RegionNamespaces, "all"); ok {
		return v.([]string), nil
	}

	names, err := s.gateway.ListNamespaces()
	if err != nil {
		return nil, err
	}

	s.cache.Put(cache.RegionNamespaces, "all", names)
	return names, nil
}

// appNameFromPath derives the application name the Notifier reports from a
// config file's relative path: the file's base name with any "-<profile>"
// suffix and ".yml" extension stripped, matching the <appName>[-<profile>]
// naming convention of spec.md §3.
func appNameFromPath(relPath string) string {
	base := strings.TrimSuffix(path.Base(relPath), ".yml")
	if i := strings.IndexByte(base, '-'); i != -1 {
		return base[:i]
	}
	return base
}

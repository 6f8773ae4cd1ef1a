// Package repo implements the namespace/repository engine: C4 RepoGateway
// in spec.md §4.4. It owns the directory-to-repository mapping, serializes
// all Git-mutating operations per namespace behind a namespace-scoped mutex
// (spec.md §5), and translates every filesystem/Git failure into the
// errs.Error taxonomy of spec.md §7.
//
// The acquire/release pattern follows the teacher's closure-based resource
// scoping (see the "Container of Git operations" design note in spec.md §9,
// grounded on the teacher's pattern of returning handles that are released
// on every exit path, e.g. internal/tenant.Cache.Get's singleflight-guarded
// load).
package repo

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/yanizio/gitconf/internal/errs"
	"github.com/yanizio/gitconf/internal/metrics"
	"github.com/yanizio/gitconf/internal/validate"
)

// Gateway owns every namespace directory under basePath and serializes
// access to each one independently.
type Gateway struct {
	basePath string
	log      *zap.Logger

	mu      sync.Mutex // guards the locks map itself, not namespace content
	locks   map[string]*sync.Mutex
}

// New constructs a Gateway rooted at basePath. The caller must ensure
// basePath exists (spec.md §6, "process exits non-zero if the base
// directory does not exist at startup").
func New(basePath string, log *zap.Logger) *Gateway {
	return &Gateway{
		basePath: basePath,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (g *Gateway) namespaceMutex(ns string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.locks[ns]
	if !ok {
		m = &sync.Mutex{}
		g.locks[ns] = m
	}
	return m
}

func (g *Gateway) namespaceDir(ns string) string {
	return filepath.Join(g.basePath, ns)
}

// Handle is the per-operation view of an open namespace repository. It is
// never shared across goroutines or retained past the closure passed to
// WithRepo/WithRepoVoid.
type Handle struct {
	ns   string
	dir  string
	repo *git.Repository
}

// Namespace returns the handle's namespace name.
func (h *Handle) Namespace() string { return h.ns }

// Dir returns the namespace's on-disk root (parent of .git and .vault).
func (h *Handle) Dir() string { return h.dir }

// open resolves and opens the on-disk repository, requiring a .git
// subdirectory to exist (spec.md §4.4).
func (g *Gateway) open(ns string) (*Handle, error) {
	dir := g.namespaceDir(ns)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errs.New(errs.CodeNamespaceNotFound, 404, "namespace does not exist: "+ns)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return nil, errs.New(errs.CodeNamespaceNotFound, 404, "namespace is not a git repository: "+ns)
	}

	r, err := git.PlainOpen(dir)
	if err != nil {
		return nil, errs.Wrap(errs.CodeGitRepositoryAccessFailed, 500, "failed to open repository", err)
	}
	return &Handle{ns: ns, dir: dir, repo: r}, nil
}

// WithRepo opens ns under its namespace mutex, invokes fn, and releases the
// mutex on every exit path — the unlock is deferred, so it also runs while a
// panic in fn unwinds, and a bug in fn can never leave a namespace
// permanently locked. The panic itself is not recovered.
func WithRepo[T any](g *Gateway, ns string, fn func(*Handle) (T, error)) (T, error) {
	var zero T
	if err := validate.ValidateNamespace(ns); err != nil {
		return zero, err
	}

	mu := g.namespaceMutex(ns)
	mu.Lock()
	defer mu.Unlock()

	h, err := g.open(ns)
	if err != nil {
		return zero, err
	}
	return fn(h)
}

// WithRepoVoid is WithRepo for closures with no return value beyond error.
func WithRepoVoid(g *Gateway, ns string, fn func(*Handle) error) error {
	_, err := WithRepo(g, ns, func(h *Handle) (struct{}, error) {
		return struct{}{}, fn(h)
	})
	return err
}

// CreateNamespace creates the namespace directory, initializes an empty
// repository, creates .vault/, and makes the initial commit (spec.md §4.4,
// SPEC_FULL.md §3 domain expansion).
func (g *Gateway) CreateNamespace(ns, authorEmail string) error {
	if err := validate.ValidateNamespace(ns); err != nil {
		return err
	}

	mu := g.namespaceMutex(ns)
	mu.Lock()
	defer mu.Unlock()

	dir := g.namespaceDir(ns)
	if _, err := os.Stat(dir); err == nil {
		return errs.New(errs.CodeNamespaceAlreadyExists, 409, "namespace already exists: "+ns)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.CodeNamespaceCreationFailed, 500, "failed to create namespace directory", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ".vault"), 0o755); err != nil {
		return errs.Wrap(errs.CodeNamespaceCreationFailed, 500, "failed to create vault directory", err)
	}

	r, err := git.PlainInit(dir, false)
	if err != nil {
		return errs.Wrap(errs.CodeGitInitFailed, 500, "failed to initialize repository", err)
	}

	h := &Handle{ns: ns, dir: dir, repo: r}
	keepPath := filepath.Join(dir, ".vault", ".gitkeep")
	if err := os.WriteFile(keepPath, []byte{}, 0o644); err != nil {
		return errs.Wrap(errs.CodeNamespaceCreationFailed, 500, "failed to write .gitkeep", err)
	}
	if _, err := h.StageAndCommit([]string{".vault/.gitkeep"}, "Initialize namespace "+ns, authorEmail); err != nil {
		return err
	}
	return nil
}

// DeleteNamespace recursively removes the namespace directory. Cache
// eviction is the caller's responsibility (spec.md §4.4 keeps RepoGateway
// ignorant of the cache, per the centralized-invalidation design note in
// spec.md §9).
func (g *Gateway) DeleteNamespace(ns string) error {
	if err := validate.ValidateNamespace(ns); err != nil {
		return err
	}

	mu := g.namespaceMutex(ns)
	mu.Lock()
	defer mu.Unlock()

	dir := g.namespaceDir(ns)
	if _, err := os.Stat(dir); err != nil {
		return errs.New(errs.CodeNamespaceNotFound, 404, "namespace does not exist: "+ns)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errs.Wrap(errs.CodeGitRepositoryAccessFailed, 500, "failed to remove namespace directory", err)
	}
	return nil
}

// ListNamespaces returns the names of direct subdirectories of basePath that
// pass namespace validation and contain a .git directory, sorted
// alphabetically (spec.md §4.8).
func (g *Gateway) ListNamespaces() ([]string, error) {
	entries, err := os.ReadDir(g.basePath)
	if err != nil {
		return nil, errs.Wrap(errs.CodeGitRepositoryAccessFailed, 500, "failed to read base path", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if validate.ValidateNamespace(name) != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(g.basePath, name, ".git")); err != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	metrics.NamespaceCount.Set(float64(len(names)))
	return names, nil
}

// ListDirectory returns the .yml files (suffix stripped) and subdirectories
// (suffixed with "/") of ns/path, excluding dotfiles, sorted
// case-insensitively (spec.md §4.8).
func (g *Gateway) ListDirectory(ns, relPath string) ([]string, error) {
	if err := validate.ValidateNamespace(ns); err != nil {
		return nil, err
	}
	dir := filepath.Join(g.namespaceDir(ns), relPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.CodeConfigFileNotFound, 404, "directory not found: "+relPath)
		}
		return nil, errs.Wrap(errs.CodeGitRepositoryAccessFailed, 500, "failed to read directory", err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			out = append(out, name+"/")
			continue
		}
		if strings.HasSuffix(name, ".yml") {
			out = append(out, strings.TrimSuffix(name, ".yml"))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out, nil
}

package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	base := t.TempDir()
	return New(base, zap.NewNop())
}

func TestCreateNamespaceInitializesRepoAndVault(t *testing.T) {
	g := newTestGateway(t)

	if err := g.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	if info, err := os.Stat(filepath.Join(g.basePath, "prod", ".vault")); err != nil || !info.IsDir() {
		t.Fatalf("expected .vault directory created, stat err: %v", err)
	}

	events, err := WithRepo(g, "prod", func(h *Handle) ([]CommitRecord, error) {
		return h.NamespaceEvents(0)
	})
	if err != nil {
		t.Fatalf("NamespaceEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 initial commit, got %d", len(events))
	}
	if events[0].CommitMessage != "Initialize namespace prod" {
		t.Fatalf("unexpected commit message: %q", events[0].CommitMessage)
	}
	if events[0].Author != "alice" {
		t.Fatalf("expected author derived from email local-part, got %q", events[0].Author)
	}
}

func TestCreateNamespaceAlreadyExists(t *testing.T) {
	g := newTestGateway(t)
	if err := g.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	err := g.CreateNamespace("prod", "alice@example.com")
	if err == nil {
		t.Fatalf("expected error on duplicate namespace")
	}
}

func TestWithRepoNamespaceNotFound(t *testing.T) {
	g := newTestGateway(t)
	_, err := WithRepo(g, "missing", func(h *Handle) (string, error) {
		return "", nil
	})
	if err == nil {
		t.Fatalf("expected namespace-not-found error")
	}
}

func TestWriteFileReadFileRoundTrip(t *testing.T) {
	g := newTestGateway(t)
	if err := g.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}

	err := WithRepoVoid(g, "prod", func(h *Handle) error {
		if err := h.WriteFile("app.yml", "app:\n  name: demo\n"); err != nil {
			return err
		}
		_, err := h.StageAndCommit([]string{"app.yml"}, "Add app.yml", "bob@example.com")
		return err
	})
	if err != nil {
		t.Fatalf("write+commit: %v", err)
	}

	content, err := WithRepo(g, "prod", func(h *Handle) (string, error) {
		return h.ReadFile("app.yml")
	})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(content, "name: demo") {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestLatestCommitForPathAndHistory(t *testing.T) {
	g := newTestGateway(t)
	if err := g.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}

	for i, body := range []string{"v1\n", "v2\n", "v3\n"} {
		err := WithRepoVoid(g, "prod", func(h *Handle) error {
			if err := h.WriteFile("app.yml", body); err != nil {
				return err
			}
			_, err := h.StageAndCommit([]string{"app.yml"}, "update", "bob@example.com")
			return err
		})
		if err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	latest, err := WithRepo(g, "prod", func(h *Handle) (CommitRecord, error) {
		c, err := h.LatestCommitForPath("app.yml")
		if err != nil {
			return CommitRecord{}, err
		}
		return toRecord(c), nil
	})
	if err != nil {
		t.Fatalf("LatestCommitForPath: %v", err)
	}

	history, err := WithRepo(g, "prod", func(h *Handle) ([]CommitRecord, error) {
		return h.HistoryForPath("app.yml", 0)
	})
	if err != nil {
		t.Fatalf("HistoryForPath: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	if history[0].CommitID != latest.CommitID {
		t.Fatalf("expected latest commit to be history[0]")
	}
}

func TestLatestCommitForPathNotFound(t *testing.T) {
	g := newTestGateway(t)
	if err := g.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	_, err := WithRepo(g, "prod", func(h *Handle) (*struct{}, error) {
		_, err := h.LatestCommitForPath("nope.yml")
		return nil, err
	})
	if err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestListDirectoryAndListNamespaces(t *testing.T) {
	g := newTestGateway(t)
	if err := g.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	if err := g.CreateNamespace("staging", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}

	err := WithRepoVoid(g, "prod", func(h *Handle) error {
		if err := h.WriteFile("app.yml", "x\n"); err != nil {
			return err
		}
		if err := h.WriteFile("sub/nested.yml", "y\n"); err != nil {
			return err
		}
		_, err := h.StageAndCommit([]string{"app.yml", "sub/nested.yml"}, "add files", "bob@example.com")
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	names, err := g.ListDirectory("prod", "")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["app"] || !found["sub/"] {
		t.Fatalf("unexpected directory listing: %v", names)
	}

	namespaces, err := g.ListNamespaces()
	if err != nil {
		t.Fatalf("ListNamespaces: %v", err)
	}
	if len(namespaces) != 2 || namespaces[0] != "prod" || namespaces[1] != "staging" {
		t.Fatalf("unexpected namespace list: %v", namespaces)
	}
}

func TestDeleteNamespace(t *testing.T) {
	g := newTestGateway(t)
	if err := g.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	if err := g.DeleteNamespace("prod"); err != nil {
		t.Fatalf("DeleteNamespace: %v", err)
	}
	if _, err := os.Stat(filepath.Join(g.basePath, "prod")); !os.IsNotExist(err) {
		t.Fatalf("expected namespace directory removed")
	}
}

func TestCommitChangesRootCommit(t *testing.T) {
	g := newTestGateway(t)
	if err := g.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}

	diff, err := WithRepo(g, "prod", func(h *Handle) (string, error) {
		events, err := h.NamespaceEvents(1)
		if err != nil {
			return "", err
		}
		_, d, err := h.CommitChanges(events[0].CommitID)
		return d, err
	})
	if err != nil {
		t.Fatalf("CommitChanges: %v", err)
	}
	if !strings.Contains(diff, "+") {
		t.Fatalf("expected additions in root commit diff, got: %q", diff)
	}
	if strings.Contains(diff, "diff --git") {
		t.Fatalf("expected diff --git header stripped, got: %q", diff)
	}
}

func TestCommitChangesStripsHeadersKeepsHunks(t *testing.T) {
	g := newTestGateway(t)
	if err := g.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}

	var secondCommitID string
	err := WithRepoVoid(g, "prod", func(h *Handle) error {
		if err := h.WriteFile("app.yml", "a: 1\n"); err != nil {
			return err
		}
		if _, err := h.StageAndCommit([]string{"app.yml"}, "add app.yml", "bob@example.com"); err != nil {
			return err
		}
		if err := h.WriteFile("app.yml", "a: 2\n"); err != nil {
			return err
		}
		id, err := h.StageAndCommit([]string{"app.yml"}, "update app.yml", "bob@example.com")
		secondCommitID = id
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	diff, err := WithRepo(g, "prod", func(h *Handle) (string, error) {
		_, d, err := h.CommitChanges(secondCommitID)
		return d, err
	})
	if err != nil {
		t.Fatalf("CommitChanges: %v", err)
	}
	if strings.Contains(diff, "diff --git") || strings.Contains(diff, "index ") {
		t.Fatalf("expected header lines stripped, got: %q", diff)
	}
	if !strings.Contains(diff, "@@") {
		t.Fatalf("expected hunk header preserved, got: %q", diff)
	}
}

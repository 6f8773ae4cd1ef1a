package configstore

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/gitconf/internal/cache"
	"github.com/yanizio/gitconf/internal/repo"
	"github.com/yanizio/gitconf/internal/secret"
)

type fakeNotifier struct {
	calls []string
}

func (f *fakeNotifier) SendRefresh(ns, appName, commitID string) {
	f.calls = append(f.calls, ns+"/"+appName+"/"+commitID)
}

type emptyVault struct{}

func (emptyVault) Get(ns string) (map[string]string, error) { return map[string]string{}, nil }

func newTestStore(t *testing.T) (*Store, *repo.Gateway, *fakeNotifier) {
	t.Helper()
	gw := repo.New(t.TempDir(), zap.NewNop())
	c := cache.New(time.Minute, zap.NewNop())
	proc := secret.New(emptyVault{}, zap.NewNop())
	notifier := &fakeNotifier{}
	return New(gw, proc, c, notifier, 20, zap.NewNop()), gw, notifier
}

func TestInitializeWritesDefaultTemplate(t *testing.T) {
	s, gw, _ := newTestStore(t)
	if err := gw.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}

	if err := s.Initialize("prod", "user-svc.yml", "user-svc", "bob@example.com"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	content, err := s.Read("prod", "user-svc.yml")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.Contains(content, "name: user-svc") {
		t.Fatalf("expected app name substituted, got: %q", content)
	}
}

func TestInitializeAlreadyExists(t *testing.T) {
	s, gw, _ := newTestStore(t)
	if err := gw.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	if err := s.Initialize("prod", "user-svc.yml", "user-svc", "bob@example.com"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	err := s.Initialize("prod", "user-svc.yml", "user-svc", "bob@example.com")
	if err == nil {
		t.Fatalf("expected already-exists error")
	}
}

func TestUpdateWithCorrectExpectedCommitSucceeds(t *testing.T) {
	s, gw, notifier := newTestStore(t)
	if err := gw.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	if err := s.Initialize("prod", "user-svc.yml", "user-svc", "bob@example.com"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	current, err := s.LatestCommitID("prod", "user-svc.yml")
	if err != nil {
		t.Fatalf("LatestCommitID: %v", err)
	}

	newID, err := s.Update("prod", "user-svc.yml", "app:\n  name: user-svc\nserver:\n  port: 9090\n",
		"bump port", "bob@example.com", current)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if newID == current {
		t.Fatalf("expected new commit id to differ from previous")
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected notifier to be invoked once, got %d", len(notifier.calls))
	}
}

func TestUpdateWithStaleExpectedCommitConflicts(t *testing.T) {
	s, gw, _ := newTestStore(t)
	if err := gw.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	if err := s.Initialize("prod", "user-svc.yml", "user-svc", "bob@example.com"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	current, err := s.LatestCommitID("prod", "user-svc.yml")
	if err != nil {
		t.Fatalf("LatestCommitID: %v", err)
	}
	if _, err := s.Update("prod", "user-svc.yml", "app:\n  name: user-svc\n", "first", "bob@example.com", current); err != nil {
		t.Fatalf("Update 1: %v", err)
	}

	_, err = s.Update("prod", "user-svc.yml", "app:\n  name: user-svc\n", "second", "bob@example.com", current)
	if err == nil {
		t.Fatalf("expected CONFIG_CONFLICT on stale expectedCommitId")
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	s, gw, _ := newTestStore(t)
	if err := gw.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	if err := s.Initialize("prod", "user-svc.yml", "user-svc", "bob@example.com"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.Delete("prod", "user-svc.yml", "remove it", "bob@example.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("prod", "user-svc.yml"); err == nil {
		t.Fatalf("expected read to fail after delete")
	}
}

func TestHistoryReturnsAllCommits(t *testing.T) {
	s, gw, _ := newTestStore(t)
	if err := gw.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	if err := s.Initialize("prod", "user-svc.yml", "user-svc", "bob@example.com"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	current, err := s.LatestCommitID("prod", "user-svc.yml")
	if err != nil {
		t.Fatalf("LatestCommitID: %v", err)
	}
	if _, err := s.Update("prod", "user-svc.yml", "app:\n  name: user-svc\n", "update", "bob@example.com", current); err != nil {
		t.Fatalf("Update: %v", err)
	}

	history, err := s.History("prod", "user-svc.yml")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(history))
	}
}

func TestListNamespacesAndListDirectory(t *testing.T) {
	s, gw, _ := newTestStore(t)
	if err := gw.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	if err := s.Initialize("prod", "user-svc.yml", "user-svc", "bob@example.com"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	namespaces, err := s.ListNamespaces()
	if err != nil {
		t.Fatalf("ListNamespaces: %v", err)
	}
	if len(namespaces) != 1 || namespaces[0] != "prod" {
		t.Fatalf("unexpected namespaces: %v", namespaces)
	}

	names, err := s.ListDirectory("prod", "")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	found := false
	for _, n := range names {
		if n == "user-svc" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected user-svc in directory listing, got: %v", names)
	}
}

func TestCommitChangesRoundTrip(t *testing.T) {
	s, gw, _ := newTestStore(t)
	if err := gw.CreateNamespace("prod", "alice@example.com"); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}
	if err := s.Initialize("prod", "user-svc.yml", "user-svc", "bob@example.com"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	current, err := s.LatestCommitID("prod", "user-svc.yml")
	if err != nil {
		t.Fatalf("LatestCommitID: %v", err)
	}

	record, diff, err := s.CommitChanges("prod", current)
	if err != nil {
		t.Fatalf("CommitChanges: %v", err)
	}
	if record.CommitID != current {
		t.Fatalf("unexpected commit id: %q", record.CommitID)
	}
	if !strings.Contains(diff, "+") {
		t.Fatalf("expected additions in diff, got: %q", diff)
	}
}

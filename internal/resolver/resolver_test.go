package resolver

import (
	"testing"

	"go.uber.org/zap"

	"github.com/yanizio/gitconf/internal/errs"
	"github.com/yanizio/gitconf/internal/secret"
)

type fakeConfigs struct {
	files   map[string]string // "ns/path" -> raw YAML
	version string
}

func key(ns, relPath string) string { return ns + "/" + relPath }

func (f *fakeConfigs) ReadRaw(ns, relPath string) (string, error) {
	content, ok := f.files[key(ns, relPath)]
	if !ok {
		return "", errs.New(errs.CodeConfigFileNotFound, 404, "not found")
	}
	return content, nil
}

func (f *fakeConfigs) LatestCommitID(ns, relPath string) (string, error) {
	return f.version, nil
}

type fakeVault struct {
	secrets map[string]string
}

func (f *fakeVault) Get(ns string) (map[string]string, error) { return f.secrets, nil }

func TestResolveMergesBaseAppAndProfile(t *testing.T) {
	configs := &fakeConfigs{
		version: "abc1234",
		files: map[string]string{
			key("prod", "application.yml"):            "server:\n  port: 8080\n",
			key("prod", "user-svc.yml"):                "app:\n  name: user-svc\nserver:\n  port: 9090\n",
			key("prod", "user-svc-canary.yml"):         "server:\n  port: 9999\n",
		},
	}
	proc := secret.New(&fakeVault{secrets: map[string]string{}}, zap.NewNop())
	r := New(configs, proc, zap.NewNop())

	result, err := r.Resolve("user-svc", "canary", "prod")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Version != "abc1234" {
		t.Fatalf("unexpected version: %q", result.Version)
	}
	if len(result.PropertySources) != 1 {
		t.Fatalf("expected 1 property source, got %d", len(result.PropertySources))
	}
	src := result.PropertySources[0]
	if src.Name != "merged-user-svc-canary" {
		t.Fatalf("unexpected source name: %q", src.Name)
	}
	if src.Source["server.port"] != 9999 {
		t.Fatalf("expected profile overlay to win, got: %v", src.Source["server.port"])
	}
	if src.Source["app.name"] != "user-svc" {
		t.Fatalf("expected app base value preserved, got: %v", src.Source["app.name"])
	}
}

func TestResolveSubstitutesSecretsClientMode(t *testing.T) {
	configs := &fakeConfigs{
		version: "abc1234",
		files: map[string]string{
			key("prod", "user-svc.yml"): "db:\n  password: stub\n",
		},
	}
	proc := secret.New(&fakeVault{secrets: map[string]string{"db.password": "s3cret"}}, zap.NewNop())
	r := New(configs, proc, zap.NewNop())

	result, err := r.Resolve("user-svc", "", "prod")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.PropertySources[0].Source["db.password"] != "s3cret" {
		t.Fatalf("expected decrypted secret, got: %v", result.PropertySources[0].Source["db.password"])
	}
}

func TestResolveDefaultsLabelToMain(t *testing.T) {
	configs := &fakeConfigs{
		version: "abc1234",
		files: map[string]string{
			key("main", "user-svc.yml"): "app:\n  name: user-svc\n",
		},
	}
	proc := secret.New(&fakeVault{secrets: map[string]string{}}, zap.NewNop())
	r := New(configs, proc, zap.NewNop())

	result, err := r.Resolve("user-svc", "", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.PropertySources[0].Name != "merged-user-svc-default" {
		t.Fatalf("unexpected source name: %q", result.PropertySources[0].Name)
	}
}

func TestResolveNoSourcesFound(t *testing.T) {
	configs := &fakeConfigs{version: "abc1234", files: map[string]string{}}
	proc := secret.New(&fakeVault{secrets: map[string]string{}}, zap.NewNop())
	r := New(configs, proc, zap.NewNop())

	_, err := r.Resolve("missing-app", "", "prod")
	if !errs.Is(err, errs.CodeConfigFileNotFound) {
		t.Fatalf("expected CONFIG_FILE_NOT_FOUND, got: %v", err)
	}
}

func TestResolveSkipsProfileSegmentEqualToDefault(t *testing.T) {
	configs := &fakeConfigs{
		version: "abc1234",
		files: map[string]string{
			key("prod", "user-svc.yml"):         "app:\n  name: user-svc\n",
			key("prod", "user-svc-default.yml"): "app:\n  name: overridden\n",
		},
	}
	proc := secret.New(&fakeVault{secrets: map[string]string{}}, zap.NewNop())
	r := New(configs, proc, zap.NewNop())

	result, err := r.Resolve("user-svc", "default", "prod")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.PropertySources[0].Name != "merged-user-svc-default" {
		t.Fatalf("unexpected source name: %q", result.PropertySources[0].Name)
	}
	if result.PropertySources[0].Source["app.name"] != "user-svc" {
		t.Fatalf("expected user-svc-default.yml to be skipped, got app.name = %v", result.PropertySources[0].Source["app.name"])
	}
}

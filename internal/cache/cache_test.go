package cache

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestCache() *Cache {
	return New(time.Minute, zap.NewNop())
}

func TestPutGetRoundTrip(t *testing.T) {
	c := newTestCache()
	c.Put(RegionConfigContent, "prod/app.yml", "content-snapshot")

	v, ok := c.Get(RegionConfigContent, "prod/app.yml")
	if !ok {
		t.Fatalf("expected hit")
	}
	if v != "content-snapshot" {
		t.Fatalf("unexpected value: %#v", v)
	}
}

func TestEvictKey(t *testing.T) {
	c := newTestCache()
	c.Put(RegionLatestCommit, "prod/app.yml", "abc123")
	c.EvictKey(RegionLatestCommit, "prod/app.yml")

	if _, ok := c.Get(RegionLatestCommit, "prod/app.yml"); ok {
		t.Fatalf("expected miss after evict")
	}
}

func TestEvictByPrefix(t *testing.T) {
	c := newTestCache()
	c.Put(RegionConfigContent, "prod/a.yml", "A")
	c.Put(RegionConfigContent, "prod/b.yml", "B")
	c.Put(RegionConfigContent, "staging/a.yml", "C")

	c.EvictByPrefix(RegionConfigContent, "prod/")

	if _, ok := c.Get(RegionConfigContent, "prod/a.yml"); ok {
		t.Fatalf("expected prod/a.yml evicted")
	}
	if _, ok := c.Get(RegionConfigContent, "prod/b.yml"); ok {
		t.Fatalf("expected prod/b.yml evicted")
	}
	if _, ok := c.Get(RegionConfigContent, "staging/a.yml"); !ok {
		t.Fatalf("expected staging/a.yml to survive")
	}
}

func TestVaultUpdatedInvalidation(t *testing.T) {
	c := newTestCache()
	c.Put(RegionVaultSecrets, "prod", map[string]string{"db.password": "s3cret"})
	c.Put(RegionConfigContent, "prod/app.yml", "x")
	c.Put(RegionCommitDetails, "deadbeef_prod", "diff")

	c.VaultUpdated("prod")

	if _, ok := c.Get(RegionVaultSecrets, "prod"); ok {
		t.Fatalf("expected vault-secrets evicted")
	}
	if _, ok := c.Get(RegionConfigContent, "prod/app.yml"); ok {
		t.Fatalf("expected config-content evicted by namespace prefix")
	}
	if _, ok := c.Get(RegionCommitDetails, "deadbeef_prod"); ok {
		t.Fatalf("expected commit-details evicted by namespace suffix")
	}
}

func TestNamespaceDeletedClearsNamespacedRegions(t *testing.T) {
	c := newTestCache()
	c.Put(RegionNamespaces, "all", []string{"prod"})
	c.Put(RegionConfigContent, "prod/app.yml", "x")

	c.NamespaceDeleted("prod")

	if _, ok := c.Get(RegionNamespaces, "all"); ok {
		t.Fatalf("expected namespaces region cleared")
	}
	if _, ok := c.Get(RegionConfigContent, "prod/app.yml"); ok {
		t.Fatalf("expected config-content for ns cleared")
	}
}

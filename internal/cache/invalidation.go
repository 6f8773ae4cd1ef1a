package cache

// Invalidation centralizes the eviction policy of spec.md §4.3 in one table
// instead of scattering region names across call sites (the design note in
// spec.md §9). Writers call the named method for the event that occurred;
// the method performs every eviction that event requires.

// NamespaceCreatedOrDeleted: "namespaces['all']; directory-listing all".
func (c *Cache) NamespaceCreatedOrDeleted() {
	c.EvictAll(RegionNamespaces)
	c.EvictAll(RegionDirectoryListing)
}

// ConfigFileCreatedOrDeleted: "directory-listing all; namespace-events[ns];
// namespace-notifications[ns]".
func (c *Cache) ConfigFileCreatedOrDeleted(ns string) {
	c.EvictAll(RegionDirectoryListing)
	c.EvictKey(RegionNamespaceEvents, ns)
	c.EvictKey(RegionNamespaceNotifications, ns)
}

// ConfigFileUpdated: "config-content[path], commit-history[path],
// latest-commit[path], namespace-events[ns], namespace-notifications[ns]".
func (c *Cache) ConfigFileUpdated(ns, path string) {
	c.EvictKey(RegionConfigContent, path)
	c.EvictKey(RegionCommitHistory, path)
	c.EvictKey(RegionLatestCommit, path)
	c.EvictKey(RegionNamespaceEvents, ns)
	c.EvictKey(RegionNamespaceNotifications, ns)
}

// VaultUpdated: "vault-secrets[ns]; prefix eviction on config-content,
// commit-history, latest-commit by ns/; prefix eviction on commit-details by
// _ns".
func (c *Cache) VaultUpdated(ns string) {
	c.EvictKey(RegionVaultSecrets, ns)
	c.EvictByPrefix(RegionConfigContent, ns+"/")
	c.EvictByPrefix(RegionCommitHistory, ns+"/")
	c.EvictByPrefix(RegionLatestCommit, ns+"/")
	c.EvictBySuffix(RegionCommitDetails, "_"+ns)
}

// NamespaceDeleted: the vault evictions above, plus every
// config-content/commit-history/latest-commit entry prefixed by "ns/".
func (c *Cache) NamespaceDeleted(ns string) {
	c.VaultUpdated(ns)
	c.NamespaceCreatedOrDeleted()
}

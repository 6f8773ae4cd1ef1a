// internal/config/model.go
//
// Typed configuration model for the config server.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from two overlay layers:
//
//   - `conf/global.yaml` — primary static file, keyed under `configserver`
//     exactly as the spec names it,
//   - `GITCONF_`-prefixed environment overrides — highest precedence,
//     except `VAULT_MASTER_KEY`, which is read directly (no prefix) because
//     it is the one secret this process must never require a YAML file to
//     carry.
//
// Validation happens immediately after unmarshal; the process fails fast if
// required fields are missing.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`, not `yaml:"…"` — Koanf ignores `yaml`
//     tags unless configured otherwise.
//   - The `Paths` block is filled at runtime; YAML must not try to set it.
//   - Oxford commas, two spaces after periods.  No em-dash.
package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

//
// ConfigServer section
//

// ConfigServer holds the domain configuration named in spec.md §6.
type ConfigServer struct {
	BasePath          string            `koanf:"base_path"           validate:"required"`
	VaultMasterKey    string            `koanf:"vault_master_key"`
	CommitHistorySize int               `koanf:"commit_history_size"`
	CacheTTLSeconds   int               `koanf:"cache_ttl_seconds"`
	RefreshNotifyURL  map[string]string `koanf:"refresh_notify_url"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime — never set in YAML or env. The loader
// discovers `Root` (repo root or GITCONF_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // GITCONF_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the process lifetime.
type Config struct {
	HTTP         HTTP         `koanf:"http"`
	ConfigServer ConfigServer `koanf:"configserver"`
	Paths        Paths        `koanf:"-"` // not loaded from config files
}

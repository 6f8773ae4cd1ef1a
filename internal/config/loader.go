// internal/config/loader.go
//
// Configuration loader.
//
// Context
// -------
// `Load()` builds one immutable `Config` struct from three layers (highest
// precedence last):
//
//  1. Optional `.env` file at `<root>/conf/.env` (no other location is read).
//  2. `conf/global.yaml`.
//  3. Environment variables prefixed `GITCONF_`, where `__` maps to "."
//     (e.g., `GITCONF_HTTP__LISTEN_ADDR → http.listen_addr`), plus the
//     unprefixed `VAULT_MASTER_KEY` override named explicitly in spec.md §6.
//
// Instrumentation
// ---------------
//   - DEBUG spans — root discovery, YAML read, env overlay.
//   - ERROR spans — YAML parse, env overlay, unmarshal, validation.
//   - INFO  span  — final "config loaded" with key highlights.
//   - Logs use the global *sugared* logger (`zap.S()`), so early boot issues
//     surface even before the rotating file logger is installed.
//
// Notes
// -----
//   - Oxford commas, two spaces after sentence periods.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"

	"go.uber.org/zap"
)

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves GITCONF_ROOT or climbs directories until conf/global.yaml
// is found. Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("GITCONF_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, and env overrides, validates, and caches Config. It
// is safe for concurrent use.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: GITCONF_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("GITCONF_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, "GITCONF_"), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	// VAULT_MASTER_KEY is named explicitly, unprefixed, in spec.md §6 — it
	// overrides configserver.vault_master_key regardless of the GITCONF_
	// env-overlay convention above.
	if override := os.Getenv("VAULT_MASTER_KEY"); override != "" {
		cfg.ConfigServer.VaultMasterKey = override
	}
	if cfg.ConfigServer.CommitHistorySize <= 0 {
		cfg.ConfigServer.CommitHistorySize = 20
	}
	if cfg.ConfigServer.CacheTTLSeconds <= 0 {
		cfg.ConfigServer.CacheTTLSeconds = 600
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"base_path", cfg.ConfigServer.BasePath,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }

// Package secret implements the SecretProcessor (C7 in spec.md §4.7): the
// two-mode YAML transformation
// that substitutes decrypted vault values for client callers and redacts
// them for internal/management surfaces.
//
// Both modes share one recursive traversal, leafOp-parameterized, per the
// "avoid duplicating traversal code" redesign flag in spec.md §9 — the
// shape follows the teacher's habit of factoring a single walk with an
// injected per-leaf function rather than two near-identical copies (see the
// config loader's single koanf-merge pass for the same instinct).
package secret

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/gitconf/internal/yamlops"
)

// RedactedPlaceholder is the out-of-band sentinel written by internal mode
// and recognized (but never round-tripped) by client mode.
const RedactedPlaceholder = "<ENCRYPTED_VALUE>"

// VaultReader is the subset of vault.Store that SecretProcessor depends on.
// Defined here rather than imported directly to keep internal/secret free
// of a dependency on internal/vault's Git/crypto wiring; only internal/vault
// satisfies it in practice.
type VaultReader interface {
	Get(namespace string) (map[string]string, error)
}

// Processor applies client-mode and internal-mode transforms over YAML
// text, both best-effort: any error returns the original text unchanged,
// since the read path must never fail a fetch because of a secret-layer
// problem (spec.md §4.7).
type Processor struct {
	vault VaultReader
	log   *zap.Logger
}

// New constructs a Processor.
func New(vault VaultReader, log *zap.Logger) *Processor {
	return &Processor{vault: vault, log: log}
}

type leafOp func(path string, value string, secrets map[string]string) string

// ProcessForClient replaces every leaf whose dotted path is a vault key with
// the decrypted secret value. A leaf already bearing RedactedPlaceholder
// with no matching vault entry is logged and left untouched.
func (p *Processor) ProcessForClient(namespace, content string) string {
	return p.process(namespace, content, func(path, value string, secrets map[string]string) string {
		if plain, ok := secrets[path]; ok {
			return plain
		}
		if value == RedactedPlaceholder {
			p.log.Warn("encrypted placeholder with no matching vault entry",
				zap.String("namespace", namespace), zap.String("path", path))
		}
		return value
	})
}

// ProcessForInternal overwrites every leaf whose dotted path is a vault key
// with RedactedPlaceholder, so secret plaintext never reaches management or
// audit surfaces.
func (p *Processor) ProcessForInternal(namespace, content string) string {
	return p.process(namespace, content, func(path, value string, secrets map[string]string) string {
		if _, ok := secrets[path]; ok {
			return RedactedPlaceholder
		}
		return value
	})
}

func (p *Processor) process(namespace, content string, op leafOp) string {
	secrets, err := p.vault.Get(namespace)
	if err != nil {
		p.log.Warn("failed to load vault for secret processing; returning content unchanged",
			zap.String("namespace", namespace), zap.Error(err))
		return content
	}

	tree, err := yamlops.Parse(content)
	if err != nil {
		p.log.Warn("failed to parse YAML for secret processing; returning content unchanged",
			zap.String("namespace", namespace), zap.Error(err))
		return content
	}

	walk(tree, "", secrets, op)

	out, err := yamlops.Dump(tree)
	if err != nil {
		p.log.Warn("failed to dump YAML after secret processing; returning content unchanged",
			zap.String("namespace", namespace), zap.Error(err))
		return content
	}
	return out
}

// walk recursively visits every scalar leaf of tree, calling op with its
// dot-joined path and applying the result in place. Maps and slices recurse;
// anything else is treated as a leaf.
func walk(node any, prefix string, secrets map[string]string, op leafOp) any {
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			v[key] = walk(val, path, secrets, op)
		}
		return v
	case []any:
		for i, val := range v {
			v[i] = walk(val, prefix, secrets, op)
		}
		return v
	case string:
		return op(prefix, v, secrets)
	default:
		// Non-string scalars (numbers, bools, nil) go through op in their
		// string form only when their path is a vault key; otherwise they
		// are left as they are.
		if _, ok := secrets[prefix]; ok {
			return op(prefix, fmt.Sprint(v), secrets)
		}
		return v
	}
}

// Package resolver implements the pull-client contract (C9 in spec.md
// §4.9): given (application, profile, label), it loads the namespace-wide
// base, the application base, and each profile overlay, deep-merges them in
// order, flattens the result, substitutes secrets for the calling client,
// and reports the version as the latest commit ID of the application base
// file.
package resolver

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/gitconf/internal/errs"
	"github.com/yanizio/gitconf/internal/secret"
	"github.com/yanizio/gitconf/internal/validate"
	"github.com/yanizio/gitconf/internal/yamlops"
)

// ConfigReader is the subset of configstore.Store the resolver depends on.
// Declared locally so internal/resolver does not need to import
// internal/configstore's Notifier dependency for something as narrow as
// "read a file, find its latest commit".
type ConfigReader interface {
	ReadRaw(namespace, relPath string) (string, error)
	LatestCommitID(namespace, relPath string) (string, error)
}

// PropertySource is one named, flattened key/value map in the pull-client
// response (spec.md §6).
type PropertySource struct {
	Name   string
	Source map[string]any
}

// Result is the full resolve() response.
type Result struct {
	PropertySources []PropertySource
	Version         string
}

// Resolver is the Resolver component.
type Resolver struct {
	configs ConfigReader
	secrets *secret.Processor
	log     *zap.Logger
}

// New constructs a Resolver.
func New(configs ConfigReader, secrets *secret.Processor, log *zap.Logger) *Resolver {
	return &Resolver{configs: configs, secrets: secrets, log: log}
}

// Resolve implements the procedure of spec.md §4.9.
func (r *Resolver) Resolve(application, profile, label string) (Result, error) {
	if err := validate.ValidateAppName(application); err != nil {
		return Result{}, err
	}
	if err := validate.ValidateProfile(profile); err != nil {
		return Result{}, err
	}

	ns, subpath, err := splitLabel(label)
	if err != nil {
		return Result{}, err
	}
	if err := validate.ValidateNamespace(ns); err != nil {
		return Result{}, err
	}

	appBasePath := joinPath(subpath, application+".yml")

	merged := map[string]any{}
	loadedAny := false

	for _, p := range sourcePaths(subpath, application, profile) {
		tree, ok := r.loadOptional(ns, p)
		if !ok {
			continue
		}
		merged = yamlops.DeepMerge(merged, tree)
		loadedAny = true
	}

	if !loadedAny {
		return Result{}, errs.New(errs.CodeConfigFileNotFound, 404,
			"no source file found for application: "+application)
	}

	flat := yamlops.Flatten(merged)

	dumped, err := yamlops.Dump(yamlops.Unflatten(flat))
	if err != nil {
		return Result{}, errs.Wrap(errs.CodeInvalidYAML, 500, "failed to dump merged configuration", err)
	}
	substituted := r.secrets.ProcessForClient(ns, dumped)
	resolvedTree, err := yamlops.Parse(substituted)
	if err != nil {
		return Result{}, errs.Wrap(errs.CodeInvalidYAML, 500, "failed to parse secret-substituted configuration", err)
	}
	resolvedFlat := yamlops.Flatten(resolvedTree)

	version, err := r.configs.LatestCommitID(ns, appBasePath)
	if err != nil {
		return Result{}, err
	}

	profileLabel := strings.TrimSpace(profile)
	if profileLabel == "" {
		profileLabel = "default"
	}

	sourceMap := make(map[string]any, len(resolvedFlat))
	for k, v := range resolvedFlat {
		sourceMap[k] = v
	}

	return Result{
		PropertySources: []PropertySource{{
			Name:   fmt.Sprintf("merged-%s-%s", application, profileLabel),
			Source: sourceMap,
		}},
		Version: version,
	}, nil
}

// loadOptional reads and parses relPath, logging and skipping on any
// failure — a missing or malformed source is never fatal to resolution
// (spec.md §4.9, "missing source files are silently skipped").
func (r *Resolver) loadOptional(ns, relPath string) (map[string]any, bool) {
	raw, err := r.configs.ReadRaw(ns, relPath)
	if err != nil {
		r.log.Debug("resolver: source file not available, skipping",
			zap.String("namespace", ns), zap.String("path", relPath), zap.Error(err))
		return nil, false
	}

	tree, err := yamlops.Parse(raw)
	if err != nil {
		r.log.Warn("resolver: source file is not valid YAML, skipping",
			zap.String("namespace", ns), zap.String("path", relPath), zap.Error(err))
		return nil, false
	}
	return tree, true
}

// sourcePaths builds the ordered list of spec.md §4.9 step 3: namespace
// base, application base, then each profile overlay left-to-right.
func sourcePaths(subpath, application, profile string) []string {
	paths := []string{
		joinPath(subpath, "application.yml"),
		joinPath(subpath, application+".yml"),
	}
	for _, seg := range strings.Split(profile, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "default" {
			continue
		}
		paths = append(paths, joinPath(subpath, fmt.Sprintf("%s-%s.yml", application, seg)))
	}
	return paths
}

func joinPath(subpath, file string) string {
	if subpath == "" {
		return file
	}
	return strings.TrimSuffix(subpath, "/") + "/" + file
}

// splitLabel parses "<namespace>[/<subpath>]" per spec.md §4.9. A missing
// or empty label defaults to namespace "main" with an empty subpath.
func splitLabel(label string) (ns, subpath string, err error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "main", "", nil
	}
	if strings.Contains(label, "..") || strings.Contains(label, "\\") {
		return "", "", errs.New(errs.CodeInvalidPath, 400, "label contains a disallowed traversal sequence")
	}
	parts := strings.SplitN(label, "/", 2)
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], parts[1], nil
}

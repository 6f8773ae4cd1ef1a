// Package validate holds the stateless, pure validation rules enforced at
// every external boundary before any filesystem or Git operation runs.
//
// None of these functions have side effects. Each returns a *errs.Error
// carrying a stable code (see internal/errs) so callers — and the HTTP
// layer — never need to string-match messages.
//
// Struct-shaped inputs (server configuration, in internal/config) use
// github.com/go-playground/validator/v10 instead; the functions here exist
// because the identifiers the spec constrains (namespace names, paths,
// secret keys, commit IDs, profiles) are bare strings, not struct fields, so
// tag-based validation has nothing to attach to. Hand-rolled regex rules are
// the idiomatic fit for that shape.
package validate

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/yanizio/gitconf/internal/errs"
)

var (
	safeNameRE  = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9_-]*[A-Za-z0-9])?$`)
	safePathRE  = regexp.MustCompile(`^[A-Za-z0-9/_.-]+$`)
	secretSegRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	commitIDRE  = regexp.MustCompile(`^[0-9a-fA-F]{7,64}$`)
)

// reservedNamespaces mirrors the source's case-insensitive comparison
// exactly; do not "fix" this to a case-sensitive set.
var reservedNamespaces = map[string]struct{}{
	"system":    {},
	"admin":     {},
	"dashboard": {},
	"default":   {},
	"log":       {},
	"root":      {},
}

const (
	maxNamespaceLen = 50
	maxAppNameLen   = 50
	maxSecretKeyLen = 100
	maxEmailLen     = 100
	maxMessageLen   = 500
	maxProfileLen   = 200
	maxProfileSeg   = 50
)

// ValidateNamespace enforces the namespace naming rule of spec.md §3.
func ValidateNamespace(ns string) error {
	if ns == "" {
		return errs.New(errs.CodeInvalidNamespace, 400, "namespace is required")
	}
	if len(ns) > maxNamespaceLen {
		return errs.New(errs.CodeInvalidNamespace, 400, "namespace exceeds 50 characters")
	}
	if !safeNameRE.MatchString(ns) {
		return errs.New(errs.CodeInvalidNamespace, 400, "namespace has an invalid shape")
	}
	if _, reserved := reservedNamespaces[strings.ToLower(ns)]; reserved {
		return errs.New(errs.CodeInvalidNamespace, 400, "namespace name is reserved")
	}
	return nil
}

// ValidateAppName enforces the application-name rule.
func ValidateAppName(app string) error {
	if app == "" {
		return errs.New(errs.CodeInvalidAppName, 400, "appName is required")
	}
	if len(app) > maxAppNameLen {
		return errs.New(errs.CodeInvalidAppName, 400, "appName exceeds 50 characters")
	}
	if !safeNameRE.MatchString(app) {
		return errs.New(errs.CodeInvalidAppName, 400, "appName has an invalid shape")
	}
	return nil
}

// ValidateSafePath rejects traversal and restricts the character set. A
// leading slash is stripped, matching spec.md §4.1.
func ValidateSafePath(path string) (string, error) {
	if path == "" {
		return "", errs.New(errs.CodeInvalidPath, 400, "path is required")
	}
	if strings.Contains(path, "..") || strings.Contains(path, "./") || strings.Contains(path, "\\") {
		return "", errs.New(errs.CodeInvalidPath, 400, "path contains a disallowed traversal sequence")
	}
	clean := strings.TrimPrefix(path, "/")
	if clean == "" || !safePathRE.MatchString(clean) {
		return "", errs.New(errs.CodeInvalidPath, 400, "path has an invalid shape")
	}
	return clean, nil
}

// ValidateSecretKey enforces the dotted-key rule of spec.md §3.
func ValidateSecretKey(key string) error {
	if key == "" || len(key) > maxSecretKeyLen {
		return errs.New(errs.CodeInvalidSecretKey, 400, "secret key length is out of range")
	}
	if strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") || strings.Contains(key, "..") {
		return errs.New(errs.CodeInvalidSecretKey, 400, "secret key has leading, trailing, or consecutive dots")
	}
	for _, seg := range strings.Split(key, ".") {
		if !secretSegRE.MatchString(seg) {
			return errs.New(errs.CodeInvalidSecretKey, 400, "secret key segment has an invalid shape")
		}
	}
	return nil
}

// ValidateEmail enforces a basic email shape plus a length cap.
func ValidateEmail(email string) error {
	if email == "" || len(email) > maxEmailLen {
		return errs.New(errs.CodeInvalidEmail, 400, "email length is out of range")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errs.New(errs.CodeInvalidEmail, 400, "email has an invalid shape")
	}
	return nil
}

// ValidateCommitID enforces the hex, 7-64 char rule.
func ValidateCommitID(id string) error {
	if !commitIDRE.MatchString(id) {
		return errs.New(errs.CodeInvalidCommitID, 400, "commitId must be 7-64 hex characters")
	}
	return nil
}

// ValidateYAMLContent delegates to the yamlops parser; kept here as a
// boundary check so callers validate before any write, per spec.md §4.1.
// The concrete parse function is injected, so this package does not import
// internal/yamlops.
func ValidateYAMLContent(content string, parse func(string) (map[string]any, error)) error {
	if _, err := parse(content); err != nil {
		return errs.Wrap(errs.CodeInvalidYAML, 400, "content is not valid YAML", err)
	}
	return nil
}

var dangerousSubstrings = []string{"<script", "javascript:", "data:text/html"}

// ValidateCommitMessage enforces length and a basic XSS-marker denylist.
func ValidateCommitMessage(msg string) error {
	if msg == "" {
		return errs.New(errs.CodeInvalidCommitMessage, 400, "commit message is required")
	}
	if len(msg) > maxMessageLen {
		return errs.New(errs.CodeInvalidCommitMessage, 400, "commit message exceeds 500 characters")
	}
	lower := strings.ToLower(msg)
	for _, bad := range dangerousSubstrings {
		if strings.Contains(lower, bad) {
			return errs.New(errs.CodeInvalidCommitMessage, 400, "commit message contains a disallowed substring")
		}
	}
	return nil
}

// ValidateProfile enforces the comma-separated profile rule of spec.md §4.1.
func ValidateProfile(profile string) error {
	if profile == "" {
		return nil
	}
	if len(profile) > maxProfileLen {
		return errs.New(errs.CodeInvalidProfile, 400, "profile exceeds 200 characters")
	}
	for _, seg := range strings.Split(profile, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" || len(seg) > maxProfileSeg {
			return errs.New(errs.CodeInvalidProfile, 400, "profile segment length is out of range")
		}
		if seg == "default" {
			continue
		}
		if !safeNameRE.MatchString(seg) {
			return errs.New(errs.CodeInvalidProfile, 400, "profile segment has an invalid shape")
		}
	}
	return nil
}

// Package errs defines the stable error taxonomy shared by every component.
//
// Every boundary in this service — validator, repository gateway, vault
// store, config store, resolver, notifier — returns a *errs.Error rather than
// a bare error, so the HTTP layer can translate code → status mechanically
// instead of string-matching messages. Codes are intentionally exported as
// plain string constants (not an enum type) so components don't need to
// import a generated stringer.
package errs

import "fmt"

// Code is a stable, machine-readable error identifier.
type Code string

const (
	// Validation (400)
	CodeInvalidNamespace      Code = "INVALID_NAMESPACE"
	CodeInvalidPath           Code = "INVALID_PATH"
	CodeInvalidAppName        Code = "INVALID_APP_NAME"
	CodeInvalidEmail          Code = "INVALID_EMAIL"
	CodeInvalidCommitID       Code = "INVALID_COMMIT_ID"
	CodeInvalidContent        Code = "INVALID_CONTENT"
	CodeInvalidYAML           Code = "INVALID_YAML"
	CodeInvalidCommitMessage  Code = "INVALID_COMMIT_MESSAGE"
	CodeInvalidSecretKey      Code = "INVALID_SECRET_KEY"
	CodeInvalidProfile        Code = "INVALID_PROFILE"
	CodeMissingCommitID       Code = "MISSING_COMMIT_ID"
	CodeInvalidActionType     Code = "INVALID_ACTION_TYPE"

	// Namespace (404 / 409 / 500)
	CodeNamespaceNotFound      Code = "NAMESPACE_NOT_FOUND"
	CodeNamespaceAlreadyExists Code = "NAMESPACE_ALREADY_EXISTS"
	CodeNamespaceCreationFailed Code = "NAMESPACE_CREATION_FAILED"

	// Config file (404 / 409 / 500)
	CodeConfigFileNotFound      Code = "CONFIG_FILE_NOT_FOUND"
	CodeConfigFileAlreadyExists Code = "CONFIG_FILE_ALREADY_EXISTS"
	CodeConfigFileReadFailed    Code = "CONFIG_FILE_READ_FAILED"
	CodeConfigFileUpdateFailed  Code = "CONFIG_FILE_UPDATE_FAILED"
	CodeConfigFileCreationFailed Code = "CONFIG_FILE_CREATION_FAILED"

	// Concurrency (409)
	CodeConfigConflict Code = "CONFIG_CONFLICT"

	// Vault (404 / 500)
	CodeEncryptionFailed     Code = "ENCRYPTION_FAILED"
	CodeDecryptionFailed     Code = "DECRYPTION_FAILED"
	CodeKeyLoadFailed        Code = "KEY_LOAD_FAILED"
	CodeKeyInitializationFailed Code = "KEY_INITIALIZATION_FAILED"
	CodeVaultFileNotFound    Code = "VAULT_FILE_NOT_FOUND"
	CodeVaultOperationFailed Code = "VAULT_OPERATION_FAILED"
	CodeSecretNotFound       Code = "SECRET_NOT_FOUND"

	// Git (500)
	CodeGitInitFailed             Code = "GIT_INIT_FAILED"
	CodeGitCommitFailed           Code = "GIT_COMMIT_FAILED"
	CodeGitLogFailed              Code = "GIT_LOG_FAILED"
	CodeGitDiffFailed             Code = "GIT_DIFF_FAILED"
	CodeGitRepositoryAccessFailed Code = "GIT_REPOSITORY_ACCESS_FAILED"
	CodeGitOperationFailed        Code = "GIT_OPERATION_FAILED"

	// Catch-all
	CodeInternal Code = "INTERNAL_ERROR"
)

// Error is the single error shape returned across component boundaries.
type Error struct {
	Code    Code
	Status  int // HTTP status the API layer should surface
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause.
func New(code Code, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap builds an *Error that carries an underlying cause for logging.
func Wrap(code Code, status int, message string, cause error) *Error {
	return &Error{Code: code, Status: status, Message: message, Cause: cause}
}

// Is reports whether err is an *Error with the given code. Matches the
// stdlib errors.Is contract informally (no target value identity needed).
func Is(err error, code Code) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}

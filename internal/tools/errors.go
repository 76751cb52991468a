package tools

import (
	"errors"
	"strings"

	"github.com/signalridge/cruxe/internal/lifecycle"
)

// ErrorCode is one of the canonical error codes every tool handler
// converts internal errors into at the MCP/CLI boundary.
type ErrorCode string

const (
	CodeInvalidInput             ErrorCode = "invalid_input"
	CodeNotFound                 ErrorCode = "not_found"
	CodeAmbiguousSymbol          ErrorCode = "ambiguous_symbol"
	CodeWorkspaceNotRegistered   ErrorCode = "workspace_not_registered"
	CodeWorkspaceNotAllowed      ErrorCode = "workspace_not_allowed"
	CodeWorkspaceLimitExceeded   ErrorCode = "workspace_limit_exceeded"
	CodeIndexIncompatible        ErrorCode = "index_incompatible"
	CodeIndexStale               ErrorCode = "index_stale"
	CodeNotIndexed                ErrorCode = "not_indexed"
	CodeReindexRequired           ErrorCode = "reindex_required"
	CodeCorruptManifest           ErrorCode = "corrupt_manifest"
	CodeRefNotIndexed             ErrorCode = "ref_not_indexed"
	CodeOverlayNotReady           ErrorCode = "overlay_not_ready"
	CodeMergeBaseFailed           ErrorCode = "merge_base_failed"
	CodeSyncInProgress            ErrorCode = "sync_in_progress"
	CodeSemanticBackendError      ErrorCode = "semantic_backend_error"
	CodeSemanticBackendTimeout    ErrorCode = "semantic_backend_timeout"
	CodeSemanticBackendUnavailable ErrorCode = "semantic_backend_unavailable"
	CodePolicyViolation           ErrorCode = "policy_violation"
	CodeResultNotFound            ErrorCode = "result_not_found"
	CodeInternalError             ErrorCode = "internal_error"
)

// CruxeError is the typed error every MCP/CLI tool response surfaces
// in place of a raw Go error, matching spec §7's canonical codes.
type CruxeError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
}

func (e *CruxeError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// mapError classifies an internal error into a CruxeError. Internal
// packages return plain wrapped errors (fmt.Errorf("code: ...")) by
// convention; mapError recognizes the "code: " prefix used throughout
// internal/query, internal/lifecycle and internal/writer, and falls
// back to internal_error for anything unrecognized.
func mapError(err error) *CruxeError {
	if err == nil {
		return nil
	}

	var ce *CruxeError
	if errors.As(err, &ce) {
		return ce
	}

	switch {
	case errors.Is(err, lifecycle.ErrWorkspaceNotAllowed):
		return &CruxeError{Code: CodeWorkspaceNotAllowed, Message: err.Error()}
	case errors.Is(err, lifecycle.ErrWorkspaceNotRegistered):
		return &CruxeError{Code: CodeWorkspaceNotRegistered, Message: err.Error()}
	case errors.Is(err, lifecycle.ErrSyncInProgress):
		return &CruxeError{Code: CodeSyncInProgress, Message: err.Error(), Retryable: true}
	}

	msg := err.Error()
	for _, code := range []ErrorCode{
		CodeInvalidInput, CodeNotFound, CodeAmbiguousSymbol,
		CodeWorkspaceNotRegistered, CodeWorkspaceNotAllowed, CodeWorkspaceLimitExceeded,
		CodeIndexIncompatible, CodeIndexStale, CodeNotIndexed, CodeReindexRequired,
		CodeCorruptManifest, CodeRefNotIndexed, CodeOverlayNotReady, CodeMergeBaseFailed,
		CodeSyncInProgress, CodeSemanticBackendError, CodeSemanticBackendTimeout,
		CodeSemanticBackendUnavailable, CodePolicyViolation, CodeResultNotFound,
	} {
		if strings.HasPrefix(msg, string(code)+":") {
			return &CruxeError{Code: code, Message: strings.TrimSpace(strings.TrimPrefix(msg, string(code)+":"))}
		}
	}

	return &CruxeError{Code: CodeInternalError, Message: msg}
}

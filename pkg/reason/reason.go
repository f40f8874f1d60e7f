// Package reason is the canonical reason-code taxonomy. Every denial or
// degradation produced by the engine carries one of these codes, and the
// human message plus remediation hint are always derived here so the same
// code yields the same hint everywhere.
package reason

import "strings"

const (
	CodeOK                    = "OK"
	CodeMissingParams         = "MISSING_PARAMS"
	CodeNotFound              = "NOT_FOUND"
	CodePermissionDenied      = "PERMISSION_DENIED"
	CodeFeatureDisabled       = "FEATURE_DISABLED"
	CodeBusinessRuleFailed    = "BUSINESS_RULE_FAILED"
	CodeUnsupportedButtonType = "UNSUPPORTED_BUTTON_TYPE"
	CodeInternalError         = "INTERNAL_ERROR"
)

type Entry struct {
	Code            string `json:"code"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggested_action"`
}

var entriesByCode = map[string]Entry{
	CodeOK: {
		Code:            CodeOK,
		Message:         "ok",
		SuggestedAction: "",
	},
	CodeMissingParams: {
		Code:            CodeMissingParams,
		Message:         "required parameters are missing",
		SuggestedAction: "retry with the missing parameters filled in",
	},
	CodeNotFound: {
		Code:            CodeNotFound,
		Message:         "the requested object does not exist",
		SuggestedAction: "check the key and retry",
	},
	CodePermissionDenied: {
		Code:            CodePermissionDenied,
		Message:         "the actor is not permitted to use this capability",
		SuggestedAction: "request access from an administrator",
	},
	CodeFeatureDisabled: {
		Code:            CodeFeatureDisabled,
		Message:         "the required feature flag is disabled for this company",
		SuggestedAction: "enable the feature flag or wait for rollout",
	},
	CodeBusinessRuleFailed: {
		Code:            CodeBusinessRuleFailed,
		Message:         "a business rule blocked this operation",
		SuggestedAction: "resolve the reported rule violation and retry",
	},
	CodeUnsupportedButtonType: {
		Code:            CodeUnsupportedButtonType,
		Message:         "the action type is not supported by this client",
		SuggestedAction: "wait for a release that supports this action type",
	},
	CodeInternalError: {
		Code:            CodeInternalError,
		Message:         "an unexpected internal error occurred",
		SuggestedAction: "retry; contact support if the error persists",
	},
}

// Lookup returns the taxonomy entry for code. Unknown codes map to the
// INTERNAL_ERROR entry with the original code echoed back, so callers can
// always render something.
func Lookup(code string) Entry {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if entry, ok := entriesByCode[normalized]; ok {
		return entry
	}
	fallback := entriesByCode[CodeInternalError]
	fallback.Code = normalized
	return fallback
}

// Known reports whether code is part of the taxonomy.
func Known(code string) bool {
	_, ok := entriesByCode[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Codes returns all taxonomy codes in stable order.
func Codes() []string {
	return []string{
		CodeOK,
		CodeMissingParams,
		CodeNotFound,
		CodePermissionDenied,
		CodeFeatureDisabled,
		CodeBusinessRuleFailed,
		CodeUnsupportedButtonType,
		CodeInternalError,
	}
}

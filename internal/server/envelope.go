package server

import (
	"net/http"

	"github.com/hardhat-labs/scenecontract/internal/routing"
	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

type responseMeta struct {
	ContractMode string `json:"contract_mode,omitempty"`
	Fingerprint  string `json:"fingerprint,omitempty"`
	TraceID      string `json:"trace_id,omitempty"`
	HUD          any    `json:"hud,omitempty"`
}

type responseEnvelope struct {
	OK   bool          `json:"ok"`
	Data any           `json:"data,omitempty"`
	Meta *responseMeta `json:"meta,omitempty"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type errorEnvelope struct {
	OK    bool          `json:"ok"`
	Error errorBody     `json:"error"`
	Meta  *responseMeta `json:"meta,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, data any, meta *responseMeta) {
	routing.WriteJSON(w, status, responseEnvelope{OK: true, Data: data, Meta: meta})
}

func writeAPIError(w http.ResponseWriter, status int, code string, message string, traceID string) {
	routing.WriteJSON(w, status, errorEnvelope{
		Error: errorBody{
			Code:      code,
			Message:   message,
			Retryable: code == reason.CodeInternalError,
		},
		Meta: &responseMeta{TraceID: traceID},
	})
}

// writeVerbError maps the sentinel governance codes onto statuses. Unknown
// errors are store faults and surface as retryable INTERNAL_ERROR.
func writeVerbError(w http.ResponseWriter, err error, traceID string) {
	code := err.Error()
	switch code {
	case channelReasonRequiredCode, channelInvalidCode, contractModeInvalidCode, idempotencyWindowRequiredCode:
		writeAPIError(w, http.StatusBadRequest, code, governanceErrorMessage(code), traceID)
	case channelUnknownCode:
		writeAPIError(w, http.StatusNotFound, code, governanceErrorMessage(code), traceID)
	case channelPinMissingCode, snapshotVersionStaleCode:
		writeAPIError(w, http.StatusConflict, code, governanceErrorMessage(code), traceID)
	default:
		if isBadRequestError(err) {
			writeAPIError(w, http.StatusBadRequest, err.Error(), "bad request", traceID)
			return
		}
		if isPgInvalidInput(err) {
			writeAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid input", traceID)
			return
		}
		if msg := stablePgMessage(err); isStableDBCode(msg) {
			writeAPIError(w, http.StatusConflict, msg, "constraint violation", traceID)
			return
		}
		writeAPIError(w, http.StatusInternalServerError, reason.CodeInternalError, "internal error", traceID)
	}
}

func governanceErrorMessage(code string) string {
	switch code {
	case channelReasonRequiredCode:
		return "a substantive reason is required"
	case channelInvalidCode:
		return "unknown channel"
	case channelPinMissingCode:
		return "no stable pin to roll back"
	case channelUnknownCode:
		return "no snapshot published for channel"
	case snapshotVersionStaleCode:
		return "snapshot version must move forward"
	case contractModeInvalidCode:
		return "contract mode must be user or hud"
	case idempotencyWindowRequiredCode:
		return "window seconds or a waiver reason is required"
	default:
		return "governance request rejected"
	}
}

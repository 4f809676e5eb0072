// Package httpx provides the JSON envelope helpers shared by all handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

type okEnvelope struct {
	Msg    string `json:"msg"`
	Result []any  `json:"result,omitempty"`
}

type rejectEnvelope struct {
	Msg   string `json:"msg"`
	Error string `json:"error"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends the success envelope {"msg":"ok","result":[...]}.
func OK(w http.ResponseWriter, result ...any) {
	JSON(w, http.StatusOK, okEnvelope{Msg: "ok", Result: result})
}

// Reject sends the rejection envelope {"msg":"no","error":reason}. Reasons
// stay short and generic: the payload never distinguishes unknown user from
// wrong password from bad token.
func Reject(w http.ResponseWriter, status int, reason string) {
	JSON(w, status, rejectEnvelope{Msg: "no", Error: reason})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

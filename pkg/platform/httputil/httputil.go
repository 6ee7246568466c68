// Package httputil provides JSON response and decode helpers shared by all
// HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "erpcore/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a JSON error response. Internal
// errors keep their description out of the body; everything a client can act
// on is in the code.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		body["error_description"] = dErrors.GetMessage(err)
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// Decode unmarshals a JSON request body into T. A malformed body is reported
// to the client directly; the second return tells the handler to stop.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return v, false
	}
	return v, true
}

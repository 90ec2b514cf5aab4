package errs

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"greenmag/log"
)

// codes maps application error codes to http status codes.
var codes = map[string]int{
	EINVALID:      http.StatusBadRequest,
	EUNAUTHORIZED: http.StatusUnauthorized,
	EFORBIDDEN:    http.StatusForbidden,
	ENOTFOUND:     http.StatusNotFound,
	ECONFLICT:     http.StatusConflict,
	EINTERNAL:     http.StatusInternalServerError,
}

// StatusCode returns the http status code associated with an application error code.
func StatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// errorResponse is the json body written for every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// ReturnError writes err as a json error response. Internal errors are logged
// with their cause, the client only ever sees a generic message for them.
func ReturnError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := ErrorCode(err), ErrorMessage(err)
	if code == EINTERNAL {
		LogError(r, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusCode(code))
	json.NewEncoder(w).Encode(&errorResponse{
		Error: message,
		Code:  code,
		Field: ErrorField(err),
	})
}

// LogError logs an error together with the request that caused it.
func LogError(r *http.Request, err error) {
	log.Log.WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": r.Header.Get("X-Request-ID"),
	}).WithError(err).Error("request failed")
}

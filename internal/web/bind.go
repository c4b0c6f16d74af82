package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"wine-classifier/internal/features"
	"wine-classifier/internal/ml"

	"github.com/gorilla/schema"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 64 << 10

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func codedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

// errorResponse is the JSON body of every failed API call.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var verr *features.ValidationError
	var cerr *codedError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ml.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &cerr):
		return cerr.code
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) errorResponse {
	body := errorResponse{Error: err.Error()}
	var verr *features.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("internal server error")
	}
	writeJSON(w, status, errorBody(err))
}

// restHandler adapts a handler returning a value or an error.
func restHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if res == nil {
			res = struct{}{}
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, codedErrorf(http.StatusBadRequest, "read body: %v", err)
	}
	if len(data) > maxBodyBytes {
		return nil, codedErrorf(http.StatusRequestEntityTooLarge, "body exceeds %d bytes", maxBodyBytes)
	}
	return data, nil
}

// decodeObservation parses a JSON object carrying all nine measurements.
// Missing columns are reported per field; unknown columns are rejected.
func decodeObservation(data []byte) (features.RawObservation, error) {
	var raw features.RawObservation

	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return raw, codedErrorf(http.StatusBadRequest, "invalid JSON: %v", err)
	}

	unknown := make([]string, 0)
	for k := range present {
		if _, ok := features.ControlByName(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return raw, codedErrorf(http.StatusBadRequest, "unknown fields %v", unknown)
	}

	missing := make(map[string]string)
	for _, c := range features.Controls {
		if _, ok := present[c.Name]; !ok {
			missing[c.Name] = c.Name + " is required"
		}
	}
	if len(missing) > 0 {
		return raw, &features.ValidationError{Fields: missing}
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return raw, codedErrorf(http.StatusBadRequest, "invalid JSON: %v", err)
	}
	return raw, nil
}

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// decodeForm overlays submitted form values on the default observation.
func decodeForm(values url.Values) (features.RawObservation, error) {
	raw := features.DefaultObservation()
	if err := formDecoder.Decode(&raw, values); err != nil {
		var merr schema.MultiError
		if errors.As(err, &merr) {
			fields := make(map[string]string, len(merr))
			for k := range merr {
				fields[k] = k + " must be a number"
			}
			return raw, &features.ValidationError{Fields: fields}
		}
		return raw, codedErrorf(http.StatusBadRequest, "decode form: %v", err)
	}
	return raw, nil
}

package main

import (
	"encoding/json"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/models"
	"io"
	"log/slog"
	"net/http"
)

// maxBodyBytes caps JSON request bodies. Case facts and edited documents fit comfortably.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps the failure kinds of the case workflow to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUpstreamParse), errors.Is(err, models.ErrUpstreamCall):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	out, err := json.Marshal(data)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

// readJSON decodes the request body into dst. Malformed bodies are reported as validation failures.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(models.Classify(models.ErrValidation, err), "decode request body")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.Wrap(models.ErrValidation, "request body must contain a single JSON value")
	}
	return nil
}

// errorResponse writes err as a JSON error body. Internal failures are logged and their details hidden from the
// client.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		app.serverError(w, r, err)
		return
	}
	level := slog.LevelDebug
	if status == http.StatusBadGateway || status == http.StatusConflict {
		level = slog.LevelWarn
	}
	app.logger.LogAttrs(r.Context(), level, http.StatusText(status),
		slog.String("method", r.Method), slog.String("uri", r.URL.RequestURI()), errors.SlogError(err))
	app.writeJSON(w, r, status, errorResponse{Error: models.ErrorKind(err), Message: err.Error()})
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeStatus(w, http.StatusInternalServerError, models.ErrorKind(err))
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, kind string) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, http.StatusText(status),
		slog.String("method", r.Method), slog.String("uri", r.URL.RequestURI()))
	app.writeStatus(w, status, kind)
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, "not_found")
}

// writeStatus writes a JSON error body with the standard status text as the message.
func (app *application) writeStatus(w http.ResponseWriter, status int, kind string) {
	out, _ := json.Marshal(errorResponse{Error: kind, Message: http.StatusText(status)})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

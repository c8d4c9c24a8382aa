package main

import (
	"context"
	"net/http"
	"time"
)

const timeoutBody = `{"error":"timeout","message":"the request took too long"}`

// timeoutHandler responds with a 503 Service Unavailable error when the handler does not meet the deadline.
func timeoutHandler(h http.Handler, timeout time.Duration) http.Handler {
	// We want the timeout to be a little shorter than the server's read timeout so that the
	// timeout handler has a chance to respond before the server closes the connection.
	httpHandlerTimeout := timeout - 500*time.Millisecond //nolint:mnd // 500ms
	return http.TimeoutHandler(h, httpHandlerTimeout, timeoutBody)
}

func (app *application) quickTimeout(next http.Handler) http.Handler {
	return timeoutHandler(next, defaultTimeout)
}

// llmDeadline cancels the request context after llmTimeout. The reasoning call fails with the context error which
// the handlers report as an upstream failure.
func (app *application) llmDeadline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), app.llmTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package webauthnhandler

import (
	"crypto/sha256"
	"encoding/hex"
	"github.com/myrjola/casefile/internal/contexthelpers"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/logging"
	"log/slog"
	"net/http"
)

// AuthenticateMiddleware marks the request context as authenticated when the session belongs to a known
// investigator. It never rejects requests.
func (h *WebAuthnHandler) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		investigatorID := h.sessionManager.GetBytes(ctx, string(investigatorIDSessionKey))

		// Investigator has not yet authenticated.
		if investigatorID == nil {
			next.ServeHTTP(w, r)
			return
		}

		exists, err := h.investigatorExists(ctx, investigatorID)
		if err != nil {
			h.logger.LogAttrs(ctx, slog.LevelError, "server error",
				slog.String("method", r.Method), slog.String("uri", r.URL.RequestURI()), errors.SlogError(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if exists {
			r = contexthelpers.AuthenticateContext(r, investigatorID)
		}

		// Hash token with sha256 to avoid leaking it in logs.
		token := h.sessionManager.Token(ctx)
		tokenHash := sha256.Sum256([]byte(token))
		ctx = logging.WithAttrs(r.Context(),
			slog.String("session_hash", hex.EncodeToString(tokenHash[:])),
			slog.String("investigator_id", hex.EncodeToString(investigatorID)),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package contexthelpers

import (
	"context"
	"net/http"
)

func AuthenticateContext(r *http.Request, investigatorID []byte) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, isAuthenticatedContextKey, true)
	ctx = context.WithValue(ctx, authenticatedInvestigatorIDContextKey, investigatorID)
	return r.WithContext(ctx)
}

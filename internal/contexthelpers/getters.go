package contexthelpers

import (
	"context"
	"encoding/hex"
)

func IsAuthenticated(ctx context.Context) bool {
	isAuthenticated, ok := ctx.Value(isAuthenticatedContextKey).(bool)
	if !ok {
		return false
	}

	return isAuthenticated
}

func AuthenticatedInvestigatorID(ctx context.Context) []byte {
	investigatorID, ok := ctx.Value(authenticatedInvestigatorIDContextKey).([]byte)
	if !ok {
		return nil
	}

	return investigatorID
}

// InvestigatorKey is the hex form of the authenticated investigator ID used as the owner of cases. Empty when the
// request is anonymous.
func InvestigatorKey(ctx context.Context) string {
	return hex.EncodeToString(AuthenticatedInvestigatorID(ctx))
}

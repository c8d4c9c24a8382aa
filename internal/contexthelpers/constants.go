package contexthelpers

type contextKey string

const isAuthenticatedContextKey = contextKey("isAuthenticated")
const authenticatedInvestigatorIDContextKey = contextKey("authenticatedInvestigatorID")

package webauthnhandler

import (
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/require"
	"testing"
)

var _ webauthn.User = investigator{}

func TestNewAnonymousInvestigator(t *testing.T) {
	first, err := newAnonymousInvestigator()
	require.NoError(t, err)
	second, err := newAnonymousInvestigator()
	require.NoError(t, err)

	require.Len(t, first.WebAuthnID(), webauthnIDSize)
	require.NotEqual(t, first.WebAuthnID(), second.WebAuthnID())
	require.Contains(t, first.WebAuthnName(), "Investigator registered at")
	require.Equal(t, first.WebAuthnName(), first.WebAuthnDisplayName())
	require.Empty(t, first.WebAuthnCredentials())
	require.Empty(t, first.(*investigator).WebAuthnIcon())
}

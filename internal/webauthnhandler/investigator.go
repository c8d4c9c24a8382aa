package webauthnhandler

import (
	"crypto/rand"
	"fmt"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/myrjola/casefile/internal/errors"
	"time"
)

// investigator implements [webauthn.User].
type investigator struct {
	id          []byte
	displayName string
	credentials []webauthn.Credential
}

const webauthnIDSize = 64

// newAnonymousInvestigator initialises an investigator with random ID and a display name derived from the
// registration time.
func newAnonymousInvestigator() (webauthn.User, error) {
	id := make([]byte, webauthnIDSize)
	if _, err := rand.Read(id); err != nil {
		return nil, errors.Wrap(err, "generate investigator id")
	}

	return &investigator{
		displayName: fmt.Sprintf("Investigator registered at %s", time.Now().Format(time.RFC3339)),
		id:          id,
		credentials: []webauthn.Credential{},
	}, nil
}

// WebAuthnID is the random user handle. Authentication decisions are made on it, never on the names.
func (u investigator) WebAuthnID() []byte {
	return u.id
}

// WebAuthnName is shown by the authenticator. Investigators stay anonymous so it is the generated display name.
func (u investigator) WebAuthnName() string {
	return u.displayName
}

// WebAuthnDisplayName is the same as [investigator.WebAuthnName].
func (u investigator) WebAuthnDisplayName() string {
	return u.displayName
}

// WebAuthnCredentials provides the list of [webauthn.Credential] owned by the user.
func (u investigator) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

// WebAuthnIcon is a deprecated option.
// Deprecated: this has been removed from the specification recommendation. Suggest a blank string.
func (u investigator) WebAuthnIcon() string {
	return ""
}

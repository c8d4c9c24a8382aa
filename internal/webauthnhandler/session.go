package webauthnhandler

type sessionKey string

const webAuthnSessionKey = sessionKey("webauthn")
const investigatorIDSessionKey = sessionKey("investigatorID")

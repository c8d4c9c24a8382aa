package main

import (
	"github.com/justinas/alice"
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave, app.noSurf, app.webAuthnHandler.AuthenticateMiddleware)
	quick := session.Append(app.quickTimeout)
	authenticated := quick.Append(app.requireAuthentication)
	// The routes waiting for the reasoning service get a longer deadline instead of the timeout handler.
	reasoning := session.Append(app.requireAuthentication, app.llmDeadline)

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.Handle("GET /api/csrf", quick.ThenFunc(app.csrfToken))

	mux.Handle("POST /api/registration/start", quick.ThenFunc(app.beginRegistration))
	mux.Handle("POST /api/registration/finish", quick.ThenFunc(app.finishRegistration))
	mux.Handle("POST /api/login/start", quick.ThenFunc(app.beginLogin))
	mux.Handle("POST /api/login/finish", quick.ThenFunc(app.finishLogin))
	mux.Handle("POST /api/logout", quick.ThenFunc(app.logout))

	mux.Handle("POST /api/cases", reasoning.ThenFunc(app.createCase))
	mux.Handle("GET /api/cases", authenticated.ThenFunc(app.listCases))
	mux.Handle("GET /api/cases/{caseID}", authenticated.ThenFunc(app.getCase))
	mux.Handle("POST /api/cases/{caseID}/answers", authenticated.ThenFunc(app.submitAnswers))
	mux.Handle("POST /api/cases/{caseID}/analysis", reasoning.ThenFunc(app.analyzeCase))
	mux.Handle("PATCH /api/cases/{caseID}/steps/{stepID}", authenticated.ThenFunc(app.updateStep))
	mux.Handle("POST /api/cases/{caseID}/alerts/{alertID}/resolve", authenticated.ThenFunc(app.resolveAlert))
	mux.Handle("POST /api/cases/{caseID}/documents/{docType}", reasoning.ThenFunc(app.generateDocument))
	mux.Handle("PUT /api/cases/{caseID}/documents/{docType}", authenticated.ThenFunc(app.updateDocument))
	mux.Handle("GET /api/cases/{caseID}/documents/{docType}/pdf", authenticated.ThenFunc(app.documentPDF))

	mux.HandleFunc("/", app.notFound)

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}

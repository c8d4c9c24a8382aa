package main

import (
	"bytes"
	"github.com/myrjola/casefile/internal/contexthelpers"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/models"
	"github.com/myrjola/casefile/internal/render"
	"log/slog"
	"net/http"
)

type createCaseRequest struct {
	Facts models.Facts `json:"facts"`
}

type submitAnswersRequest struct {
	Answers map[string]any `json:"answers"`
}

type updateStepRequest struct {
	Status models.StepStatus `json:"status"`
}

type updateDocumentRequest struct {
	Content string `json:"content"`
}

type documentResponse struct {
	DocumentType models.DocumentType `json:"documentType"`
	Content      string              `json:"content"`
}

// ownedCase loads the case named in the path. Cases of other investigators are reported as missing.
func (app *application) ownedCase(w http.ResponseWriter, r *http.Request) (*models.Case, bool) {
	caseID := r.PathValue("caseID")
	c, err := app.cases.Case(r.Context(), caseID)
	if err != nil {
		app.errorResponse(w, r, err)
		return nil, false
	}
	if c.InvestigatorID != contexthelpers.InvestigatorKey(r.Context()) {
		app.errorResponse(w, r, errors.Wrap(models.ErrNotFound, "case not found", slog.String("case_id", caseID)))
		return nil, false
	}
	return c, true
}

func documentType(r *http.Request) (models.DocumentType, error) {
	docType := models.DocumentType(r.PathValue("docType"))
	if !docType.Valid() {
		return "", errors.Wrap(models.ErrValidation, "unknown document type", slog.String("type", string(docType)))
	}
	return docType, nil
}

func (app *application) createCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := readJSON(w, r, &req); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	c, err := app.cases.CreateCase(r.Context(), contexthelpers.InvestigatorKey(r.Context()), req.Facts)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/cases/"+c.ID)
	app.writeJSON(w, r, http.StatusCreated, c)
}

func (app *application) listCases(w http.ResponseWriter, r *http.Request) {
	cases, err := app.cases.Cases(r.Context(), contexthelpers.InvestigatorKey(r.Context()))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if cases == nil {
		cases = []models.Case{}
	}
	app.writeJSON(w, r, http.StatusOK, cases)
}

func (app *application) getCase(w http.ResponseWriter, r *http.Request) {
	c, ok := app.ownedCase(w, r)
	if !ok {
		return
	}
	app.writeJSON(w, r, http.StatusOK, c)
}

func (app *application) submitAnswers(w http.ResponseWriter, r *http.Request) {
	var req submitAnswersRequest
	if err := readJSON(w, r, &req); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	c, ok := app.ownedCase(w, r)
	if !ok {
		return
	}
	c, err := app.cases.SubmitAnswers(r.Context(), c.ID, req.Answers)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, c)
}

func (app *application) analyzeCase(w http.ResponseWriter, r *http.Request) {
	c, ok := app.ownedCase(w, r)
	if !ok {
		return
	}
	analysis, err := app.cases.Analyze(r.Context(), c.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, analysis)
}

func (app *application) updateStep(w http.ResponseWriter, r *http.Request) {
	var req updateStepRequest
	if err := readJSON(w, r, &req); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if !req.Status.Valid() {
		app.errorResponse(w, r, errors.Wrap(models.ErrValidation, "unknown step status",
			slog.String("status", string(req.Status))))
		return
	}
	c, ok := app.ownedCase(w, r)
	if !ok {
		return
	}
	analysis, err := app.cases.UpdateStepStatus(r.Context(), c.ID, r.PathValue("stepID"), req.Status)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, analysis)
}

func (app *application) resolveAlert(w http.ResponseWriter, r *http.Request) {
	c, ok := app.ownedCase(w, r)
	if !ok {
		return
	}
	analysis, err := app.cases.ResolveAlert(r.Context(), c.ID, r.PathValue("alertID"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, analysis)
}

func (app *application) generateDocument(w http.ResponseWriter, r *http.Request) {
	docType, err := documentType(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	c, ok := app.ownedCase(w, r)
	if !ok {
		return
	}
	content, err := app.cases.GenerateDocument(r.Context(), c.ID, docType)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, documentResponse{DocumentType: docType, Content: content})
}

func (app *application) updateDocument(w http.ResponseWriter, r *http.Request) {
	docType, err := documentType(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	var req updateDocumentRequest
	if err = readJSON(w, r, &req); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	c, ok := app.ownedCase(w, r)
	if !ok {
		return
	}
	analysis, err := app.cases.UpdateDocument(r.Context(), c.ID, docType, req.Content)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, analysis)
}

func (app *application) documentPDF(w http.ResponseWriter, r *http.Request) {
	docType, err := documentType(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	c, ok := app.ownedCase(w, r)
	if !ok {
		return
	}
	var doc *models.Document
	if c.Analysis != nil {
		doc = c.Analysis.Document(docType)
	}
	if doc == nil {
		app.errorResponse(w, r, errors.Wrap(models.ErrNotFound, "document not drafted",
			slog.String("type", string(docType))))
		return
	}
	var buf bytes.Buffer
	if err = render.DocumentPDF(&buf, doc); err != nil {
		app.serverError(w, r, err)
		return
	}
	name := render.FileName(doc)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, render.Stamp(doc), bytes.NewReader(buf.Bytes()))
}

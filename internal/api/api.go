/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes plan generation, feedback and exports over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/courtcycle/internal/drills"
	"github.com/friendsincode/courtcycle/internal/export"
	"github.com/friendsincode/courtcycle/internal/planner"
	"github.com/friendsincode/courtcycle/internal/plans"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// API exposes HTTP handlers.
type API struct {
	plans    *plans.Service
	exporter *export.Exporter
	catalog  *drills.Catalog
	logger   zerolog.Logger
}

// New creates the API router wrapper.
func New(svc *plans.Service, exporter *export.Exporter, logger zerolog.Logger) *API {
	if exporter == nil {
		exporter = export.NewExporter(nil, nil, logger)
	}
	return &API{
		plans:    svc,
		exporter: exporter,
		catalog:  svc.Engine().Catalog(),
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts the API endpoints on r.
func (a *API) Routes(r chi.Router) {
	r.Get("/healthz", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/plan", a.handlePlanCreate)
		r.Get("/plan/{planID}", a.handlePlanGet)
		r.Get("/plan/{planID}/feedback", a.handlePlanFeedback)
		r.Get("/templates", a.handleTemplates)
		r.Post("/feedback", a.handleFeedbackCreate)
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/csv", a.handleExport(export.FormatCSV))
		r.Get("/pdf", a.handleExport(export.FormatPDF))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

// writeServiceError maps service errors onto HTTP statuses. Unexpected
// errors are logged and reported as 500.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrInvalidRequest):
		writeErrorDetail(w, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, plans.ErrInvalidFeedback):
		writeErrorDetail(w, http.StatusBadRequest, "invalid_feedback", err)
	case errors.Is(err, plans.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		a.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeErrorDetail(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, map[string]string{"error": code, "detail": err.Error()})
}

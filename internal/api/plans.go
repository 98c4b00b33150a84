/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/courtcycle/internal/drills"
	"github.com/friendsincode/courtcycle/internal/planner"
	"github.com/friendsincode/courtcycle/internal/plans"
)

type legacyLoadRecord struct {
	Semana     int     `json:"semana"`
	CargaTotal float64 `json:"carga_total"`
}

// planRequest accepts the English field names and the older Spanish ones.
// English fields win when both are present.
type planRequest struct {
	plans.GenerateInput

	Nivel             string             `json:"nivel"`
	Semanas           int                `json:"semanas"`
	Disponibilidad    []string           `json:"disponibilidad"`
	DuracionSesionMin int                `json:"duracion_sesion_min"`
	Objetivos         []string           `json:"objetivos"`
	Equipamiento      []string           `json:"equipamiento"`
	HistorialCarga    []legacyLoadRecord `json:"historial_carga"`
	FechaInicio       string             `json:"fecha_inicio"`
}

func (p planRequest) input() plans.GenerateInput {
	in := p.GenerateInput
	if in.Level == "" {
		in.Level = p.Nivel
	}
	if in.Weeks == 0 {
		in.Weeks = p.Semanas
	}
	if len(in.Availability) == 0 {
		in.Availability = p.Disponibilidad
	}
	if in.SessionMinutes == 0 {
		in.SessionMinutes = p.DuracionSesionMin
	}
	if len(in.Objectives) == 0 {
		in.Objectives = p.Objetivos
	}
	if len(in.Equipment) == 0 {
		in.Equipment = p.Equipamiento
	}
	if len(in.History) == 0 && len(p.HistorialCarga) > 0 {
		in.History = make([]planner.LoadRecord, len(p.HistorialCarga))
		for i, h := range p.HistorialCarga {
			in.History[i] = planner.LoadRecord{Week: h.Semana, TotalLoad: h.CargaTotal}
		}
	}
	if in.StartDate == "" {
		in.StartDate = p.FechaInicio
	}
	return in
}

// feedbackRequest accepts both key sets. English keys win when both are sent.
type feedbackRequest struct {
	PlanID        string `json:"plan_id"`
	WeekIdx       int    `json:"week_idx"`
	CompliancePct *int   `json:"compliance_pct"`
	AvgRPE        *int   `json:"avg_rpe"`
	Notes         string `json:"notes"`

	CumplimientoPct *int   `json:"cumplimiento_pct"`
	RPEPromedio     *int   `json:"rpe_promedio"`
	Notas           string `json:"notas"`
}

func firstSet(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func (f feedbackRequest) input() plans.FeedbackInput {
	in := plans.FeedbackInput{
		PlanID:        f.PlanID,
		WeekIdx:       f.WeekIdx,
		CompliancePct: firstSet(f.CompliancePct, f.CumplimientoPct),
		AvgRPE:        firstSet(f.AvgRPE, f.RPEPromedio),
		Notes:         f.Notes,
	}
	if in.Notes == "" {
		in.Notes = f.Notas
	}
	return in
}

func (a *API) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := a.plans.Generate(r.Context(), req.input())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handlePlanGet(w http.ResponseWriter, r *http.Request) {
	plan, err := a.plans.Get(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan": plan})
}

func (a *API) handlePlanFeedback(w http.ResponseWriter, r *http.Request) {
	list, err := a.plans.Feedback(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": list})
}

func (a *API) handleFeedbackCreate(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := req.input()
	if strings.TrimSpace(in.PlanID) == "" {
		writeError(w, http.StatusBadRequest, "plan_id_required")
		return
	}

	fb, err := a.plans.RecordFeedback(r.Context(), in)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "feedback": fb})
}

// handleTemplates lists catalog drills. Without an equipment parameter the
// equipment filter is off; equipment=none restricts to drills needing none.
func (a *API) handleTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := drills.Query{
		Category:  q.Get("category"),
		Intensity: q.Get("intensity"),
	}
	if q.Has("equipment") {
		query.RestrictEquipment = true
		for _, raw := range q["equipment"] {
			for _, item := range strings.Split(raw, ",") {
				if item = strings.TrimSpace(item); item != "" && item != "none" {
					query.Equipment = append(query.Equipment, item)
				}
			}
		}
	}

	found := a.catalog.Filter(query)
	if found == nil {
		found = []drills.Drill{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"drills": found})
}

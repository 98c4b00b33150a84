/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/friendsincode/courtcycle/internal/export"
)

func (a *API) handleExport(f export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID := strings.TrimSpace(r.URL.Query().Get("plan_id"))
		if planID == "" {
			writeError(w, http.StatusBadRequest, "plan_id_required")
			return
		}

		plan, err := a.plans.Get(r.Context(), planID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}

		data, err := a.exporter.Render(r.Context(), plan, f)
		if err != nil {
			a.logger.Error().Err(err).Str("plan_id", planID).Str("format", string(f)).Msg("render export")
			writeError(w, http.StatusInternalServerError, "export_failed")
			return
		}

		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename(plan.ID, f)))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

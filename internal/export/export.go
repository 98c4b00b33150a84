/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package export renders stored plans as CSV or PDF documents and archives
// the rendered files.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"github.com/friendsincode/courtcycle/internal/events"
	"github.com/friendsincode/courtcycle/internal/models"
	"github.com/friendsincode/courtcycle/internal/storage"
	"github.com/friendsincode/courtcycle/internal/telemetry"
)

// Format is an export document type.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Filename is the download name for a plan export.
func Filename(planID string, f Format) string {
	return fmt.Sprintf("plan_%s.%s", planID, f)
}

// Key is the archive object key for a plan export.
func Key(planID string, f Format) string {
	return "exports/" + Filename(planID, f)
}

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"plan_id", "week_idx", "day", "intensity", "duration_min", "rpe", "load", "block_type", "block_min", "block_desc"}

// WriteCSV writes one row per block. Sessions without blocks produce no rows.
func WriteCSV(w io.Writer, plan *models.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, s := range plan.Sessions {
		for _, b := range s.Blocks {
			row := []string{
				plan.ID,
				strconv.Itoa(s.WeekIdx),
				s.Day,
				s.Intensity,
				strconv.Itoa(s.DurationMin),
				strconv.Itoa(s.RPE),
				strconv.Itoa(s.Load),
				b.Type,
				strconv.Itoa(b.Minutes),
				b.Description,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePDF renders a heading for the plan, then a line per session followed
// by its blocks.
func WritePDF(w io.Writer, plan *models.Plan) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Plan "+plan.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Plan %s - Level: %s", plan.ID, plan.Level)))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("%d days per week, %d min sessions, total load %d", plan.DaysPerWeek, plan.SessionMinutes, plan.TotalLoad)))
	pdf.Ln(10)

	for _, s := range plan.Sessions {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, tr(fmt.Sprintf("Week %d - %s (%s) - %d min - RPE %d - load %d",
			s.WeekIdx+1, s.Day, s.Intensity, s.DurationMin, s.RPE, s.Load)))
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 10)
		for _, b := range s.Blocks {
			pdf.SetX(15)
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("- %s: %d min - %s", b.Type, b.Minutes, b.Description)), "", "", false)
		}
		pdf.Ln(4)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

// Exporter renders plans and archives each rendering when a store is set.
type Exporter struct {
	store  storage.ObjectStore
	bus    events.Publisher
	logger zerolog.Logger
}

// NewExporter creates an exporter. store and bus may be nil.
func NewExporter(store storage.ObjectStore, bus events.Publisher, logger zerolog.Logger) *Exporter {
	return &Exporter{
		store:  store,
		bus:    bus,
		logger: logger.With().Str("component", "export").Logger(),
	}
}

// Render produces the document for plan in format f. Plans never change once
// stored, so an archived rendering is served as is. Archive failures are
// logged and do not fail the export.
func (e *Exporter) Render(ctx context.Context, plan *models.Plan, f Format) ([]byte, error) {
	if f != FormatCSV && f != FormatPDF {
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
	key := Key(plan.ID, f)

	if e.store != nil {
		data, err := e.store.Get(ctx, key)
		switch {
		case err == nil:
			telemetry.ExportsTotal.WithLabelValues(string(f)).Inc()
			e.publish(plan.ID, f, true, true)
			return data, nil
		case !errors.Is(err, storage.ErrNotFound):
			e.logger.Warn().Err(err).Str("plan_id", plan.ID).Str("format", string(f)).Msg("read archived export")
		}
	}

	var buf bytes.Buffer
	var err error
	if f == FormatCSV {
		err = WriteCSV(&buf, plan)
	} else {
		err = WritePDF(&buf, plan)
	}
	if err != nil {
		return nil, err
	}
	telemetry.ExportsTotal.WithLabelValues(string(f)).Inc()

	archived := false
	if e.store != nil {
		if err := e.store.Put(ctx, key, buf.Bytes(), f.ContentType()); err != nil {
			e.logger.Warn().Err(err).Str("plan_id", plan.ID).Str("format", string(f)).Msg("archive export")
		} else {
			archived = true
		}
	}

	e.publish(plan.ID, f, archived, false)
	return buf.Bytes(), nil
}

func (e *Exporter) publish(planID string, f Format, archived, reused bool) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.EventPlanExported, events.Payload{
		"plan_id":  planID,
		"format":   string(f),
		"archived": archived,
		"reused":   reused,
	})
}

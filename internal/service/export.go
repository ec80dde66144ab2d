// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/util"
)

var exportHeader = []string{
	"ID", "Form Type", "Name", "Email", "Phone", "Subject",
	"Message", "Status", "IP Address", "Created At",
}

// phonePattern matches international numbers. With no letters, pipes or
// bangs a spreadsheet cannot turn them into a function call or DDE link.
var phonePattern = regexp.MustCompile(`^\+[0-9][0-9 ().-]*$`)

// exportNamePattern matches the files Export writes and nothing else.
var exportNamePattern = regexp.MustCompile(`^form_submissions_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}_[0-9a-f]{8}\.csv$`)

// ExportFile describes a written CSV export.
type ExportFile struct {
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
	URL      string `json:"url"`
}

// Export writes the submissions matching params to a CSV file in the
// private exports directory. Editor or admin.
func (s *SubmissionService) Export(ctx context.Context, id auth.Identity, params SubmissionListParams) (ExportFile, error) {
	if err := authorize(id, auth.CapSubmissionsRead, s.now()); err != nil {
		return ExportFile{}, err
	}
	params.Paging = Paging{}
	filter, _, err := s.filter(params)
	if err != nil {
		return ExportFile{}, err
	}

	rows, err := s.queries.ListFormSubmissions(ctx, filter)
	if err != nil {
		return ExportFile{}, fmt.Errorf("listing submissions: %w", err)
	}

	if err := os.MkdirAll(s.exportsDir, 0o750); err != nil {
		return ExportFile{}, fmt.Errorf("creating exports directory: %w", err)
	}

	name := exportFilename(s.now())
	path, err := util.SafeJoinPath(s.exportsDir, name)
	if err != nil {
		return ExportFile{}, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return ExportFile{}, fmt.Errorf("creating export file: %w", err)
	}

	writeErr := writeCSV(f, rows)
	if err := errors.Join(writeErr, f.Close()); err != nil {
		_ = os.Remove(path)
		return ExportFile{}, fmt.Errorf("writing export: %w", err)
	}

	if s.events != nil {
		_ = s.events.LogSubmissionEvent(ctx, "Submissions exported", id.UserID, map[string]any{
			"filename": name,
			"rows":     len(rows),
		})
	}
	return ExportFile{Filename: name, Rows: len(rows), URL: "/api/forms/exports/" + name}, nil
}

// OpenExport opens a previously written export for download. Names that
// Export could not have produced are NotFound. Editor or admin.
func (s *SubmissionService) OpenExport(_ context.Context, id auth.Identity, filename string) (*os.File, error) {
	if err := authorize(id, auth.CapSubmissionsRead, s.now()); err != nil {
		return nil, err
	}
	if !exportNamePattern.MatchString(filename) {
		return nil, fmt.Errorf("export %w", ErrNotFound)
	}
	path, err := util.SafeJoinPath(s.exportsDir, filename)
	if err != nil {
		return nil, fmt.Errorf("export %w", ErrNotFound)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("export %w", ErrNotFound)
		}
		return nil, fmt.Errorf("opening export: %w", err)
	}
	return f, nil
}

// writeCSV writes the header and one row per submission.
func writeCSV(out io.Writer, rows []store.FormSubmission) error {
	w := csv.NewWriter(out)
	_ = w.Write(exportHeader)
	for _, row := range rows {
		_ = w.Write([]string{
			strconv.FormatInt(row.ID, 10),
			csvCell(row.FormType),
			csvCell(row.Name),
			csvCell(row.Email),
			phoneCell(row.Phone),
			csvCell(row.Subject),
			csvCell(row.Message),
			row.Status,
			csvCell(row.IPAddress),
			row.CreatedAt.UTC().Format(time.DateTime),
		})
	}
	w.Flush()
	return w.Error()
}

func exportFilename(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "form_submissions_" + now.UTC().Format("2006-01-02_15-04-05") + "_" + suffix + ".csv"
}

// csvCell neutralizes values a spreadsheet would evaluate as formulas.
func csvCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

// phoneCell keeps "+44 20 7946 0958" readable and guards anything else.
func phoneCell(v string) string {
	if phonePattern.MatchString(v) {
		return v
	}
	return csvCell(v)
}

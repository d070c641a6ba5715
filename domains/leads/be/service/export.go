package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheet     = "Leads"
)

// fixedColumns precede the schema's field keys in every export.
var fixedColumns = []string{"id", "created_at", "status", "contacted_at", "booked_at"}

// Export is a rendered spreadsheet ready to be served as an attachment.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

func (s *service) Export(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, format string, status *string) (Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		fieldErrors := FieldErrors{}
		fieldErrors.add("format", "format must be csv or xlsx")
		return Export{}, &ValidationError{Fields: fieldErrors}
	}

	leads, err := s.List(ctx, audit, profileID, status)
	if err != nil {
		return Export{}, err
	}
	descriptors, err := s.descriptors(ctx, profileID)
	if err != nil {
		return Export{}, err
	}

	header, rows := Table(leads, formschema.Keys(descriptors))
	filename := fmt.Sprintf("leads-%s.%s", s.now().UTC().Format("2006-01-02"), format)

	if format == FormatXLSX {
		body, err := WriteXLSX(header, rows)
		if err != nil {
			return Export{}, err
		}
		return Export{Filename: filename, ContentType: contentTypeXLSX, Body: body}, nil
	}

	body, err := WriteCSV(header, rows)
	if err != nil {
		return Export{}, err
	}
	return Export{Filename: filename, ContentType: contentTypeCSV, Body: body}, nil
}

// Table flattens leads into a header and one row per lead. Field keys follow
// the fixed columns in schema order; values for keys the schema does not list
// are left out.
func Table(leads []Lead, keys []string) ([]string, [][]string) {
	header := make([]string, 0, len(fixedColumns)+len(keys))
	header = append(header, fixedColumns...)
	header = append(header, keys...)

	rows := make([][]string, 0, len(leads))
	for _, lead := range leads {
		row := make([]string, 0, len(header))
		row = append(row,
			lead.ID.String(),
			lead.CreatedAt.UTC().Format(time.RFC3339),
			lead.Status,
			formatTime(lead.ContactedAt),
			formatTime(lead.BookedAt),
		)
		for _, key := range keys {
			row = append(row, lead.FormData[key])
		}
		rows = append(rows, row)
	}
	return header, rows
}

// WriteCSV renders RFC 4180 CSV: cells containing a comma, quote or newline
// are quoted and inner quotes doubled.
func WriteCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX renders a single-sheet workbook with a frozen header row.
func WriteXLSX(header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("resolve cell: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

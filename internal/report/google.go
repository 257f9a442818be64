package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"centsplit/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// SheetsWriter appends month reports to a Google Sheets spreadsheet.
type SheetsWriter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ Writer = (*SheetsWriter)(nil)

// NewSheetsWriter creates a writer using Service Account credentials from
// the environment. Uses GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewSheetsWriter(ctx context.Context, spreadsheetID, sheetName string) (*SheetsWriter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Budget"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteMonthReport appends one summary row followed by a row per category.
// Amounts are written in dollars so the sheet stays human readable.
func (w *SheetsWriter) WriteMonthReport(ctx context.Context, r MonthReport) (string, error) {
	if w.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rows := [][]any{
		{
			fmt.Sprintf("%04d-%02d", r.Year, r.Month),
			"summary",
			core.Money{Cents: r.Summary.TotalShared}.Dollars(),
			core.Money{Cents: r.Summary.TotalPersonal}.Dollars(),
			core.Money{Cents: r.Summary.UserShareOfShared}.Dollars(),
			core.Money{Cents: r.Summary.PartnerShareOfShared}.Dollars(),
		},
	}
	for _, cat := range r.Categories {
		rows = append(rows, []any{
			fmt.Sprintf("%04d-%02d", r.Year, r.Month),
			cat.Name,
			cat.Amount.Dollars(),
			"", "", "",
		})
	}

	rng := fmt.Sprintf("%s!A:F", w.sheetName)
	vr := &gsheet.ValueRange{Values: rows}

	resp, err := w.svc.Spreadsheets.Values.Append(w.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append report rows to %s: %w", w.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

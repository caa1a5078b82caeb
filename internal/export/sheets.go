// Package export pushes monthly ledger summaries to a Google
// Spreadsheet so household members can follow the numbers without
// touching the API.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledgerly/internal/config"
	"ledgerly/internal/core"
	applog "ledgerly/internal/log"
	"ledgerly/internal/services"
)

// SheetsExporter appends one row per export run to a fixed sheet.
// Rows are append-only; re-exporting a month adds a new row rather
// than rewriting history.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger
}

// NewSheetsExporter builds a Sheets client from service account
// credentials, either inline JSON or a file path.
func NewSheetsExporter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*SheetsExporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := cfg.GoogleSheetName
	if sheetName == "" {
		sheetName = "Summaries"
	}

	var credentialsJSON []byte
	switch {
	case cfg.GoogleServiceAccountJSON != "":
		credentialsJSON = []byte(cfg.GoogleServiceAccountJSON)
	case cfg.GoogleServiceAccountFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(cfg.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(applog.ComponentExport),
	}, nil
}

// ExportMonth appends a summary row for the given month:
// month, total expenses, variable expenses, recurring expenses,
// income, net balance, variable transaction count, exported-at.
func (e *SheetsExporter) ExportMonth(ctx context.Context, ym core.YearMonth, summary services.CombinedSummary) error {
	row := []any{
		ym.String(),
		summary.Expenses.TotalExpenses.Fixed2(),
		summary.Expenses.TotalVariableExpenses.Fixed2(),
		summary.Expenses.TotalRecurringExpenses.Fixed2(),
		summary.Income.TotalIncome.Fixed2(),
		summary.NetBalance.NetBalance.Fixed2(),
		summary.Expenses.VariableTransactionCount,
		time.Now().UTC().Format(time.RFC3339),
	}

	rng := fmt.Sprintf("%s!A:H", e.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}

	e.logger.InfoContext(ctx, "Exported monthly summary",
		applog.FieldYearMonth, ym.String())
	return nil
}

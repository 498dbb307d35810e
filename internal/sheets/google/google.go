package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"travelapp/internal/core"
	applog "travelapp/internal/log"
	ports "travelapp/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger
}

// Ensure interface conformance
var _ ports.ReportWriter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// New creates a Sheets client authenticated with a service account.
// Extra options replace the credential lookup entirely (used by tests to
// point the client at a fake endpoint).
func New(ctx context.Context, cfg Config, logger *applog.Logger, opts ...goption.ClientOption) (*Client, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}

	if len(opts) == 0 {
		credentialsJSON, err := readCredentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets service created", "sheet", sheetName)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName, logger: logger}, nil
}

func readCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	case strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")) != "":
		data, err := os.ReadFile(strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")))
		if err != nil {
			return nil, fmt.Errorf("read GOOGLE_APPLICATION_CREDENTIALS: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendExpenses appends one row per expense below the existing data.
func (c *Client) AppendExpenses(ctx context.Context, tripLabel string, expenses []core.Expense) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rows, err := ports.Rows(tripLabel, expenses)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	vr := &gsheet.ValueRange{Values: rows}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to append expenses",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err,
			"rows", len(rows))
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	updated := len(rows)
	if resp != nil && resp.Updates != nil {
		updated = int(resp.Updates.UpdatedRows)
	}
	c.logger.InfoContext(ctx, "Appended expenses to sheet",
		applog.FieldOperation, applog.OpExport,
		"sheet", c.sheetName,
		"rows", updated,
		"trip", tripLabel)
	return nil
}

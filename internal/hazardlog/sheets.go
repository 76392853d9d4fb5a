package hazardlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	// DefaultSheetsRange is the A1 range rows are appended after.
	DefaultSheetsRange = "Sheet1!A:H"

	// DefaultSheetsCredentialsFile is the service-account key used when none is configured.
	DefaultSheetsCredentialsFile = "./service-account-key.json"

	// Values are stored as given; Sheets must not parse "03/14/2026, 01:05 PM" into a date.
	sheetsValueInputOption = "RAW"

	// New rows are inserted, never written over existing cells.
	sheetsInsertDataOption = "INSERT_ROWS"
)

// SheetsConfig contains configuration for the Google Sheets store.
type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	Range           string
}

// SheetsStore appends hazard rows to a Google Sheets spreadsheet.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	valueRange    string
	logger        *slog.Logger
}

// NewSheetsStore creates a Sheets client authenticated with the configured
// service-account credentials. Extra client options replace the credentials,
// which lets tests point the client at a local server.
func NewSheetsStore(ctx context.Context, cfg SheetsConfig, logger *slog.Logger, opts ...option.ClientOption) (*SheetsStore, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets spreadsheet ID is required")
	}
	if cfg.Range == "" {
		cfg.Range = DefaultSheetsRange
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = DefaultSheetsCredentialsFile
	}

	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope),
		}
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.Info("initialized sheets hazard log",
		"spreadsheet_id", cfg.SpreadsheetID,
		"range", cfg.Range,
	)

	return &SheetsStore{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		valueRange:    cfg.Range,
		logger:        logger,
	}, nil
}

// Name implements Store.
func (s *SheetsStore) Name() string {
	return "sheets"
}

// AppendRows implements Store using spreadsheets.values.append.
func (s *SheetsStore) AppendRows(ctx context.Context, rows []Row) (int, error) {
	if err := validateRows(rows); err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = []interface{}(row)
	}

	resp, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.valueRange, &sheets.ValueRange{Values: values}).
		ValueInputOption(sheetsValueInputOption).
		InsertDataOption(sheetsInsertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: wrapSheetsError(err)}
	}

	if resp.Updates == nil || resp.Updates.UpdatedRows == 0 {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: ErrUnconfirmed}
	}

	s.logger.Debug("appended rows to sheet",
		"updated_range", resp.Updates.UpdatedRange,
		"updated_rows", resp.Updates.UpdatedRows,
	)

	return int(resp.Updates.UpdatedRows), nil
}

// wrapSheetsError converts Google API errors to hazardlog sentinels.
func wrapSheetsError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAccessDenied, apiErr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	}
	return fmt.Errorf("sheets API error (status %d): %w", apiErr.Code, err)
}

package hazardlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const insertHazardLogRow = `
INSERT INTO hazard_log (
    id, logged_at, worker, zone, hazard_type, severity, risk_level, ai_notes, status, analysis
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)`

// PostgresStore appends hazard rows to the hazard_log table.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a PostgresStore. The schema is created by internal.RunMigrations.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Name implements Store.
func (s *PostgresStore) Name() string {
	return "postgres"
}

// AppendRows implements Store. All rows are inserted in one transaction.
func (s *PostgresStore) AppendRows(ctx context.Context, rows []Row) (int, error) {
	if err := validateRows(rows); err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
	}

	params := make([][]any, len(rows))
	for i, row := range rows {
		p, err := insertParams(uuid.New(), row)
		if err != nil {
			return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
		}
		params[i] = p
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer tx.Rollback()

	for _, p := range params {
		if _, err := tx.ExecContext(ctx, insertHazardLogRow, p...); err != nil {
			return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: fmt.Errorf("insert row: %w", err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: fmt.Errorf("commit: %w", err)}
	}

	return len(rows), nil
}

// rowAnalysis is the hazard report as stored in the analysis JSONB column.
type rowAnalysis struct {
	Zone       string  `json:"zone"`
	HazardType string  `json:"hazardType"`
	Severity   float64 `json:"severity"`
	RiskLevel  string  `json:"riskLevel"`
	AINotes    string  `json:"aiNotes"`
}

// insertParams maps a row onto the insertHazardLogRow placeholders.
func insertParams(id uuid.UUID, row Row) ([]any, error) {
	cells := row.Strings()
	severity, ok := row[ColSeverity].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: severity is %T, want float64", ErrInvalidRow, row[ColSeverity])
	}

	data, err := json.Marshal(rowAnalysis{
		Zone:       cells[ColZone],
		HazardType: cells[ColHazardType],
		Severity:   severity,
		RiskLevel:  cells[ColRiskLevel],
		AINotes:    cells[ColNotes],
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	analysis := pqtype.NullRawMessage{RawMessage: data, Valid: true}

	return []any{
		id,
		cells[ColTimestamp],
		cells[ColWorker],
		cells[ColZone],
		cells[ColHazardType],
		severity,
		cells[ColRiskLevel],
		cells[ColNotes],
		cells[ColStatus],
		analysis,
	}, nil
}

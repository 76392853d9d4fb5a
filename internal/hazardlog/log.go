// Package hazardlog appends hazard reports to the durable hazard log.
//
// Every report becomes one eight-column row:
//
//	timestamp | worker | zone | hazard type | severity | risk level | notes | status
//
// Rows are written append-only through a Store (Google Sheets, Postgres,
// Cloudflare R2 or a local CSV file). Nothing is retried or deduplicated:
// appending the same report twice produces two rows.
package hazardlog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	_ "time/tzdata" // DefaultTimezone must resolve on hosts without zoneinfo

	"github.com/DukeRupert/atlas/internal/domain"
	"github.com/DukeRupert/atlas/internal/metrics"
	"github.com/jonboulle/clockwork"
)

const (
	// WorkerIdentity is recorded for every row until workers are authenticated.
	WorkerIdentity = "Demo Worker"

	// StatusOpen is the status of every newly logged hazard.
	StatusOpen = "Open"

	// TimestampLayout renders row timestamps as MM/DD/YYYY, hh:mm AM.
	TimestampLayout = "01/02/2006, 03:04 PM"

	// DefaultTimezone is the zone row timestamps are rendered in.
	DefaultTimezone = "America/New_York"
)

// Column positions within a Row.
const (
	ColTimestamp = iota
	ColWorker
	ColZone
	ColHazardType
	ColSeverity
	ColRiskLevel
	ColNotes
	ColStatus

	NumColumns
)

// Header holds the column titles, used by stores that write their own header.
var Header = []string{"Timestamp", "Worker", "Zone", "Hazard Type", "Severity", "Risk Level", "AI Notes", "Status"}

// Row is one hazard log row. Cells are strings except severity, which stays numeric.
type Row []any

// Store appends rows to an external tabular store.
type Store interface {
	// AppendRows appends rows after any existing data and returns how many were written.
	AppendRows(ctx context.Context, rows []Row) (int, error)

	// Name identifies the store in logs and metrics.
	Name() string
}

// Log formats hazard reports as rows and appends them to a Store.
type Log struct {
	store    Store
	clock    clockwork.Clock
	location *time.Location
	logger   *slog.Logger
}

// New creates a Log. A nil location renders timestamps in DefaultTimezone.
func New(store Store, clock clockwork.Clock, location *time.Location, logger *slog.Logger) (*Log, error) {
	if location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %s: %w", DefaultTimezone, err)
		}
		location = loc
	}
	return &Log{
		store:    store,
		clock:    clock,
		location: location,
		logger:   logger,
	}, nil
}

// Append writes one row for report and returns the number of rows written.
// Store failures are returned as domain.ESINK errors.
func (l *Log) Append(ctx context.Context, report domain.HazardReport) (int, error) {
	const op = "hazardlog.Append"

	row := BuildRow(report, l.clock.Now(), l.location)

	start := time.Now()
	n, err := l.store.AppendRows(ctx, []Row{row})
	metrics.SinkAppended(l.store.Name(), time.Since(start), err)
	if err != nil {
		l.logger.Warn("hazard log append rejected",
			"store", l.store.Name(),
			"access_denied", IsAccessDenied(err),
			"rate_limited", IsRateLimited(err),
			"error", err,
		)
		return 0, domain.Sink(err, op)
	}

	if n != 1 {
		l.logger.Warn("unexpected row count from hazard log store",
			"store", l.store.Name(),
			"rows", n,
		)
	}

	return n, nil
}

// BuildRow builds the eight-column row for report logged at t.
func BuildRow(report domain.HazardReport, t time.Time, loc *time.Location) Row {
	row := make(Row, NumColumns)
	row[ColTimestamp] = t.In(loc).Format(TimestampLayout)
	row[ColWorker] = WorkerIdentity
	row[ColZone] = report.Zone
	row[ColHazardType] = report.HazardType
	row[ColSeverity] = report.Severity
	row[ColRiskLevel] = report.RiskLevel.String()
	row[ColNotes] = report.AINotes
	row[ColStatus] = StatusOpen
	return row
}

// Strings renders every cell as text, for file-based stores.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, cell := range r {
		switch v := cell.(type) {
		case string:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// validateRows rejects rows that do not have exactly NumColumns cells.
func validateRows(rows []Row) error {
	for i, row := range rows {
		if len(row) != NumColumns {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidRow, i, len(row), NumColumns)
		}
	}
	return nil
}

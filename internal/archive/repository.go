package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/firecad/internal/firesafety"
)

// List page size bounds.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Repository persists analysis records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
	Delete(ctx context.Context, id string) error
	DeviceTotals(ctx context.Context) (map[firesafety.DeviceType]int, error)
}

// SQLiteRepository implements Repository over the analyses and
// analysis_devices tables.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a repository. The schema must already be migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts rec and its devices in one transaction. ID and CreatedAt
// are generated when empty; CreatedAt is stored with microsecond precision.
func (r *SQLiteRepository) Create(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Source == "" || rec.Status == "" {
		return fmt.Errorf("%w: source and status are required", ErrInvalidRecord)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Microsecond)
	if rec.Warnings == nil {
		rec.Warnings = []firesafety.Warning{}
	}

	var resultJSON *string
	if rec.Result != nil {
		b, err := json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("marshalling analysis result: %w", err)
		}
		s := string(b)
		resultJSON = &s
	}
	warningsJSON, err := json.Marshal(rec.Warnings)
	if err != nil {
		return fmt.Errorf("marshalling warnings: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analyses (id, source, format, status, error, total_layers,
		 fire_safety_layer_count, total_devices, aia_compliant_layers,
		 result_json, warnings_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Format, string(rec.Status), rec.Error,
		rec.TotalLayers, rec.FireSafetyLayerCount, rec.TotalDevices, rec.AIACompliantLayers,
		resultJSON, string(warningsJSON),
		rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting analysis: %w", err)
	}

	if err := insertDevices(ctx, tx, rec.ID, rec.Result.Devices()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing analysis: %w", err)
	}
	return nil
}

func insertDevices(ctx context.Context, tx *sql.Tx, analysisID string, devices []firesafety.Device) error {
	if len(devices) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO analysis_devices (analysis_id, seq, layer_name, device_type, block_name, x, y)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing device insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range devices {
		if _, err := stmt.ExecContext(ctx, analysisID, i, d.LayerName, string(d.Type), d.BlockName, d.Coordinates.X, d.Coordinates.Y); err != nil {
			return fmt.Errorf("inserting device %d: %w", i, err)
		}
	}
	return nil
}

// GetByID returns the full record including its AnalysisResult.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, source, format, status, error, total_layers, fire_safety_layer_count,
		 total_devices, aia_compliant_layers, result_json, warnings_json, created_at
		 FROM analyses WHERE id = ?`, id)

	rec, err := scanRecord(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records newest first, without their AnalysisResult.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where := ""
	var args []any
	if filter.Status != "" {
		where = "WHERE status = ?"
		args = append(args, string(filter.Status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting analyses: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, format, status, error, total_layers, fire_safety_layer_count,
		 total_devices, aia_compliant_layers, NULL, warnings_json, created_at
		 FROM analyses `+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	result := &ListResult{Records: []Record{}, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	for rows.Next() {
		rec, err := scanRecord(rows, false)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analyses: %w", err)
	}
	return result, nil
}

// Delete removes a record and, by cascade, its devices.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeviceTotals counts archived devices by type across every analysis.
func (r *SQLiteRepository) DeviceTotals(ctx context.Context) (map[firesafety.DeviceType]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT device_type, COUNT(*) FROM analysis_devices GROUP BY device_type")
	if err != nil {
		return nil, fmt.Errorf("querying device totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[firesafety.DeviceType]int)
	for rows.Next() {
		var dt string
		var n int
		if err := rows.Scan(&dt, &n); err != nil {
			return nil, fmt.Errorf("scanning device total: %w", err)
		}
		totals[firesafety.DeviceType(dt)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device totals: %w", err)
	}
	return totals, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner, withResult bool) (*Record, error) {
	var (
		rec          Record
		status       string
		resultJSON   sql.NullString
		warningsJSON string
		createdAt    string
	)
	err := s.Scan(&rec.ID, &rec.Source, &rec.Format, &status, &rec.Error,
		&rec.TotalLayers, &rec.FireSafetyLayerCount, &rec.TotalDevices, &rec.AIACompliantLayers,
		&resultJSON, &warningsJSON, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning analysis: %w", err)
	}
	rec.Status = firesafety.Status(status)

	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &rec.Warnings); err != nil {
		return nil, fmt.Errorf("decoding warnings: %w", err)
	}
	if withResult && resultJSON.Valid {
		rec.Result = &firesafety.AnalysisResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), rec.Result); err != nil {
			return nil, fmt.Errorf("decoding analysis result: %w", err)
		}
	}
	return &rec, nil
}

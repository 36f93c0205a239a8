package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"DivPulse/internal/domain/models"
	pkgch "DivPulse/pkg/clickhouse"
	applogger "DivPulse/pkg/logger"
)

// SchemaStatements creates the database and points table. Idempotent, meant
// to be passed to clickhouse.Client.InitSchema at startup.
var SchemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS divpulse`,
	`CREATE TABLE IF NOT EXISTS divpulse.dataset_points (
        name   String,
        shape  String,
        ts     Int64,
        val    Nullable(Float64),
        open   Nullable(Float64),
        high   Nullable(Float64),
        low    Nullable(Float64),
        close  Nullable(Float64),
        vol    Nullable(Float64)
    ) ENGINE = MergeTree()
    ORDER BY (name, ts)`,
}

// CHDatasetStore persists daily datasets in ClickHouse. Each Save replaces
// the dataset's rows wholesale; series are small (a few thousand rows) so a
// lightweight delete plus batch insert is cheaper than reconciling diffs.
type CHDatasetStore struct {
	db *sql.DB
	ch *pkgch.Client
	l  *applogger.Logger
}

func NewCHDatasetStore(ch *pkgch.Client, l *applogger.Logger) *CHDatasetStore {
	return &CHDatasetStore{db: ch.DB(), ch: ch, l: l}
}

func (s *CHDatasetStore) Load(ctx context.Context, name string) (*models.Dataset, error) {
	start := time.Now()
	const q = `
        SELECT shape, ts, val, open, high, low, close, vol
        FROM divpulse.dataset_points
        WHERE name = ?
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, q, name)
	if err != nil {
		s.logErr("load query error", name, err)
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	defer rows.Close()

	var (
		shapeName string
		points    []models.TimePoint
	)
	for rows.Next() {
		var (
			ts                               int64
			val, open, high, low, close, vol sql.NullFloat64
		)
		if err := rows.Scan(&shapeName, &ts, &val, &open, &high, &low, &close, &vol); err != nil {
			s.logErr("load scan error", name, err)
			return nil, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, models.TimePoint{
			Timestamp: ts,
			Value:     nullToPtr(val),
			Open:      nullToPtr(open),
			High:      nullToPtr(high),
			Low:       nullToPtr(low),
			Close:     nullToPtr(close),
			Volume:    nullToPtr(vol),
		})
	}
	if err := rows.Err(); err != nil {
		s.logErr("load rows error", name, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(points) == 0 {
		return nil, nil
	}

	shape, err := models.ParseShape(shapeName)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse load ok",
			applogger.String("dataset", name),
			applogger.Int("rows", len(points)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return &models.Dataset{Name: name, Shape: shape, Points: points}, nil
}

func (s *CHDatasetStore) Save(ctx context.Context, ds *models.Dataset) error {
	if ds == nil || ds.Name == "" {
		return fmt.Errorf("save: dataset without a name")
	}
	start := time.Now()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM divpulse.dataset_points WHERE name = ?`, ds.Name); err != nil {
		s.logErr("save delete error", ds.Name, err)
		return fmt.Errorf("clear dataset: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO divpulse.dataset_points
            (name, shape, ts, val, open, high, low, close, vol)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	for _, p := range ds.Points {
		if _, err := stmt.ExecContext(ctx,
			ds.Name, ds.Shape.String(), p.Timestamp,
			ptrToNull(p.Value), ptrToNull(p.Open), ptrToNull(p.High),
			ptrToNull(p.Low), ptrToNull(p.Close), ptrToNull(p.Volume),
		); err != nil {
			_ = tx.Rollback()
			s.logErr("save insert error", ds.Name, err)
			return fmt.Errorf("insert point: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.logErr("save commit error", ds.Name, err)
		return fmt.Errorf("commit insert: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse save ok",
			applogger.String("dataset", ds.Name),
			applogger.Int("rows", len(ds.Points)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHDatasetStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT name FROM divpulse.dataset_points ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return names, nil
}

func (s *CHDatasetStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM divpulse.dataset_points WHERE name = ?`, name); err != nil {
		s.logErr("delete error", name, err)
		return fmt.Errorf("delete dataset: %w", err)
	}
	return nil
}

func (s *CHDatasetStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHDatasetStore) Close() error {
	return s.ch.Close()
}

func (s *CHDatasetStore) logErr(msg, dataset string, err error) {
	if s.l != nil {
		s.l.Error("clickhouse "+msg,
			applogger.String("dataset", dataset),
			applogger.Error(err),
		)
	}
}

func nullToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func ptrToNull(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

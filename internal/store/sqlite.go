package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/placepulse/fencewatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS regions (
	position INTEGER PRIMARY KEY AUTOINCREMENT,
	record   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_stats (
	user_id           TEXT PRIMARY KEY,
	avg_duration_secs INTEGER NOT NULL DEFAULT 0,
	visit_count       INTEGER NOT NULL DEFAULT 0,
	entrance_time     DATETIME,
	updated_at        DATETIME NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadRegions(ctx context.Context) ([]RegionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM regions ORDER BY position`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load regions")
	}
	defer rows.Close() //nolint:errcheck

	var records []RegionRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan region")
		}
		var rec RegionRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			zap.L().Warn("sqlite: skipping malformed region record",
				zap.String("record", raw),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate regions")
	}
	return records, nil
}

func (s *SQLiteStore) SaveRegions(ctx context.Context, records []RegionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save regions")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM regions`); err != nil {
		return eris.Wrap(err, "sqlite: clear regions")
	}
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal region %s", rec.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO regions (record) VALUES (?)`, string(raw),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert region %s", rec.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save regions")
}

func (s *SQLiteStore) ReadStats(ctx context.Context, userID string) (*model.VisitStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT avg_duration_secs, visit_count, entrance_time FROM user_stats WHERE user_id = ?`,
		userID,
	)

	var stats model.VisitStats
	var entrance sql.NullTime
	err := row.Scan(&stats.AverageDurationSecs, &stats.VisitCount, &entrance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: read stats %s", userID)
	}
	if entrance.Valid {
		t := entrance.Time
		stats.EntranceTime = &t
	}
	return &stats, nil
}

func (s *SQLiteStore) MergeStats(ctx context.Context, userID string, fields StatsFields) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_stats (user_id, avg_duration_secs, visit_count, entrance_time, updated_at)
		 VALUES (?, COALESCE(?, 0), COALESCE(?, 0), ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			avg_duration_secs = COALESCE(?, user_stats.avg_duration_secs),
			visit_count       = COALESCE(?, user_stats.visit_count),
			entrance_time     = COALESCE(?, user_stats.entrance_time),
			updated_at        = ?`,
		userID, fields.AverageDurationSecs, fields.VisitCount, fields.EntranceTime, now,
		fields.AverageDurationSecs, fields.VisitCount, fields.EntranceTime, now,
	)
	return eris.Wrapf(err, "sqlite: merge stats %s", userID)
}

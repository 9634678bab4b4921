package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/placepulse/fencewatch/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. It lets
// pgxmock stand in during unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS regions (
	position BIGSERIAL PRIMARY KEY,
	record   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_stats (
	user_id           TEXT PRIMARY KEY,
	avg_duration_secs BIGINT NOT NULL DEFAULT 0,
	visit_count       BIGINT NOT NULL DEFAULT 0,
	entrance_time     TIMESTAMPTZ,
	updated_at        TIMESTAMPTZ NOT NULL
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) LoadRegions(ctx context.Context) ([]RegionRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT record FROM regions ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load regions")
	}
	defer rows.Close()

	var records []RegionRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan region")
		}
		var rec RegionRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			zap.L().Warn("postgres: skipping malformed region record",
				zap.String("record", raw),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate regions")
	}
	return records, nil
}

func (s *PostgresStore) SaveRegions(ctx context.Context, records []RegionRecord) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM regions`); err != nil {
		return eris.Wrap(err, "postgres: clear regions")
	}
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal region %s", rec.ID)
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO regions (record) VALUES ($1)`, string(raw),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert region %s", rec.ID)
		}
	}
	return nil
}

func (s *PostgresStore) ReadStats(ctx context.Context, userID string) (*model.VisitStats, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT avg_duration_secs, visit_count, entrance_time FROM user_stats WHERE user_id = $1`,
		userID,
	)

	var stats model.VisitStats
	var entrance sql.NullTime
	err := row.Scan(&stats.AverageDurationSecs, &stats.VisitCount, &entrance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: read stats %s", userID)
	}
	if entrance.Valid {
		t := entrance.Time
		stats.EntranceTime = &t
	}
	return &stats, nil
}

func (s *PostgresStore) MergeStats(ctx context.Context, userID string, fields StatsFields) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_stats (user_id, avg_duration_secs, visit_count, entrance_time, updated_at)
		 VALUES ($1, COALESCE($2, 0), COALESCE($3, 0), $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
			avg_duration_secs = COALESCE($2, user_stats.avg_duration_secs),
			visit_count       = COALESCE($3, user_stats.visit_count),
			entrance_time     = COALESCE($4, user_stats.entrance_time),
			updated_at        = $5`,
		userID, fields.AverageDurationSecs, fields.VisitCount, fields.EntranceTime, now,
	)
	return eris.Wrapf(err, "postgres: merge stats %s", userID)
}

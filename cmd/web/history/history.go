package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/manzanit0/placefinder/pkg/places"
	"github.com/manzanit0/placefinder/pkg/search"
)

const schema = `
CREATE TABLE IF NOT EXISTS resolutions (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT NOT NULL,
	query       TEXT NOT NULL,
	label       TEXT NOT NULL,
	place_id    TEXT NOT NULL,
	latitude    DOUBLE PRECISION NOT NULL,
	longitude   DOUBLE PRECISION NOT NULL,
	address     TEXT,
	resolved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS resolutions_session_id_idx ON resolutions (session_id, resolved_at DESC);`

// Repository stores the places a session resolved. Queries and suggestions
// are never stored.
type Repository interface {
	EnsureSchema(ctx context.Context) error
	Record(ctx context.Context, r search.Resolution) error
	List(ctx context.Context, sessionID string, limit int) ([]search.Resolution, error)
}

type dbResolution struct {
	ID         int64     `db:"id"`
	SessionID  string    `db:"session_id"`
	Query      string    `db:"query"`
	Label      string    `db:"label"`
	PlaceID    string    `db:"place_id"`
	Latitude   float64   `db:"latitude"`
	Longitude  float64   `db:"longitude"`
	Address    *string   `db:"address"`
	ResolvedAt time.Time `db:"resolved_at"`
}

type pgRepo struct {
	db *sqlx.DB
}

var _ Repository = (*pgRepo)(nil)
var _ search.Recorder = (*pgRepo)(nil)

func NewPgRepository(db *sql.DB) *pgRepo {
	return &pgRepo{db: sqlx.NewDb(db, "postgres")}
}

func (r *pgRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create resolutions table: %w", err)
	}

	return nil
}

func (r *pgRepo) Record(ctx context.Context, res search.Resolution) error {
	query := `
	INSERT INTO resolutions (session_id, query, label, place_id, latitude, longitude, address, resolved_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	var address *string
	if res.Address != "" {
		address = &res.Address
	}

	_, err := r.db.ExecContext(ctx, query,
		res.SessionID,
		res.Query,
		res.Label,
		res.PlaceID,
		res.Coordinate.Latitude,
		res.Coordinate.Longitude,
		address,
		res.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}

	return nil
}

func (r *pgRepo) List(ctx context.Context, sessionID string, limit int) ([]search.Resolution, error) {
	var rows []dbResolution

	query := `
	SELECT id, session_id, query, label, place_id, latitude, longitude, address, resolved_at
	FROM resolutions
	WHERE session_id = $1
	ORDER BY resolved_at DESC
	LIMIT $2;`

	err := r.db.SelectContext(ctx, &rows, query, sessionID, limit)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("select resolutions: %w", err)
	}

	resolutions := make([]search.Resolution, len(rows))
	for i := range rows {
		resolutions[i] = rows[i].Map()
	}

	return resolutions, nil
}

func (d dbResolution) Map() search.Resolution {
	res := search.Resolution{
		SessionID:  d.SessionID,
		Query:      d.Query,
		Label:      d.Label,
		PlaceID:    d.PlaceID,
		Coordinate: places.Coordinate{Latitude: d.Latitude, Longitude: d.Longitude},
		ResolvedAt: d.ResolvedAt,
	}

	if d.Address != nil {
		res.Address = *d.Address
	}

	return res
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sunoh/radiovault/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// upsertStationQuery is the SQL form of policy.Resolve, executed as one atomic
// statement so concurrent merges against the same row cannot lose updates.
// failure_count is assigned before status textually, but the status CASE must
// re-derive the new count (failure_count + 1) itself: within a single UPDATE
// every expression sees the old row. (xmin = 0) is true only for freshly
// inserted rows, distinguishing insert from merge without a second query.
const upsertStationQuery = `
INSERT INTO radio_stations (
  name, slug, image_url, stream_url, normalized_url, providers,
  countries, genres, languages, status, codec, bitrate, sample_rate, last_tested_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13, $14)
ON CONFLICT (normalized_url) DO UPDATE SET
  stream_url = EXCLUDED.stream_url,
  providers = radio_stations.providers || EXCLUDED.providers,
  countries = ARRAY(
    SELECT DISTINCT e FROM UNNEST(radio_stations.countries || EXCLUDED.countries) AS e
  ),
  genres = ARRAY(
    SELECT DISTINCT e FROM UNNEST(radio_stations.genres || EXCLUDED.genres) AS e
  ),
  languages = ARRAY(
    SELECT DISTINCT e FROM UNNEST(radio_stations.languages || EXCLUDED.languages) AS e
  ),
  name = CASE
    WHEN LENGTH(EXCLUDED.name) > LENGTH(radio_stations.name) THEN EXCLUDED.name
    ELSE radio_stations.name
  END,
  image_url = CASE
    WHEN EXCLUDED.image_url LIKE 'https%' AND radio_stations.image_url NOT LIKE 'https%'
      THEN EXCLUDED.image_url
    ELSE radio_stations.image_url
  END,
  failure_count = CASE
    WHEN EXCLUDED.status = 'working' THEN 0
    ELSE radio_stations.failure_count + 1
  END,
  status = CASE
    WHEN radio_stations.is_verified THEN radio_stations.status
    WHEN EXCLUDED.status = 'working' THEN 'working'
    WHEN (radio_stations.failure_count + 1) >= 3 THEN 'broken'
    ELSE radio_stations.status
  END,
  codec = CASE
    WHEN radio_stations.is_verified THEN radio_stations.codec
    ELSE COALESCE(EXCLUDED.codec, radio_stations.codec)
  END,
  last_tested_at = EXCLUDED.last_tested_at,
  updated_at = CURRENT_TIMESTAMP
RETURNING id, (xmin = 0) AS is_new`

// UpsertStation inserts or merges a station; see upsertStationQuery.
func (p *Postgres) UpsertStation(ctx context.Context, st *models.Station) (bool, error) {
	var isNew bool
	err := p.pool.QueryRow(ctx, upsertStationQuery,
		st.Name, st.Slug, st.ImageURL, st.StreamURL, st.NormalizedURL, st.Providers,
		st.Countries, st.Genres, st.Languages, st.Status, st.Codec,
		st.Bitrate, st.SampleRate, st.LastTestedAt,
	).Scan(&st.ID, &isNew)
	if err != nil {
		return false, classify("UpsertStation", err)
	}
	return isNew, nil
}

const stationColumns = `id, name, slug, COALESCE(image_url, ''), stream_url, normalized_url,
  providers, countries, genres, languages, status, COALESCE(codec, ''),
  COALESCE(bitrate, 0), COALESCE(sample_rate, 0), failure_count, is_verified,
  last_tested_at, created_at, updated_at`

// GetStationBySlug returns a single station by slug.
func (p *Postgres) GetStationBySlug(ctx context.Context, slug string) (*models.Station, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+stationColumns+` FROM radio_stations WHERE slug = $1`, slug)
	st, err := scanStation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify("GetStationBySlug", err)
	}
	return st, nil
}

// ListStations returns stations matching the filter and the total count.
func (p *Postgres) ListStations(ctx context.Context, filter StationFilter) ([]models.Station, int, error) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Country != "" {
		add("$%d = ANY(countries)", filter.Country)
	}
	if filter.Genre != "" {
		add("$%d = ANY(genres)", filter.Genre)
	}
	if filter.Language != "" {
		add("$%d = ANY(languages)", filter.Language)
	}
	if filter.Search != "" {
		add("name ILIKE $%d", "%"+filter.Search+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM radio_stations`+where, args...).Scan(&total); err != nil {
		return nil, 0, classify("ListStations count", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT `+stationColumns+` FROM radio_stations`+where+
		` ORDER BY name LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, classify("ListStations", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, 0, classify("ListStations scan", err)
		}
		stations = append(stations, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify("ListStations rows", err)
	}
	return stations, total, nil
}

// SetStationVerified sets the protective flag on a station.
func (p *Postgres) SetStationVerified(ctx context.Context, stationID int64, verified bool) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE radio_stations SET is_verified = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		verified, stationID,
	)
	if err != nil {
		return classify("SetStationVerified", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanStation reads one station row in stationColumns order.
func scanStation(row pgx.Row) (*models.Station, error) {
	var st models.Station
	err := row.Scan(
		&st.ID, &st.Name, &st.Slug, &st.ImageURL, &st.StreamURL, &st.NormalizedURL,
		&st.Providers, &st.Countries, &st.Genres, &st.Languages, &st.Status, &st.Codec,
		&st.Bitrate, &st.SampleRate, &st.FailureCount, &st.IsVerified,
		&st.LastTestedAt, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// classify separates per-record data rejections from store-level failures.
// A PgError means Postgres evaluated the statement and rejected the data
// (constraint violation, bad value) — local to the record. Anything else
// (network, pool, cancelled context) means the store itself is unusable and
// the whole batch must stop.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

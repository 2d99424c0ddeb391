package landmarks

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"

	"github.com/example/tour-guide/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) All(ctx context.Context) ([]models.Landmark, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, lat, lon, description, photo_url, rating FROM landmarks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Landmark
	for rows.Next() {
		var l models.Landmark
		if err := rows.Scan(&l.ID, &l.Name, &l.Loc.Lat, &l.Loc.Lon, &l.Description, &l.PhotoURL, &l.Rating); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*models.Landmark, error) {
	var l models.Landmark
	err := p.db.QueryRowContext(ctx, `SELECT id, name, lat, lon, description, photo_url, rating FROM landmarks WHERE id=$1`, id).
		Scan(&l.ID, &l.Name, &l.Loc.Lat, &l.Loc.Lon, &l.Description, &l.PhotoURL, &l.Rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (p *PostgresStore) Upsert(ctx context.Context, l models.Landmark) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO landmarks(id, name, lat, lon, description, photo_url, rating) VALUES($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, lat=EXCLUDED.lat, lon=EXCLUDED.lon,
		   description=EXCLUDED.description, photo_url=EXCLUDED.photo_url, rating=EXCLUDED.rating`,
		l.ID, l.Name, l.Loc.Lat, l.Loc.Lon, l.Description, l.PhotoURL, l.Rating)
	return err
}

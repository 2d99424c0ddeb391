package experiences

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

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

func (p *PostgresStore) List(ctx context.Context) ([]models.Experience, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, title, description, landmark_ids, price_cents, currency, voice_agent, created_by, created_at FROM experiences`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Experience
	for rows.Next() {
		var e models.Experience
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, pq.Array(&e.LandmarkIDs), &e.PriceCents, &e.Currency, &e.VoiceAgent, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*models.Experience, error) {
	var e models.Experience
	err := p.db.QueryRowContext(ctx,
		`SELECT id, title, description, landmark_ids, price_cents, currency, voice_agent, created_by, created_at FROM experiences WHERE id=$1`, id).
		Scan(&e.ID, &e.Title, &e.Description, pq.Array(&e.LandmarkIDs), &e.PriceCents, &e.Currency, &e.VoiceAgent, &e.CreatedBy, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (p *PostgresStore) Save(ctx context.Context, e *models.Experience) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO experiences(id, title, description, landmark_ids, price_cents, currency, voice_agent, created_by, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
		   landmark_ids=EXCLUDED.landmark_ids, price_cents=EXCLUDED.price_cents, currency=EXCLUDED.currency,
		   voice_agent=EXCLUDED.voice_agent`,
		e.ID, e.Title, e.Description, pq.Array(e.LandmarkIDs), e.PriceCents, e.Currency, e.VoiceAgent, e.CreatedBy, e.CreatedAt)
	return err
}

func (p *PostgresStore) SavePurchase(ctx context.Context, pu *models.Purchase) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO purchases(id, experience_id, user_id, payment_intent_id, status, created_at) VALUES($1,$2,$3,$4,$5,$6)`,
		pu.ID, pu.ExperienceID, pu.UserID, pu.PaymentIntentID, pu.Status, pu.CreatedAt)
	return err
}

func (p *PostgresStore) GetPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	var pu models.Purchase
	err := p.db.QueryRowContext(ctx,
		`SELECT id, experience_id, user_id, payment_intent_id, status, created_at FROM purchases WHERE id=$1`, id).
		Scan(&pu.ID, &pu.ExperienceID, &pu.UserID, &pu.PaymentIntentID, &pu.Status, &pu.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pu, nil
}

func (p *PostgresStore) UpdatePurchaseStatus(ctx context.Context, id, status string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE purchases SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}

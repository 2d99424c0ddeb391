package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"

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

func (p *PostgresStore) Get(ctx context.Context, userID string) (*models.ProximitySettings, error) {
	s := models.ProximitySettings{UserID: userID}
	var initMs, moveMs, resumeMs int64
	err := p.db.QueryRowContext(ctx,
		`SELECT enabled, preset, card_distance_m, notification_distance_m, outer_distance_m,
		        grace_enabled, init_duration_ms, movement_duration_ms, app_resume_duration_ms, significant_movement_m
		 FROM proximity_settings WHERE user_id=$1`, userID).
		Scan(&s.Enabled, &s.Preset, &s.CardDistanceM, &s.NotificationDistanceM, &s.OuterDistanceM,
			&s.GraceEnabled, &initMs, &moveMs, &resumeMs, &s.SignificantMovementM)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.InitDuration = time.Duration(initMs) * time.Millisecond
	s.MovementDuration = time.Duration(moveMs) * time.Millisecond
	s.AppResumeDuration = time.Duration(resumeMs) * time.Millisecond
	return &s, nil
}

func (p *PostgresStore) Put(ctx context.Context, s *models.ProximitySettings) error {
	if _, err := Normalize(s); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO proximity_settings(user_id, enabled, preset, card_distance_m, notification_distance_m, outer_distance_m,
		                                grace_enabled, init_duration_ms, movement_duration_ms, app_resume_duration_ms, significant_movement_m, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (user_id) DO UPDATE SET
		   enabled=EXCLUDED.enabled, preset=EXCLUDED.preset,
		   card_distance_m=EXCLUDED.card_distance_m, notification_distance_m=EXCLUDED.notification_distance_m,
		   outer_distance_m=EXCLUDED.outer_distance_m, grace_enabled=EXCLUDED.grace_enabled,
		   init_duration_ms=EXCLUDED.init_duration_ms, movement_duration_ms=EXCLUDED.movement_duration_ms,
		   app_resume_duration_ms=EXCLUDED.app_resume_duration_ms, significant_movement_m=EXCLUDED.significant_movement_m,
		   updated_at=EXCLUDED.updated_at`,
		s.UserID, s.Enabled, s.Preset, s.CardDistanceM, s.NotificationDistanceM, s.OuterDistanceM,
		s.GraceEnabled, s.InitDuration.Milliseconds(), s.MovementDuration.Milliseconds(), s.AppResumeDuration.Milliseconds(),
		s.SignificantMovementM, time.Now())
	return err
}

func (p *PostgresStore) Delete(ctx context.Context, userID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM proximity_settings WHERE user_id=$1`, userID)
	return err
}

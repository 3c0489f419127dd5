package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pulsewatch/internal/models"
)

// PostgresStore persists samples as rows via GORM. Time filters are pushed
// down to SQL; the latest-per-machine reduction runs in Go over in-window
// rows so grouping semantics match the memory backend exactly.
type PostgresStore struct {
	db        *gorm.DB
	retention time.Duration
}

// NewPostgresStore wraps an open GORM handle with the given retention window.
func NewPostgresStore(db *gorm.DB, retention time.Duration) *PostgresStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &PostgresStore{db: db, retention: retention}
}

func (p *PostgresStore) Append(ctx context.Context, sample *models.Sample) error {
	if err := p.db.WithContext(ctx).Create(sample).Error; err != nil {
		return fmt.Errorf("append sample: %w", err)
	}
	return nil
}

func (p *PostgresStore) LatestPerMachine(ctx context.Context) ([]models.Sample, error) {
	live, err := p.AllWithinWindow(ctx, p.retention)
	if err != nil {
		return nil, err
	}
	return LatestByMachine(live), nil
}

func (p *PostgresStore) LatestFor(ctx context.Context, machineID string) (*models.Sample, error) {
	var rows []models.Sample
	err := p.db.WithContext(ctx).
		Where("machine_id = ? AND recorded_at >= ?", machineID, time.Now().Add(-p.retention)).
		Order("recorded_at DESC, seq DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("latest sample for %s: %w", machineID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (p *PostgresStore) HistoryFor(ctx context.Context, machineID string, window time.Duration) ([]models.Sample, error) {
	out := make([]models.Sample, 0)
	err := p.db.WithContext(ctx).
		Where("machine_id = ? AND recorded_at >= ?", machineID, p.cutoff(window)).
		Order("recorded_at ASC, seq ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", machineID, err)
	}
	return out, nil
}

func (p *PostgresStore) AllWithinWindow(ctx context.Context, window time.Duration) ([]models.Sample, error) {
	out := make([]models.Sample, 0)
	err := p.db.WithContext(ctx).
		Where("recorded_at >= ?", p.cutoff(window)).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("samples within window: %w", err)
	}
	return out, nil
}

func (p *PostgresStore) PurgeOlderThan(ctx context.Context, window time.Duration) (int64, error) {
	res := p.db.WithContext(ctx).
		Where("recorded_at < ?", time.Now().Add(-window)).
		Delete(&models.Sample{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge samples: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// cutoff computes the read cutoff for a query window, capped at retention.
func (p *PostgresStore) cutoff(window time.Duration) time.Time {
	if window <= 0 || window > p.retention {
		window = p.retention
	}
	return time.Now().Add(-window)
}

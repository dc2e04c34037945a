// Package repo implements the data persistence layer for deployment
// configuration. This file provides the aggregate queries behind the
// message-type counters and rate-limit statistics.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-tellonym/internal/domain"
)

// IncrementTypeCounter adds one to the counter for t.
func IncrementTypeCounter(ctx context.Context, db *gorm.DB, deploymentID string, t domain.MessageType) error {
	row := &domain.TypeCounter{DeploymentID: deploymentID, Type: t, Total: 1}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "deployment_id"}, {Name: "type"}},
			DoUpdates: clause.Assignments(map[string]any{"total": gorm.Expr("total + 1")}),
		}).
		Create(row).Error
}

// TypeCounters returns the counters for every message type, zero-filled.
func TypeCounters(ctx context.Context, db *gorm.DB, deploymentID string) (map[domain.MessageType]int64, error) {
	var rows []domain.TypeCounter
	if err := db.WithContext(ctx).Where("deployment_id = ?", deploymentID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.MessageType]int64, len(domain.MessageTypes))
	for _, t := range domain.MessageTypes {
		out[t] = 0
	}
	for _, r := range rows {
		out[r.Type] = r.Total
	}
	return out, nil
}

// ResetTypeCounters zeroes every counter and returns the previous values.
func ResetTypeCounters(ctx context.Context, db *gorm.DB, deploymentID string) (map[domain.MessageType]int64, error) {
	var prev map[domain.MessageType]int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if prev, err = TypeCounters(ctx, tx, deploymentID); err != nil {
			return err
		}
		return tx.Where("deployment_id = ?", deploymentID).Delete(&domain.TypeCounter{}).Error
	})
	if err != nil {
		return nil, err
	}
	return prev, nil
}

// RateStats returns how many senders have a window and how many of them are
// at the limit inside an unexpired window as of now.
func RateStats(ctx context.Context, db *gorm.DB, deploymentID string, p domain.RatePolicy, now time.Time) (tracked, atLimit int64, err error) {
	q := db.WithContext(ctx).Model(&domain.RateWindow{}).Where("deployment_id = ?", deploymentID)
	if err = q.Count(&tracked).Error; err != nil {
		return 0, 0, err
	}
	if p.Limit <= 0 || tracked == 0 {
		return tracked, 0, nil
	}

	var full []domain.RateWindow
	err = db.WithContext(ctx).
		Where("deployment_id = ? AND attempts >= ?", deploymentID, p.Limit).
		Find(&full).Error
	if err != nil {
		return 0, 0, err
	}
	window := time.Duration(p.WindowMinutes) * time.Minute
	for _, w := range full {
		if now.Sub(w.WindowStart) <= window {
			atLimit++
		}
	}
	return tracked, atLimit, nil
}

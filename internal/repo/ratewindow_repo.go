package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-tellonym/internal/domain"
)

var rateWindowKey = []clause.Column{{Name: "deployment_id"}, {Name: "user_id"}}

// GetRateWindow loads the window for userID; ok is false when none exists.
func GetRateWindow(ctx context.Context, db *gorm.DB, deploymentID, userID string) (w domain.RateWindow, ok bool, err error) {
	err = db.WithContext(ctx).First(&w, "deployment_id = ? AND user_id = ?", deploymentID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RateWindow{}, false, nil
	}
	if err != nil {
		return domain.RateWindow{}, false, err
	}
	return w, true, nil
}

// ResetRateWindow sets the user's window to {0, start}.
func ResetRateWindow(ctx context.Context, db *gorm.DB, deploymentID, userID string, start time.Time) error {
	row := &domain.RateWindow{DeploymentID: deploymentID, UserID: userID, Attempts: 0, WindowStart: start.UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   rateWindowKey,
			DoUpdates: clause.Assignments(map[string]any{"attempts": 0, "window_start": row.WindowStart}),
		}).
		Create(row).Error
}

// IncrementRateWindow adds one attempt in a single statement. A missing
// window is created as {1, now}; an existing window keeps its start.
func IncrementRateWindow(ctx context.Context, db *gorm.DB, deploymentID, userID string, now time.Time) error {
	row := &domain.RateWindow{DeploymentID: deploymentID, UserID: userID, Attempts: 1, WindowStart: now.UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   rateWindowKey,
			DoUpdates: clause.Assignments(map[string]any{"attempts": gorm.Expr("attempts + 1")}),
		}).
		Create(row).Error
}

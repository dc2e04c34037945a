// Package repo implements the data persistence layer for deployment
// configuration. This file provides read and upsert helpers for the single
// settings row of a deployment.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-tellonym/internal/domain"
)

// GetSettings loads the settings row for deploymentID. When no row exists
// yet, def is returned with the deployment id filled in.
func GetSettings(ctx context.Context, db *gorm.DB, deploymentID string, def domain.Settings) (domain.Settings, error) {
	var s domain.Settings
	err := db.WithContext(ctx).First(&s, "deployment_id = ?", deploymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def.DeploymentID = deploymentID
		return def, nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	return s, nil
}

// UpsertSettings writes every column of s, inserting the row if needed.
func UpsertSettings(ctx context.Context, db *gorm.DB, s *domain.Settings) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(s).Error
}

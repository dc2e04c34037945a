// Package repo implements the data persistence layer for deployment
// configuration. This file provides repository functions for the ban list.
//
// Duplicate bans are absorbed by ON CONFLICT DO NOTHING so callers can tell
// "newly banned" from "already banned" through the returned flag.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-tellonym/internal/domain"
)

// AddBan bans userID and reports whether a new row was written.
func AddBan(ctx context.Context, db *gorm.DB, deploymentID, userID string) (bool, error) {
	row := &domain.BannedUser{DeploymentID: deploymentID, UserID: userID, CreatedAt: time.Now().UTC()}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RemoveBan lifts a ban and reports whether one existed.
func RemoveBan(ctx context.Context, db *gorm.DB, deploymentID, userID string) (bool, error) {
	res := db.WithContext(ctx).
		Where("deployment_id = ? AND user_id = ?", deploymentID, userID).
		Delete(&domain.BannedUser{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// BannedUserIDs returns every banned user id for the deployment.
func BannedUserIDs(ctx context.Context, db *gorm.DB, deploymentID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.BannedUser{}).
		Where("deployment_id = ?", deploymentID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// CountBans returns the number of banned users.
func CountBans(ctx context.Context, db *gorm.DB, deploymentID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.BannedUser{}).Where("deployment_id = ?", deploymentID).Count(&n).Error
	return n, err
}

// ListBansPage returns one page of bans ordered by ban time.
func ListBansPage(ctx context.Context, db *gorm.DB, deploymentID string, offset, limit int) ([]domain.BannedUser, error) {
	var out []domain.BannedUser
	err := db.WithContext(ctx).
		Where("deployment_id = ?", deploymentID).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

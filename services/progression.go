package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"swimforge-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LevelConfig: XP needed for *next* level (e.g., level 1 → 2 needs BaseXPPerLevel * 1^1.2)
const BaseXPPerLevel = 100

// xpForNextLevel returns XP required to reach level+1 from current level
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// EnsureProfile ensures a SwimmerProfile row exists (idempotent)
func (s *ProgressionService) EnsureProfile(externalUserID string) (*models.SwimmerProfile, error) {
	var profile models.SwimmerProfile
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		profile = models.SwimmerProfile{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Level:          1,
		}
		if err := s.DB.Create(&profile).Error; err != nil {
			return nil, err
		}
		return &profile, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// AwardXP atomically increments XP and recomputes the level. The read and
// write happen inside one transaction so concurrent awards never lose an
// increment (XP is added to, never overwritten).
func (s *ProgressionService) AwardXP(externalUserID string, xp int64, reason string) (*models.SwimmerProfile, error) {
	var updated *models.SwimmerProfile
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		profile, err := s.awardXP(tx, externalUserID, xp, reason)
		updated = profile
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// awardXP is the transactional core: it runs on the caller's handle so a
// badge award (or challenge completion) can commit the credit together with
// its own rows.
func (s *ProgressionService) awardXP(tx *gorm.DB, externalUserID string, xp int64, reason string) (*models.SwimmerProfile, error) {
	if xp <= 0 {
		return nil, fmt.Errorf("xp must be positive, got %d", xp)
	}

	var profile models.SwimmerProfile
	if err := tx.Where("external_user_id = ?", externalUserID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("profile not found for %s", externalUserID)
	}

	profile.TotalXP += xp

	// Level-up: accumulate until not enough for the next level
	for profile.TotalXP >= int64(BaseXPPerLevel)*int64(profile.Level)+xpForNextLevel(profile.Level) {
		profile.Level++
		now := time.Now()
		profile.LastLevelUpAt = &now
	}

	if err := tx.Save(&profile).Error; err != nil {
		return nil, err
	}

	log.Printf("[XP] %s → XP=%d, Lvl=%d (reason: %s)", externalUserID, profile.TotalXP, profile.Level, reason)

	updated := profile
	return &updated, nil
}

// RecordActivityTotals bumps the profile aggregates for one ingested swim.
// Called by the ingestion path only; totals never decrease here.
func (s *ProgressionService) RecordActivityTotals(activity *models.SwimmingActivity) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var profile models.SwimmerProfile
		if err := tx.Where("external_user_id = ?", activity.ExternalUserID).First(&profile).Error; err != nil {
			return fmt.Errorf("profile not found for %s", activity.ExternalUserID)
		}

		profile.TotalDistanceMeters += int64(activity.DistanceMeters)
		profile.TotalDurationSeconds += int64(activity.DurationSeconds)
		profile.TotalSessions++
		if activity.IsOpenWater {
			profile.OpenWaterSessions++
			profile.OpenWaterDistance += int64(activity.DistanceMeters)
		}
		if int64(activity.DistanceMeters) > profile.LongestSessionMeters {
			profile.LongestSessionMeters = int64(activity.DistanceMeters)
		}

		return tx.Save(&profile).Error
	})
}

// GetRecentActivities returns the user's swims from the last N days, newest first.
func (s *ProgressionService) GetRecentActivities(externalUserID string, days int) ([]models.SwimmingActivity, error) {
	var activities []models.SwimmingActivity
	since := time.Now().AddDate(0, 0, -days)
	err := s.DB.Where("external_user_id = ? AND activity_date >= ?", externalUserID, since).
		Order("activity_date DESC").
		Find(&activities).Error
	return activities, err
}

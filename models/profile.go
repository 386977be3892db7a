package models

import (
	"time"

	"gorm.io/gorm"
)

// SwimmerProfile is the per-user aggregate row (denormalized for performance).
// Three writers touch disjoint fields: ingestion bumps the totals, the badge
// engine increments XP, and the skill estimator owns the skill_* columns.
type SwimmerProfile struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Running totals — monotonically non-decreasing (corrective edits happen
	// outside this service).
	TotalDistanceMeters   int64 `json:"total_distance_meters" gorm:"default:0"`
	TotalDurationSeconds  int64 `json:"total_duration_seconds" gorm:"default:0"`
	TotalSessions         int64 `json:"total_sessions" gorm:"default:0"`
	OpenWaterSessions     int64 `json:"open_water_sessions" gorm:"default:0"`
	OpenWaterDistance     int64 `json:"open_water_distance" gorm:"default:0"`
	LongestSessionMeters  int64 `json:"longest_session_meters" gorm:"default:0"`

	// Core progression
	TotalXP int64 `json:"total_xp" gorm:"default:0"`
	Level   int   `json:"level" gorm:"default:1"`

	// Skill classification (owned by the skill estimator)
	SkillLevel       int        `json:"skill_level" gorm:"default:0"` // 1-7, 0 = never evaluated
	SkillLabel       string     `json:"skill_label"`
	SkillConfidence  int        `json:"skill_confidence" gorm:"default:0"`
	SkillChange      string     `json:"skill_change" gorm:"type:varchar(16)"` // promoted / demoted / unchanged
	SkillEvaluatedAt *time.Time `json:"skill_evaluated_at,omitempty"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

package models

import (
	"time"
)

// ChallengeObjective is the metric a challenge ranks participants by.
type ChallengeObjective string

const (
	ObjectiveTotalDistance  ChallengeObjective = "total_distance"
	ObjectiveTotalSessions  ChallengeObjective = "total_sessions"
	ObjectiveConsistency    ChallengeObjective = "consistency"
	ObjectiveAvgPace        ChallengeObjective = "avg_pace"
	ObjectiveTotalTime      ChallengeObjective = "total_time"
	ObjectiveLongestSession ChallengeObjective = "longest_session"
)

// ChallengeType filters which swims count toward progress.
type ChallengeType string

const (
	ChallengePool      ChallengeType = "pool"
	ChallengeOpenWater ChallengeType = "open_water"
	ChallengeBoth      ChallengeType = "both"
)

// Challenge statuses. "completed" is terminal: once the lifecycle job
// finalizes a challenge its status is never re-derived from dates again.
const (
	ChallengeStatusPending   = "pending"
	ChallengeStatusActive    = "active"
	ChallengeStatusCompleted = "completed"
	ChallengeStatusCancelled = "cancelled"
)

// Challenge is a time-boxed social competition.
type Challenge struct {
	ID          string             `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name        string             `json:"name" gorm:"not null"`
	Description string             `json:"description"`
	Objective   ChallengeObjective `json:"objective" gorm:"type:varchar(24);not null"`
	Type        ChallengeType      `json:"type" gorm:"type:varchar(16);default:'both'"`
	Status      string             `json:"status" gorm:"type:varchar(16);default:'pending';index"`

	StartDate time.Time  `json:"start_date" gorm:"not null"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	MaxParticipants int    `json:"max_participants" gorm:"default:0"` // 0 = unlimited
	BadgeCode       string `json:"badge_code,omitempty"`              // optional explicit winner badge
	BonusXP         int64  `json:"bonus_xp" gorm:"default:500"`
	PrizeLabel      string `json:"prize_label,omitempty"` // e.g., "1 month premium"

	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Participants []ChallengeParticipant `json:"participants,omitempty" gorm:"foreignKey:ChallengeID"`

	Timestamps

	// Calculated, not stored.
	ParticipantCount int64 `json:"participant_count,omitempty" gorm:"-"`
}

// ChallengeParticipant: one row per user per challenge. CurrentRank is
// recomputed in full on every progress refresh; IsWinner is written only by
// the completion job.
type ChallengeParticipant struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ChallengeID    string `json:"challenge_id" gorm:"uniqueIndex:idx_challenge_user;not null"`
	ExternalUserID string `json:"external_user_id" gorm:"uniqueIndex:idx_challenge_user;not null"`
	UserName       string `json:"user_name"` // denormalized at join time

	CurrentProgress float64    `json:"current_progress" gorm:"default:0"`
	CurrentRank     int        `json:"current_rank" gorm:"default:0"` // 1-based, 0 = unranked
	IsWinner        bool       `json:"is_winner" gorm:"default:false"`
	JoinedAt        time.Time  `json:"joined_at" gorm:"autoCreateTime"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

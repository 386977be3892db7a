package models

import (
	"time"

	"gorm.io/gorm"
)

// SwimmingActivity is one logged swim. Rows are written once by the ingestion
// path (Garmin sync worker or manual entry) and never mutated by the engine.
type SwimmingActivity struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`
	// GarminActivityID deduplicates re-synced activities (unique per source
	// row). NULL for activities with no source id (e.g. manual entries) so the
	// unique index never collides on the empty string.
	GarminActivityID *string `gorm:"uniqueIndex" json:"garmin_activity_id,omitempty"`

	ActivityName string    `json:"activity_name"`
	ActivityDate time.Time `gorm:"index;not null" json:"activity_date"`

	DistanceMeters  int     `json:"distance_meters" gorm:"default:0"`
	DurationSeconds int     `json:"duration_seconds" gorm:"default:0"`
	AvgPacePer100m  *int    `json:"avg_pace_per_100m,omitempty"` // seconds per 100m
	Fastest100mTime *int    `json:"fastest_100m_time,omitempty"` // best split, seconds
	SwolfScore      *int    `json:"swolf_score,omitempty"`
	Calories        *int    `json:"calories,omitempty"`
	AvgHeartRate    *int    `json:"avg_heart_rate,omitempty"`
	MaxHeartRate    *int    `json:"max_heart_rate,omitempty"`
	TrainingEffect  *float64 `json:"training_effect,omitempty"`

	// Seconds spent in each heart-rate zone (1 = easiest, 5 = hardest).
	Zone1Seconds int `json:"zone1_seconds" gorm:"default:0"`
	Zone2Seconds int `json:"zone2_seconds" gorm:"default:0"`
	Zone3Seconds int `json:"zone3_seconds" gorm:"default:0"`
	Zone4Seconds int `json:"zone4_seconds" gorm:"default:0"`
	Zone5Seconds int `json:"zone5_seconds" gorm:"default:0"`

	PoolLength  *int   `json:"pool_length,omitempty"` // meters, nil for open water
	StrokeType  string `json:"stroke_type" gorm:"type:varchar(16);default:'mixed'"`
	LapsCount   *int   `json:"laps_count,omitempty"`
	IsOpenWater bool   `json:"is_open_water" gorm:"index;default:false"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// HighIntensitySeconds is the time spent in zones 4-5, used as the fallback
// intensity signal when the device reports no training-effect score.
func (a *SwimmingActivity) HighIntensitySeconds() int {
	return a.Zone4Seconds + a.Zone5Seconds
}

// TotalZoneSeconds sums all five zone buckets. Zero means no HR data synced.
func (a *SwimmingActivity) TotalZoneSeconds() int {
	return a.Zone1Seconds + a.Zone2Seconds + a.Zone3Seconds + a.Zone4Seconds + a.Zone5Seconds
}

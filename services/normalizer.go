package services

import (
	"strconv"
	"strings"
	"time"

	"swimforge-engine/models"
)

// RawGarminActivity mirrors the payload shape served by the Garmin sync
// service. Field availability varies a lot by device generation, so almost
// everything beyond distance and duration is optional.
type RawGarminActivity struct {
	ActivityID   int64  `json:"activityId"`
	ActivityName string `json:"activityName"`
	ActivityType struct {
		TypeKey string `json:"typeKey"`
	} `json:"activityType"`
	StartTimeLocal string `json:"startTimeLocal"`
	StartTimeGMT   string `json:"startTimeGMT"`

	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds

	PoolLength      *int     `json:"poolLength,omitempty"`
	Calories        *int     `json:"calories,omitempty"`
	AverageHR       *int     `json:"averageHR,omitempty"`
	AvgHeartRate    *int     `json:"avgHeartRate,omitempty"`
	MaxHR           *int     `json:"maxHR,omitempty"`
	MaxHeartRate    *int     `json:"maxHeartRate,omitempty"`
	AvgSwolf        *int     `json:"avgSwolf,omitempty"`
	Fastest100m     *int     `json:"fastestSplit_100,omitempty"`
	TrainingEffect  *float64 `json:"aerobicTrainingEffect,omitempty"`
	LapCount        *int     `json:"lapCount,omitempty"`
	TotalLaps       *int     `json:"totalLaps,omitempty"`
	HRZoneSeconds   []int    `json:"hrTimeInZone,omitempty"`
}

// garminTimeLayouts covers the two timestamp formats the sync service emits.
var garminTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// IsSwimmingActivity filters the raw feed down to swims.
func IsSwimmingActivity(raw *RawGarminActivity) bool {
	typeKey := strings.ToLower(raw.ActivityType.TypeKey)
	return strings.Contains(typeKey, "swim") || strings.Contains(typeKey, "pool")
}

// inferStrokeType guesses the dominant stroke from the activity name. Garmin
// names are frequently Italian in our user base, so both languages match.
func inferStrokeType(activityName string) string {
	name := strings.ToLower(activityName)
	switch {
	case strings.Contains(name, "stile") || strings.Contains(name, "crawl") || strings.Contains(name, "freestyle"):
		return "freestyle"
	case strings.Contains(name, "dorso") || strings.Contains(name, "back"):
		return "backstroke"
	case strings.Contains(name, "rana") || strings.Contains(name, "breast"):
		return "breaststroke"
	case strings.Contains(name, "delfino") || strings.Contains(name, "farfalla") || strings.Contains(name, "butterfly"):
		return "butterfly"
	default:
		return "mixed"
	}
}

func firstInt(candidates ...*int) *int {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func parseGarminTime(local, gmt string) time.Time {
	for _, raw := range []string{local, gmt} {
		if raw == "" {
			continue
		}
		for _, layout := range garminTimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Now()
}

// NormalizeGarminActivity converts one raw payload into the canonical
// activity row. Pace is derived (duration/distance x 100) only when both
// inputs are positive; otherwise it stays nil and downstream evaluators
// treat it as missing.
func NormalizeGarminActivity(externalUserID string, raw *RawGarminActivity) *models.SwimmingActivity {
	typeKey := strings.ToLower(raw.ActivityType.TypeKey)
	isOpenWater := strings.Contains(typeKey, "open_water") || strings.Contains(typeKey, "openwater")

	distance := int(raw.Distance)
	duration := int(raw.Duration)

	var avgPace *int
	if distance > 0 && duration > 0 {
		pace := int(float64(duration) / float64(distance) * 100)
		avgPace = &pace
	}

	name := raw.ActivityName
	if name == "" {
		name = "Swimming"
	}

	activity := &models.SwimmingActivity{
		ExternalUserID:   externalUserID,
		GarminActivityID: garminActivityID(raw.ActivityID),
		ActivityName:     name,
		ActivityDate:     parseGarminTime(raw.StartTimeLocal, raw.StartTimeGMT),
		DistanceMeters:   distance,
		DurationSeconds:  duration,
		AvgPacePer100m:   avgPace,
		Fastest100mTime:  raw.Fastest100m,
		SwolfScore:       raw.AvgSwolf,
		Calories:         raw.Calories,
		AvgHeartRate:     firstInt(raw.AverageHR, raw.AvgHeartRate),
		MaxHeartRate:     firstInt(raw.MaxHR, raw.MaxHeartRate),
		TrainingEffect:   raw.TrainingEffect,
		PoolLength:       raw.PoolLength,
		StrokeType:       inferStrokeType(raw.ActivityName),
		LapsCount:        firstInt(raw.LapCount, raw.TotalLaps),
		IsOpenWater:      isOpenWater,
	}
	if isOpenWater {
		activity.PoolLength = nil
	}

	if len(raw.HRZoneSeconds) >= 5 {
		activity.Zone1Seconds = raw.HRZoneSeconds[0]
		activity.Zone2Seconds = raw.HRZoneSeconds[1]
		activity.Zone3Seconds = raw.HRZoneSeconds[2]
		activity.Zone4Seconds = raw.HRZoneSeconds[3]
		activity.Zone5Seconds = raw.HRZoneSeconds[4]
	}

	return activity
}

// garminActivityID returns nil for a missing source id: the activity is then
// stored without a dedup key instead of colliding on "".
func garminActivityID(id int64) *string {
	if id == 0 {
		return nil
	}
	s := strconv.FormatInt(id, 10)
	return &s
}

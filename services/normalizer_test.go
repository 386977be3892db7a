package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawActivity(typeKey, name string) *RawGarminActivity {
	raw := &RawGarminActivity{ActivityID: 12345, ActivityName: name}
	raw.ActivityType.TypeKey = typeKey
	return raw
}

func TestIsSwimmingActivity(t *testing.T) {
	assert.True(t, IsSwimmingActivity(rawActivity("lap_swimming", "")))
	assert.True(t, IsSwimmingActivity(rawActivity("open_water_swimming", "")))
	assert.True(t, IsSwimmingActivity(rawActivity("pool_swim", "")))
	assert.False(t, IsSwimmingActivity(rawActivity("running", "")))
	assert.False(t, IsSwimmingActivity(rawActivity("", "")))
}

func TestInferStrokeType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Morning Freestyle", "freestyle"},
		{"Stile libero 1500m", "freestyle"},
		{"Crawl intervals", "freestyle"},
		{"Backstroke drills", "backstroke"},
		{"Dorso tecnica", "backstroke"},
		{"Rana 50s", "breaststroke"},
		{"Breaststroke set", "breaststroke"},
		{"Delfino sprint", "butterfly"},
		{"Butterfly 100s", "butterfly"},
		{"Farfalla", "butterfly"},
		{"Lunch swim", "mixed"},
		{"", "mixed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inferStrokeType(tt.name), tt.name)
	}
}

func TestNormalizeGarminActivity(t *testing.T) {
	raw := rawActivity("lap_swimming", "Stile libero")
	raw.StartTimeLocal = "2025-07-10 07:30:00"
	raw.Distance = 1500
	raw.Duration = 1800
	raw.PoolLength = intPtr(25)
	raw.AvgSwolf = intPtr(42)
	raw.AverageHR = intPtr(138)
	raw.LapCount = intPtr(60)
	raw.HRZoneSeconds = []int{200, 400, 600, 400, 200}

	activity := NormalizeGarminActivity("user-1", raw)

	assert.Equal(t, "user-1", activity.ExternalUserID)
	require.NotNil(t, activity.GarminActivityID)
	assert.Equal(t, "12345", *activity.GarminActivityID)
	assert.Equal(t, 1500, activity.DistanceMeters)
	assert.Equal(t, 1800, activity.DurationSeconds)
	require.NotNil(t, activity.AvgPacePer100m)
	assert.Equal(t, 120, *activity.AvgPacePer100m) // 1800/1500*100
	assert.Equal(t, "freestyle", activity.StrokeType)
	assert.False(t, activity.IsOpenWater)
	require.NotNil(t, activity.PoolLength)
	assert.Equal(t, 25, *activity.PoolLength)
	assert.Equal(t, 138, *activity.AvgHeartRate)
	assert.Equal(t, 60, *activity.LapsCount)
	assert.Equal(t, 400, activity.Zone4Seconds)
	assert.Equal(t, 2025, activity.ActivityDate.Year())
}

func TestNormalizeOpenWaterDropsPoolLength(t *testing.T) {
	raw := rawActivity("open_water_swimming", "Sea swim")
	raw.Distance = 2000
	raw.Duration = 2600
	raw.PoolLength = intPtr(25) // device quirk: pool length on an open water swim

	activity := NormalizeGarminActivity("user-1", raw)

	assert.True(t, activity.IsOpenWater)
	assert.Nil(t, activity.PoolLength)
}

func TestNormalizeMissingActivityIDStaysNil(t *testing.T) {
	raw := rawActivity("lap_swimming", "Manual entry")
	raw.ActivityID = 0
	raw.Distance = 1000
	raw.Duration = 1500

	first := NormalizeGarminActivity("user-1", raw)
	second := NormalizeGarminActivity("user-1", raw)

	// Two id-less activities must not share a dedup key: the unique index
	// ignores NULLs but would reject a second "".
	assert.Nil(t, first.GarminActivityID)
	assert.Nil(t, second.GarminActivityID)
}

func TestNormalizeNoPaceWithoutDistance(t *testing.T) {
	raw := rawActivity("lap_swimming", "Drill session")
	raw.Duration = 1200 // distance missing

	activity := NormalizeGarminActivity("user-1", raw)

	assert.Nil(t, activity.AvgPacePer100m)
	assert.Equal(t, 0, activity.DistanceMeters)
}

func TestNormalizeHeartRateFallbackChain(t *testing.T) {
	raw := rawActivity("lap_swimming", "")
	raw.AvgHeartRate = intPtr(131) // only the alternate key present
	raw.MaxHR = intPtr(162)

	activity := NormalizeGarminActivity("user-1", raw)

	require.NotNil(t, activity.AvgHeartRate)
	assert.Equal(t, 131, *activity.AvgHeartRate)
	require.NotNil(t, activity.MaxHeartRate)
	assert.Equal(t, 162, *activity.MaxHeartRate)
	assert.Equal(t, "Swimming", activity.ActivityName) // default name
}

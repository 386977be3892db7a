package services

import (
	"testing"

	"swimforge-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillLabel(t *testing.T) {
	assert.Equal(t, "Beginner", SkillLabel(1))
	assert.Equal(t, "Advanced", SkillLabel(4))
	assert.Equal(t, "Elite", SkillLabel(7))
	assert.Equal(t, "Unrated", SkillLabel(0))
	assert.Equal(t, "Unrated", SkillLabel(8))
}

func TestClassifyIntensity(t *testing.T) {
	tests := []struct {
		name     string
		activity models.SwimmingActivity
		want     string
	}{
		{"training effect high", models.SwimmingActivity{TrainingEffect: floatPtr(3.5)}, "high"},
		{"training effect medium", models.SwimmingActivity{TrainingEffect: floatPtr(2.5)}, "medium"},
		{"training effect low", models.SwimmingActivity{TrainingEffect: floatPtr(2.4)}, "low"},
		{
			"zone fallback high",
			models.SwimmingActivity{Zone1Seconds: 300, Zone2Seconds: 300, Zone4Seconds: 250, Zone5Seconds: 150},
			"high", // 400/1000 in zones 4-5
		},
		{
			"zone fallback medium",
			models.SwimmingActivity{Zone1Seconds: 400, Zone2Seconds: 350, Zone4Seconds: 150, Zone5Seconds: 100},
			"medium", // 250/1000
		},
		{
			"zone fallback low",
			models.SwimmingActivity{Zone1Seconds: 500, Zone2Seconds: 400, Zone4Seconds: 100},
			"low",
		},
		{"no data at all", models.SwimmingActivity{}, "low"},
		{
			"training effect wins over zones",
			models.SwimmingActivity{TrainingEffect: floatPtr(4.0), Zone1Seconds: 1000},
			"high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyIntensity(&tt.activity))
		})
	}
}

func TestFastest100mPrefersExplicitSplit(t *testing.T) {
	v, ok := fastest100m(&models.SwimmingActivity{
		Fastest100mTime: intPtr(88),
		AvgPacePer100m:  intPtr(102),
	})
	require.True(t, ok)
	assert.Equal(t, 88.0, v)

	v, ok = fastest100m(&models.SwimmingActivity{AvgPacePer100m: intPtr(102)})
	require.True(t, ok)
	assert.Equal(t, 102.0, v)

	_, ok = fastest100m(&models.SwimmingActivity{})
	assert.False(t, ok)
}

func TestTimeTierBoundaries(t *testing.T) {
	tests := []struct {
		seconds float64
		want    int
	}{
		{60, 7}, {65, 7},
		{65.1, 6}, {72, 6},
		{78, 5},
		{85.2, 4}, {86, 4},
		{100, 3},
		{120, 2},
		{121, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timeTier(tt.seconds), "adjusted time %.1f", tt.seconds)
	}
}

func TestSwolfTierBoundaries(t *testing.T) {
	tests := []struct {
		swolf float64
		want  int
	}{
		{30, 7}, {35, 7}, {40, 6}, {45, 5}, {50, 4}, {58, 3}, {68, 2}, {69, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, swolfTier(tt.swolf), "swolf %.0f", tt.swolf)
	}
}

func TestBlendTiers(t *testing.T) {
	assert.Equal(t, 6, blendTiers(7, 5)) // round(6.4)
	assert.Equal(t, 7, blendTiers(7, 7))
	assert.Equal(t, 1, blendTiers(1, 1))
	assert.Equal(t, 2, blendTiers(2, 3)) // round(2.3)
	assert.Equal(t, 5, blendTiers(5, 6)) // round(5.3)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 98.0, median([]float64{95, 98, 101, 99, 97}))
	assert.Equal(t, 95.0, median([]float64{100, 90}))
	assert.Equal(t, 42.0, median([]float64{42}))
}

func TestSkillConfidence(t *testing.T) {
	assert.Equal(t, 80, skillConfidence(6, false)) // full sample bonus
	assert.Equal(t, 90, skillConfidence(6, true))
	assert.Equal(t, 77, skillConfidence(5, false)) // 60 + round(16.7)
	assert.Equal(t, 70, skillConfidence(3, false))
}

func TestClassifySkillTier(t *testing.T) {
	// Times 95-101s at medium intensity: median 98 / 1.15 ≈ 85.2s.
	times := []int{95, 98, 101, 99, 97}
	var activities []models.SwimmingActivity
	for _, sec := range times {
		activities = append(activities, models.SwimmingActivity{
			Fastest100mTime: intPtr(sec),
			TrainingEffect:  floatPtr(2.8), // medium
		})
	}

	tier, samples, hasSwolf, ok := classifySkillTier(activities)
	require.True(t, ok)
	assert.Equal(t, 5, samples)
	assert.False(t, hasSwolf)
	assert.Equal(t, 4, tier)
}

func TestClassifySkillTierWithSwolf(t *testing.T) {
	activities := []models.SwimmingActivity{
		{Fastest100mTime: intPtr(64), TrainingEffect: floatPtr(4.0), SwolfScore: intPtr(44)},
		{Fastest100mTime: intPtr(66), TrainingEffect: floatPtr(4.0), SwolfScore: intPtr(46)},
		{Fastest100mTime: intPtr(68), TrainingEffect: floatPtr(4.0), SwolfScore: intPtr(44)},
	}

	// Median 66 / 1.08 ≈ 61.1 → time tier 7; median SWOLF 44 → tier 5;
	// blend round(7*0.7 + 5*0.3) = 6.
	tier, samples, hasSwolf, ok := classifySkillTier(activities)
	require.True(t, ok)
	assert.Equal(t, 3, samples)
	assert.True(t, hasSwolf)
	assert.Equal(t, 6, tier)
}

func TestClassifySkillTierInsufficientSamples(t *testing.T) {
	activities := []models.SwimmingActivity{
		{Fastest100mTime: intPtr(90)},
		{Fastest100mTime: intPtr(92)},
		{SwolfScore: intPtr(40)}, // SWOLF alone is not a time sample
	}

	_, samples, _, ok := classifySkillTier(activities)
	assert.False(t, ok)
	assert.Equal(t, 2, samples)
}

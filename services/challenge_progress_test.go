package services

import (
	"testing"
	"time"

	"swimforge-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressForObjective(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 7, d, 7, 0, 0, 0, time.UTC)
	}
	activities := []models.SwimmingActivity{
		{DistanceMeters: 1500, DurationSeconds: 1800, ActivityDate: day(1), AvgPacePer100m: intPtr(120)},
		{DistanceMeters: 2000, DurationSeconds: 2400, ActivityDate: day(1), AvgPacePer100m: intPtr(110)},
		{DistanceMeters: 500, DurationSeconds: 900, ActivityDate: day(3)}, // no pace recorded
	}

	tests := []struct {
		objective models.ChallengeObjective
		want      float64
	}{
		{models.ObjectiveTotalDistance, 4000},
		{models.ObjectiveTotalSessions, 3},
		{models.ObjectiveTotalTime, 5100},
		{models.ObjectiveLongestSession, 2000},
		{models.ObjectiveConsistency, 2},   // two distinct days
		{models.ObjectiveAvgPace, 115},     // mean of recorded paces only
		{models.ChallengeObjective("???"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.objective), func(t *testing.T) {
			assert.Equal(t, tt.want, progressForObjective(tt.objective, activities))
		})
	}
}

func TestProgressForObjectiveEmptyHistory(t *testing.T) {
	for _, objective := range []models.ChallengeObjective{
		models.ObjectiveTotalDistance,
		models.ObjectiveAvgPace,
		models.ObjectiveConsistency,
	} {
		assert.Zero(t, progressForObjective(objective, nil), string(objective))
	}
}

func participant(userID string, progress float64, joined time.Time) models.ChallengeParticipant {
	return models.ChallengeParticipant{
		ExternalUserID:  userID,
		CurrentProgress: progress,
		JoinedAt:        joined,
	}
}

func TestRankParticipantsDenseAndTotal(t *testing.T) {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	participants := []models.ChallengeParticipant{
		participant("a", 5000, base),
		participant("b", 8000, base),
		participant("c", 0, base),
		participant("d", 6500, base),
	}

	rankParticipants(participants, models.ObjectiveTotalDistance)

	// Every rank in 1..N appears exactly once.
	seen := map[int]string{}
	for _, p := range participants {
		_, dup := seen[p.CurrentRank]
		require.False(t, dup, "duplicate rank %d", p.CurrentRank)
		seen[p.CurrentRank] = p.ExternalUserID
	}
	assert.Equal(t, "b", seen[1])
	assert.Equal(t, "d", seen[2])
	assert.Equal(t, "a", seen[3])
	assert.Equal(t, "c", seen[4])
}

func TestRankParticipantsTieBreaksByJoinTime(t *testing.T) {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	participants := []models.ChallengeParticipant{
		participant("late", 5000, base.Add(2*time.Hour)),
		participant("early", 5000, base),
	}

	rankParticipants(participants, models.ObjectiveTotalDistance)

	assert.Equal(t, "early", participants[0].ExternalUserID)
	assert.Equal(t, 1, participants[0].CurrentRank)
	assert.Equal(t, 2, participants[1].CurrentRank)
}

func TestRankParticipantsAvgPaceInverted(t *testing.T) {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	participants := []models.ChallengeParticipant{
		participant("slow", 130, base),
		participant("no-data", 0, base),
		participant("fast", 105, base),
	}

	rankParticipants(participants, models.ObjectiveAvgPace)

	assert.Equal(t, "fast", participants[0].ExternalUserID)
	assert.Equal(t, "slow", participants[1].ExternalUserID)
	// Zero progress means no recorded pace: always last, never "fastest".
	assert.Equal(t, "no-data", participants[2].ExternalUserID)
	assert.Equal(t, 3, participants[2].CurrentRank)
}

// Recomputing from the same inputs must be a fixed point: same progress,
// same ranks, regardless of the incoming order.
func TestRankParticipantsIdempotent(t *testing.T) {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	participants := []models.ChallengeParticipant{
		participant("a", 3000, base),
		participant("b", 9000, base.Add(time.Hour)),
		participant("c", 3000, base.Add(2*time.Hour)),
	}

	rankParticipants(participants, models.ObjectiveTotalDistance)
	first := make([]models.ChallengeParticipant, len(participants))
	copy(first, participants)

	rankParticipants(participants, models.ObjectiveTotalDistance)
	assert.Equal(t, first, participants)
}

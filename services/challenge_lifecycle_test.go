package services

import (
	"testing"
	"time"

	"swimforge-engine/models"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name      string
		status    string
		startDate time.Time
		endDate   *time.Time
		want      string
	}{
		{"not started yet", models.ChallengeStatusPending, future, nil, models.ChallengeStatusPending},
		{"started, open-ended", models.ChallengeStatusPending, past, nil, models.ChallengeStatusActive},
		{"started, ends later", models.ChallengeStatusActive, past, &future, models.ChallengeStatusActive},
		{"starts exactly now", models.ChallengeStatusPending, now, nil, models.ChallengeStatusActive},
		{"end date passed", models.ChallengeStatusActive, past, &past, models.ChallengeStatusCompleted},
		{"pending but already expired", models.ChallengeStatusPending, past, &past, models.ChallengeStatusCompleted},
		{"completed is terminal", models.ChallengeStatusCompleted, past, &future, models.ChallengeStatusCompleted},
		{"cancelled is never re-derived", models.ChallengeStatusCancelled, past, nil, models.ChallengeStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			challenge := models.Challenge{
				Status:    tt.status,
				StartDate: tt.startDate,
				EndDate:   tt.endDate,
			}
			assert.Equal(t, tt.want, deriveStatus(&challenge, now))
		})
	}
}

// A completed challenge stays completed even if its dates would re-derive to
// active — re-running the sweep can never resurrect a finalized challenge.
func TestDeriveStatusCompletedSticky(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	challenge := models.Challenge{
		Status:    models.ChallengeStatusCompleted,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   &future, // still in window
	}
	assert.Equal(t, models.ChallengeStatusCompleted, deriveStatus(&challenge, now))
}

func TestCompletionWinner(t *testing.T) {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	ranked := func(userID string, rank int, progress float64, isWinner bool) models.ChallengeParticipant {
		return models.ChallengeParticipant{
			ExternalUserID:  userID,
			CurrentRank:     rank,
			CurrentProgress: progress,
			IsWinner:        isWinner,
			JoinedAt:        base,
		}
	}

	tests := []struct {
		name         string
		participants []models.ChallengeParticipant
		want         string // empty = no winner picked
	}{
		{
			name:         "rank one with progress wins",
			participants: []models.ChallengeParticipant{ranked("a", 1, 5000, false), ranked("b", 2, 3000, false)},
			want:         "a",
		},
		{
			name:         "rank one without progress is no winner",
			participants: []models.ChallengeParticipant{ranked("a", 1, 0, false), ranked("b", 2, 0, false)},
			want:         "",
		},
		{
			name:         "no participants",
			participants: nil,
			want:         "",
		},
		{
			// A reshuffled leaderboard after a partial finalization must not
			// crown a second winner: the earlier flag wins, permanently.
			name:         "existing winner blocks a new rank one",
			participants: []models.ChallengeParticipant{ranked("b", 1, 9000, false), ranked("a", 2, 5000, true)},
			want:         "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner := completionWinner(tt.participants)
			if tt.want == "" {
				assert.Nil(t, winner)
			} else {
				if assert.NotNil(t, winner) {
					assert.Equal(t, tt.want, winner.ExternalUserID)
				}
			}
		})
	}
}

func TestWinnerBadgeCode(t *testing.T) {
	tests := []struct {
		objective models.ChallengeObjective
		wantCode  string
		wantOK    bool
	}{
		{models.ObjectiveTotalDistance, "DISTANCE_CHAMPION", true},
		{models.ObjectiveTotalSessions, "SESSION_MASTER", true},
		{models.ObjectiveAvgPace, "SPEED_DEMON", true},
		{models.ObjectiveTotalTime, "ENDURANCE_LEGEND", true},
		{models.ObjectiveLongestSession, "ENDURANCE_LEGEND", true},
		{models.ObjectiveConsistency, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.objective), func(t *testing.T) {
			code, ok := winnerBadgeCode(tt.objective)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

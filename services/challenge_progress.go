package services

import (
	"log"
	"sort"

	"swimforge-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeService struct {
	DB          *gorm.DB
	Badges      *BadgeService
	Progression *ProgressionService
}

func NewChallengeService(db *gorm.DB, badges *BadgeService, progression *ProgressionService) *ChallengeService {
	return &ChallengeService{DB: db, Badges: badges, Progression: progression}
}

// progressForObjective reduces a participant's in-window activities to the
// single progress number for the challenge objective. Activities are assumed
// pre-filtered by date range and swim type. Missing data yields 0 (and nil
// paces are excluded from the avg_pace mean) — never a null that could leak
// into ranking.
func progressForObjective(objective models.ChallengeObjective, activities []models.SwimmingActivity) float64 {
	switch objective {
	case models.ObjectiveTotalDistance:
		var sum float64
		for i := range activities {
			sum += float64(activities[i].DistanceMeters)
		}
		return sum

	case models.ObjectiveTotalSessions:
		return float64(len(activities))

	case models.ObjectiveTotalTime:
		var sum float64
		for i := range activities {
			sum += float64(activities[i].DurationSeconds)
		}
		return sum

	case models.ObjectiveLongestSession:
		var best float64
		for i := range activities {
			if d := float64(activities[i].DistanceMeters); d > best {
				best = d
			}
		}
		return best

	case models.ObjectiveConsistency:
		days := make(map[string]bool)
		for i := range activities {
			days[activities[i].ActivityDate.Format("2006-01-02")] = true
		}
		return float64(len(days))

	case models.ObjectiveAvgPace:
		var sum float64
		var n int
		for i := range activities {
			if p := activities[i].AvgPacePer100m; p != nil {
				sum += float64(*p)
				n++
			}
		}
		if n == 0 {
			return 0
		}
		return sum / float64(n)

	default:
		return 0
	}
}

// rankParticipants assigns dense contiguous ranks 1..N in place. Higher
// progress ranks first, except avg_pace where lower (faster) progress ranks
// first and zero-progress participants sort below anyone with real data.
// Ties break by earlier join time.
func rankParticipants(participants []models.ChallengeParticipant, objective models.ChallengeObjective) {
	inverted := objective == models.ObjectiveAvgPace

	sort.SliceStable(participants, func(i, j int) bool {
		pi, pj := participants[i].CurrentProgress, participants[j].CurrentProgress
		if pi != pj {
			if inverted {
				// No pace recorded yet always loses to a real pace.
				if pi == 0 {
					return false
				}
				if pj == 0 {
					return true
				}
				return pi < pj
			}
			return pi > pj
		}
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})

	for i := range participants {
		participants[i].CurrentRank = i + 1
	}
}

// RecalculateProgress recomputes currentProgress for every participant of one
// challenge from scratch, then reranks. Running it twice with no new
// activities produces identical progress and rank values.
func (s *ChallengeService) RecalculateProgress(challengeID string) error {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Printf("[CHALLENGE] recalc skipped: challenge %s not found", challengeID)
			return nil
		}
		return err
	}
	if challenge.Status == models.ChallengeStatusCompleted || challenge.Status == models.ChallengeStatusCancelled {
		return nil
	}

	var participants []models.ChallengeParticipant
	if err := s.DB.Where("challenge_id = ?", challengeID).Find(&participants).Error; err != nil {
		return err
	}
	if len(participants) == 0 {
		return nil
	}

	for i := range participants {
		activities, err := s.participantActivities(&challenge, participants[i].ExternalUserID)
		if err != nil {
			return err
		}
		participants[i].CurrentProgress = progressForObjective(challenge.Objective, activities)
	}

	rankParticipants(participants, challenge.Objective)

	return s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range participants {
			if err := tx.Model(&models.ChallengeParticipant{}).
				Where("id = ?", participants[i].ID).
				Updates(map[string]interface{}{
					"current_progress": participants[i].CurrentProgress,
					"current_rank":     participants[i].CurrentRank,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// participantActivities fetches the swims that count for this challenge:
// inside [start, end] inclusive and matching the swim-type filter.
func (s *ChallengeService) participantActivities(challenge *models.Challenge, externalUserID string) ([]models.SwimmingActivity, error) {
	query := s.DB.Where("external_user_id = ? AND activity_date >= ?", externalUserID, challenge.StartDate)
	if challenge.EndDate != nil {
		query = query.Where("activity_date <= ?", *challenge.EndDate)
	}
	switch challenge.Type {
	case models.ChallengePool:
		query = query.Where("is_open_water = ?", false)
	case models.ChallengeOpenWater:
		query = query.Where("is_open_water = ?", true)
	}

	var activities []models.SwimmingActivity
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// JoinChallenge adds a user to a challenge. Duplicate joins are an
// idempotency signal (the unique (challenge, user) index rejects the second
// row), not an error to surface.
func (s *ChallengeService) JoinChallenge(challengeID, externalUserID, userName string) (*models.ChallengeParticipant, error) {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		return nil, err
	}
	if challenge.Status == models.ChallengeStatusCompleted || challenge.Status == models.ChallengeStatusCancelled {
		return nil, gorm.ErrInvalidData
	}

	if challenge.MaxParticipants > 0 {
		var count int64
		s.DB.Model(&models.ChallengeParticipant{}).
			Where("challenge_id = ?", challengeID).
			Count(&count)
		if int(count) >= challenge.MaxParticipants {
			return nil, gorm.ErrInvalidData
		}
	}

	participant := models.ChallengeParticipant{
		ID:             uuid.NewString(),
		ChallengeID:    challengeID,
		ExternalUserID: externalUserID,
		UserName:       userName,
	}
	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "challenge_id"}, {Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&participant)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Already joined — return the existing row.
		var existing models.ChallengeParticipant
		if err := s.DB.Where("challenge_id = ? AND external_user_id = ?", challengeID, externalUserID).
			First(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	return &participant, nil
}

// GetLeaderboard returns participants ordered by rank.
func (s *ChallengeService) GetLeaderboard(challengeID string) ([]models.ChallengeParticipant, error) {
	var participants []models.ChallengeParticipant
	err := s.DB.Where("challenge_id = ?", challengeID).
		Order("current_rank ASC, joined_at ASC").
		Find(&participants).Error
	return participants, err
}

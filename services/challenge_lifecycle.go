package services

import (
	"log"
	"time"

	"swimforge-engine/models"

	"gorm.io/gorm"
)

// deriveStatus re-derives a challenge status from the wall clock. Terminal
// and administrative states are never overridden: completed stays completed,
// cancelled stays cancelled.
func deriveStatus(challenge *models.Challenge, now time.Time) string {
	switch challenge.Status {
	case models.ChallengeStatusCompleted, models.ChallengeStatusCancelled:
		return challenge.Status
	}
	if challenge.EndDate != nil && challenge.EndDate.Before(now) {
		return models.ChallengeStatusCompleted
	}
	if !challenge.StartDate.After(now) {
		return models.ChallengeStatusActive
	}
	return models.ChallengeStatusPending
}

// winnerBadgeCode maps a challenge objective to its winner badge. The
// consistency objective has no winner badge by design.
func winnerBadgeCode(objective models.ChallengeObjective) (string, bool) {
	switch objective {
	case models.ObjectiveTotalDistance:
		return "DISTANCE_CHAMPION", true
	case models.ObjectiveTotalSessions:
		return "SESSION_MASTER", true
	case models.ObjectiveAvgPace:
		return "SPEED_DEMON", true
	case models.ObjectiveTotalTime, models.ObjectiveLongestSession:
		return "ENDURANCE_LEGEND", true
	default:
		return "", false
	}
}

// completionWinner picks the participant to flag on finalization: the rank-1
// row with real progress. It returns nil when any participant already holds
// the winner flag — a previous finalization attempt got that far, and a rank
// reshuffle from late-synced activities must not produce a second winner.
func completionWinner(participants []models.ChallengeParticipant) *models.ChallengeParticipant {
	for i := range participants {
		if participants[i].IsWinner {
			return nil
		}
	}
	for i := range participants {
		if participants[i].CurrentRank == 1 && participants[i].CurrentProgress > 0 {
			return &participants[i]
		}
	}
	return nil
}

// CompleteChallenge finalizes one challenge: final progress recalc, winner
// flag on the rank-1 participant (only if they actually scored), winner badge
// and bonus XP, completed_at stamps, then the terminal status write.
//
// Re-running on an already-completed challenge is a no-op. All finalization
// side effects commit in one transaction, and completionWinner refuses to
// pick a second winner, so a retry after a partial failure can never
// double-award the badge or the bonus XP.
func (s *ChallengeService) CompleteChallenge(challengeID string) error {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Printf("[CHALLENGE] complete skipped: challenge %s not found", challengeID)
			return nil
		}
		return err
	}
	if challenge.Status == models.ChallengeStatusCompleted {
		return nil
	}

	if err := s.RecalculateProgress(challengeID); err != nil {
		return err
	}

	now := time.Now()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var participants []models.ChallengeParticipant
		if err := tx.Where("challenge_id = ?", challengeID).
			Order("current_rank ASC").
			Find(&participants).Error; err != nil {
			return err
		}

		if winner := completionWinner(participants); winner != nil {
			if err := tx.Model(&models.ChallengeParticipant{}).
				Where("id = ?", winner.ID).
				Updates(map[string]interface{}{"is_winner": true, "completed_at": now}).Error; err != nil {
				return err
			}
			if err := s.awardWinner(tx, &challenge, winner); err != nil {
				return err
			}
		}

		// Everyone else just gets the completion stamp.
		if err := tx.Model(&models.ChallengeParticipant{}).
			Where("challenge_id = ? AND completed_at IS NULL", challengeID).
			Update("completed_at", now).Error; err != nil {
			return err
		}

		return tx.Model(&models.Challenge{}).
			Where("id = ?", challengeID).
			Updates(map[string]interface{}{
				"status":       models.ChallengeStatusCompleted,
				"completed_at": now,
			}).Error
	})
}

// awardWinner runs inside the completion transaction; any failure rolls the
// whole finalization back so the next sweep retries it from scratch.
func (s *ChallengeService) awardWinner(tx *gorm.DB, challenge *models.Challenge, winner *models.ChallengeParticipant) error {
	badgeCode := challenge.BadgeCode
	if badgeCode == "" {
		var ok bool
		badgeCode, ok = winnerBadgeCode(challenge.Objective)
		if !ok {
			log.Printf("[CHALLENGE] objective %s has no winner badge for challenge %s", challenge.Objective, challenge.ID)
		}
	}
	if badgeCode != "" {
		if _, err := s.Badges.awardBadgeByCode(tx, winner.ExternalUserID, badgeCode,
			`{"challenge_id": "`+challenge.ID+`"}`); err != nil {
			return err
		}
	}

	bonus := challenge.BonusXP
	if bonus <= 0 {
		bonus = 500
	}
	if _, err := s.Progression.awardXP(tx, winner.ExternalUserID, bonus, "challenge_won_"+challenge.ID); err != nil {
		return err
	}

	log.Printf("[CHALLENGE] 🏆 %s won challenge %s (progress=%.1f)", winner.ExternalUserID, challenge.ID, winner.CurrentProgress)
	return nil
}

// SweepResult reports the outcome of one batch sweep.
type SweepResult struct {
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// RefreshChallengeStatuses is the periodic lifecycle job. It re-derives the
// status of every non-terminal challenge, refreshes progress for active ones,
// and finalizes expired ones. One challenge failing does not abort the rest.
func (s *ChallengeService) RefreshChallengeStatuses() (SweepResult, error) {
	var result SweepResult

	var challenges []models.Challenge
	if err := s.DB.Where("status NOT IN ?", []string{
		models.ChallengeStatusCompleted, models.ChallengeStatusCancelled,
	}).Find(&challenges).Error; err != nil {
		return result, err
	}

	now := time.Now()
	for i := range challenges {
		ch := &challenges[i]
		result.Processed++

		target := deriveStatus(ch, now)
		switch target {
		case models.ChallengeStatusCompleted:
			if err := s.CompleteChallenge(ch.ID); err != nil {
				result.Failed++
				log.Printf("[CHALLENGE] completing %s failed: %v", ch.ID, err)
				continue
			}
			result.Completed++

		default:
			if target != ch.Status {
				if err := s.DB.Model(&models.Challenge{}).
					Where("id = ?", ch.ID).
					Update("status", target).Error; err != nil {
					result.Failed++
					log.Printf("[CHALLENGE] status update %s → %s failed: %v", ch.ID, target, err)
					continue
				}
			}
			if target == models.ChallengeStatusActive {
				if err := s.RecalculateProgress(ch.ID); err != nil {
					result.Failed++
					log.Printf("[CHALLENGE] recalc %s failed: %v", ch.ID, err)
				}
			}
		}
	}

	if result.Processed > 0 {
		log.Printf("[CHALLENGE] sweep: %d processed, %d completed, %d failed",
			result.Processed, result.Completed, result.Failed)
	}
	return result, nil
}

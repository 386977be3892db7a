package services

import (
	"log"

	"swimforge-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB          *gorm.DB
	Progression *ProgressionService
	// Derived may be nil; metric_peak rules then evaluate unmet.
	Derived DerivedMetricsProvider
}

func NewBadgeService(db *gorm.DB, progression *ProgressionService, derived DerivedMetricsProvider) *BadgeService {
	return &BadgeService{DB: db, Progression: progression, Derived: derived}
}

// CheckAndAwardBadges evaluates every badge definition the user does not own
// yet against their activity history and profile, and awards the ones whose
// criteria are satisfied. Returns the names of newly awarded badges.
//
// A missing profile or empty definition set is a no-op, not a failure.
// Concurrent invocations for the same user are safe: the insert is guarded by
// the unique (user, badge) index and a conflicting insert is simply skipped.
func (s *BadgeService) CheckAndAwardBadges(externalUserID string) ([]string, error) {
	var profile models.SwimmerProfile
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	var definitions []models.BadgeDefinition
	if err := s.DB.Find(&definitions).Error; err != nil {
		return nil, err
	}

	owned := make(map[string]bool)
	var ownedRows []models.UserBadge
	if err := s.DB.Where("external_user_id = ?", externalUserID).Find(&ownedRows).Error; err != nil {
		return nil, err
	}
	for _, ub := range ownedRows {
		owned[ub.BadgeID] = true
	}

	var activities []models.SwimmingActivity
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("activity_date DESC").
		Find(&activities).Error; err != nil {
		return nil, err
	}

	var awarded []string
	for i := range definitions {
		def := &definitions[i]
		if owned[def.ID] || def.Criteria == nil {
			continue
		}
		if !evaluateCriteria(def.Criteria, activities, &profile, externalUserID, s.Derived) {
			continue
		}
		ok, err := s.AwardBadge(externalUserID, def, "")
		if err != nil {
			log.Printf("[BADGE_ENGINE] award %s to %s failed: %v", def.Code, externalUserID, err)
			continue
		}
		if ok {
			awarded = append(awarded, def.Name)
		}
	}

	return awarded, nil
}

// AwardBadge inserts the UserBadge row and credits the definition's XP reward
// in one transaction: a failed credit rolls the badge row back, so a retry
// re-awards both together. Returns false when the user already held the badge
// (benign race — the conflicting insert is a no-op and no XP is credited).
func (s *BadgeService) AwardBadge(externalUserID string, def *models.BadgeDefinition, metadata string) (bool, error) {
	var created bool
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := s.awardBadge(tx, externalUserID, def, metadata)
		created = ok
		return err
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// awardBadge runs on the caller's transaction handle: badge row and XP
// credit commit together or not at all.
func (s *BadgeService) awardBadge(tx *gorm.DB, externalUserID string, def *models.BadgeDefinition, metadata string) (bool, error) {
	userBadge := models.UserBadge{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		BadgeID:        def.ID,
		Metadata:       metadata,
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(&userBadge)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race or double-check miss — someone already awarded it.
		return false, nil
	}

	log.Printf("[BADGE_ENGINE] 🎖️ Badge awarded: %s → %s", def.Name, externalUserID)

	if def.XPReward > 0 {
		if _, err := s.Progression.awardXP(tx, externalUserID, def.XPReward, "badge_"+def.Code); err != nil {
			return false, err
		}
	}
	return true, nil
}

// AwardBadgeByCode looks the definition up by code first. A missing
// definition is logged and skipped, not fatal.
func (s *BadgeService) AwardBadgeByCode(externalUserID, code, metadata string) (bool, error) {
	var created bool
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := s.awardBadgeByCode(tx, externalUserID, code, metadata)
		created = ok
		return err
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *BadgeService) awardBadgeByCode(tx *gorm.DB, externalUserID, code, metadata string) (bool, error) {
	var def models.BadgeDefinition
	if err := tx.Where("code = ?", code).First(&def).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Printf("[BADGE_ENGINE] no badge definition with code %s — skipping award", code)
			return false, nil
		}
		return false, err
	}
	return s.awardBadge(tx, externalUserID, &def, metadata)
}

// SeedDefaultDefinitions inserts the built-in definitions plus the seven
// skill-tier badges, skipping codes that already exist.
func (s *BadgeService) SeedDefaultDefinitions() error {
	defs := make([]models.BadgeDefinition, 0, len(models.DefaultBadgeDefinitions)+7)
	defs = append(defs, models.DefaultBadgeDefinitions...)
	for level := 1; level <= 7; level++ {
		defs = append(defs, models.BadgeDefinition{
			Code:     models.SkillTierBadgeCode(level),
			Name:     SkillLabel(level) + " Swimmer",
			Category: models.CategorySpecial,
			Rarity:   "common",
		})
	}

	for i := range defs {
		defs[i].ID = uuid.NewString()
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&defs[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

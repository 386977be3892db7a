package services

import (
	"log"
	"math"
	"sort"
	"time"

	"swimforge-engine/models"

	"gorm.io/gorm"
)

const (
	skillSampleWindow = 6 // most recent activities considered
	minSkillSamples   = 3
	skillSweepMinAge  = 6.5 * 24 * time.Hour // re-evaluate at most ~weekly
)

// SkillLabel maps a 1-7 tier to its user-facing name.
func SkillLabel(level int) string {
	switch level {
	case 1:
		return "Beginner"
	case 2:
		return "Novice"
	case 3:
		return "Intermediate"
	case 4:
		return "Advanced"
	case 5:
		return "Expert"
	case 6:
		return "Competitive"
	case 7:
		return "Elite"
	default:
		return "Unrated"
	}
}

// intensityMultiplier: a lower-intensity session is expected to be slower, so
// its times get a bigger allowance before the tier lookup.
func intensityMultiplier(intensity string) float64 {
	switch intensity {
	case "high":
		return 1.08
	case "medium":
		return 1.15
	default:
		return 1.25
	}
}

// classifyIntensity grades one session low/medium/high. Training effect is the
// primary signal; when absent we fall back to the share of time spent in heart
// rate zones 4-5.
func classifyIntensity(a *models.SwimmingActivity) string {
	if a.TrainingEffect != nil {
		te := *a.TrainingEffect
		if te >= 3.5 {
			return "high"
		}
		if te >= 2.5 {
			return "medium"
		}
		return "low"
	}

	total := a.TotalZoneSeconds()
	if total > 0 {
		ratio := float64(a.HighIntensitySeconds()) / float64(total)
		if ratio >= 0.35 {
			return "high"
		}
		if ratio >= 0.20 {
			return "medium"
		}
	}
	return "low"
}

// fastest100m extracts the fastest 100m-equivalent time in seconds, preferring
// the explicit fastest-split field over the session average pace.
func fastest100m(a *models.SwimmingActivity) (float64, bool) {
	if a.Fastest100mTime != nil && *a.Fastest100mTime > 0 {
		return float64(*a.Fastest100mTime), true
	}
	if a.AvgPacePer100m != nil && *a.AvgPacePer100m > 0 {
		return float64(*a.AvgPacePer100m), true
	}
	return 0, false
}

// timeTier maps an intensity-adjusted 100m time to a 1-7 tier. Inclusive upper
// bounds: a time exactly on a boundary earns the faster tier.
func timeTier(adjustedSeconds float64) int {
	switch {
	case adjustedSeconds <= 65:
		return 7
	case adjustedSeconds <= 72:
		return 6
	case adjustedSeconds <= 78:
		return 5
	case adjustedSeconds <= 86:
		return 4
	case adjustedSeconds <= 100:
		return 3
	case adjustedSeconds <= 120:
		return 2
	default:
		return 1
	}
}

// swolfTier maps a median SWOLF score to a 1-7 technique tier (lower SWOLF is
// better).
func swolfTier(swolf float64) int {
	switch {
	case swolf <= 35:
		return 7
	case swolf <= 40:
		return 6
	case swolf <= 45:
		return 5
	case swolf <= 50:
		return 4
	case swolf <= 58:
		return 3
	case swolf <= 68:
		return 2
	default:
		return 1
	}
}

// blendTiers combines the time tier (70%) with the technique tier (30%),
// rounded half up and clamped to [1,7].
func blendTiers(timeT, swolfT int) int {
	blended := int(math.Round(float64(timeT)*0.7 + float64(swolfT)*0.3))
	if blended < 1 {
		blended = 1
	}
	if blended > 7 {
		blended = 7
	}
	return blended
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// skillConfidence: base 60, up to +20 scaled by how many of the window's
// samples had usable times, +10 when any SWOLF data existed.
func skillConfidence(timeSamples int, hasSwolf bool) int {
	confidence := 60 + int(math.Round(20*float64(timeSamples)/float64(skillSampleWindow)))
	if hasSwolf {
		confidence += 10
	}
	return confidence
}

// classifySkillTier is the pure core of the estimator: given the sample
// window, produce the blended tier, the intensity-adjusted median time and
// whether SWOLF contributed. Returns ok=false when too few usable samples.
func classifySkillTier(activities []models.SwimmingActivity) (tier, timeSamples int, hasSwolf, ok bool) {
	var times []float64
	var swolfs []float64
	intensityVotes := map[string]int{}

	for i := range activities {
		a := &activities[i]
		if t, found := fastest100m(a); found {
			times = append(times, t)
			intensityVotes[classifyIntensity(a)]++
		}
		if a.SwolfScore != nil && *a.SwolfScore > 0 {
			swolfs = append(swolfs, float64(*a.SwolfScore))
		}
	}

	if len(times) < minSkillSamples {
		return 0, len(times), false, false
	}

	// Dominant intensity across the window decides the single multiplier.
	dominant := "low"
	best := 0
	for _, intensity := range []string{"high", "medium", "low"} {
		if intensityVotes[intensity] > best {
			best = intensityVotes[intensity]
			dominant = intensity
		}
	}

	adjusted := median(times) / intensityMultiplier(dominant)
	tTier := timeTier(adjusted)

	sTier := tTier
	if len(swolfs) > 0 {
		sTier = swolfTier(median(swolfs))
	}

	return blendTiers(tTier, sTier), len(times), len(swolfs) > 0, true
}

// SkillEvaluation is the outcome of one user evaluation.
type SkillEvaluation struct {
	NewLevel   int    `json:"new_level"`
	Label      string `json:"label"`
	Change     string `json:"change"` // promoted / demoted / unchanged
	Confidence int    `json:"confidence"`
}

type SkillService struct {
	DB     *gorm.DB
	Badges *BadgeService
}

func NewSkillService(db *gorm.DB, badges *BadgeService) *SkillService {
	return &SkillService{DB: db, Badges: badges}
}

// EvaluateUserSkillLevel classifies one user from their most recent swims.
// Returns (nil, nil) when the user has too little data to classify — that is
// a normal outcome, not an error.
func (s *SkillService) EvaluateUserSkillLevel(externalUserID string) (*SkillEvaluation, error) {
	var profile models.SwimmerProfile
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	var activities []models.SwimmingActivity
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("activity_date DESC").
		Limit(skillSampleWindow).
		Find(&activities).Error; err != nil {
		return nil, err
	}

	tier, timeSamples, hasSwolf, ok := classifySkillTier(activities)
	if !ok {
		log.Printf("[SKILL] %s: only %d usable samples, skipping evaluation", externalUserID, timeSamples)
		return nil, nil
	}

	change := "unchanged"
	switch {
	case profile.SkillLevel == 0 || tier > profile.SkillLevel:
		change = "promoted"
	case tier < profile.SkillLevel:
		change = "demoted"
	}

	evaluation := &SkillEvaluation{
		NewLevel:   tier,
		Label:      SkillLabel(tier),
		Change:     change,
		Confidence: skillConfidence(timeSamples, hasSwolf),
	}

	now := time.Now()
	if err := s.DB.Model(&models.SwimmerProfile{}).
		Where("external_user_id = ?", externalUserID).
		Updates(map[string]interface{}{
			"skill_level":        evaluation.NewLevel,
			"skill_label":        evaluation.Label,
			"skill_confidence":   evaluation.Confidence,
			"skill_change":       evaluation.Change,
			"skill_evaluated_at": now,
		}).Error; err != nil {
		return nil, err
	}

	// Profile badge mirrors the tier. Idempotent on re-evaluation.
	if _, err := s.Badges.AwardBadgeByCode(externalUserID, models.SkillTierBadgeCode(tier), ""); err != nil {
		log.Printf("[SKILL] tier badge for %s failed: %v", externalUserID, err)
	}

	log.Printf("[SKILL] %s → tier %d (%s, %s, confidence %d)",
		externalUserID, evaluation.NewLevel, evaluation.Label, evaluation.Change, evaluation.Confidence)
	return evaluation, nil
}

// EvaluateAllUsers is the weekly sweep. Profiles evaluated less than ~6.5
// days ago are skipped so an imprecise scheduler interval cannot cause
// mid-week re-evaluation. One user failing does not abort the batch.
func (s *SkillService) EvaluateAllUsers() (SweepResult, error) {
	var result SweepResult

	cutoff := time.Now().Add(-skillSweepMinAge)
	var profiles []models.SwimmerProfile
	if err := s.DB.Where("skill_evaluated_at IS NULL OR skill_evaluated_at < ?", cutoff).
		Find(&profiles).Error; err != nil {
		return result, err
	}

	for i := range profiles {
		result.Processed++
		evaluation, err := s.EvaluateUserSkillLevel(profiles[i].ExternalUserID)
		if err != nil {
			result.Failed++
			log.Printf("[SKILL] evaluation for %s failed: %v", profiles[i].ExternalUserID, err)
			continue
		}
		if evaluation != nil {
			result.Completed++
		}
	}

	log.Printf("[SKILL] sweep: %d processed, %d evaluated, %d failed",
		result.Processed, result.Completed, result.Failed)
	return result, nil
}

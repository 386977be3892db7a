// handlers/engine_routes.go
package handlers

import (
	"fmt"
	"strconv"
	"time"

	"swimforge-engine/middleware"
	"swimforge-engine/models"
	"swimforge-engine/services"
	"swimforge-engine/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func SetupEngineRoutes(
	app *fiber.App,
	progression *services.ProgressionService,
	badges *services.BadgeService,
	challenges *services.ChallengeService,
	skills *services.SkillService,
) {
	// Internal hook: the sync pipeline calls this after ingesting activities.
	app.Post("/sync/:user_id/badges", func(c *fiber.Ctx) error {
		userID := c.Params("user_id")
		awarded, err := badges.CheckAndAwardBadges(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "badge check failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"user_id":       userID,
			"newly_awarded": awarded,
		})
	})

	// 🔐 Secured routes — require user context forwarded by the Gateway.
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		profile, err := progression.EnsureProfile(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load profile",
				"cause": err.Error(),
			})
		}

		var badgeCount int64
		if err := progression.DB.Model(&models.UserBadge{}).
			Where("external_user_id = ?", userID).
			Count(&badgeCount).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to count badges",
				"cause": err.Error(),
			})
		}

		days, _ := strconv.Atoi(c.Query("days", "7"))
		recent, err := progression.GetRecentActivities(userID, days)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get recent activities",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"id":                     profile.ID,
			"xp":                     profile.TotalXP,
			"level":                  profile.Level,
			"total_distance_meters":  profile.TotalDistanceMeters,
			"total_duration_seconds": profile.TotalDurationSeconds,
			"total_sessions":         profile.TotalSessions,
			"open_water_sessions":    profile.OpenWaterSessions,
			"longest_session_meters": profile.LongestSessionMeters,
			"skill_level":            profile.SkillLevel,
			"skill_label":            profile.SkillLabel,
			"skill_confidence":       profile.SkillConfidence,
			"skill_change":           profile.SkillChange,
			"badge_count":            badgeCount,
			"recent_activities":      recent,
			"last_level_up_at":       profile.LastLevelUpAt,
		})
	})

	securedGroup.Get("/user/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type ownedBadge struct {
			ID        string     `json:"id"`
			Code      string     `json:"code"`
			Name      string     `json:"name"`
			IconURL   string     `json:"icon_url"`
			Rarity    string     `json:"rarity"`
			AwardedAt time.Time  `json:"awarded_at"`
			Metadata  string     `json:"metadata,omitempty"`
		}
		var owned []ownedBadge
		if err := progression.DB.Raw(`
			SELECT ub.id, bd.code, bd.name, bd.icon_url, bd.rarity, ub.awarded_at, ub.metadata
			FROM user_badges ub
			INNER JOIN badge_definitions bd ON bd.id = ub.badge_id
			WHERE ub.external_user_id = ?
			ORDER BY ub.awarded_at DESC
		`, userID).Scan(&owned).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}
		return c.JSON(owned)
	})

	securedGroup.Post("/challenges/:id/join", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		challengeID := c.Params("id")

		type Req struct {
			UserName string `json:"user_name"`
		}
		var req Req
		_ = c.BodyParser(&req)

		participant, err := challenges.JoinChallenge(challengeID, userID, req.UserName)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "challenge not found",
				})
			}
			if err == gorm.ErrInvalidData {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "challenge is closed or full",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "join failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(participant)
	})

	securedGroup.Get("/challenges/:id/leaderboard", func(c *fiber.Ctx) error {
		challengeID := c.Params("id")
		board, err := challenges.GetLeaderboard(challengeID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"challenge_id": challengeID,
			"leaderboard":  board,
		})
	})

	securedGroup.Post("/challenges/:id/recalculate", func(c *fiber.Ctx) error {
		challengeID := c.Params("id")
		if err := challenges.RecalculateProgress(challengeID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "recalculation failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "progress recalculated", "challenge_id": challengeID})
	})

	// Admin endpoints
	adminGroup := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/badges", func(c *fiber.Ctx) error {
		name := c.FormValue("name")
		if name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "name is required",
			})
		}

		def := models.BadgeDefinition{
			ID:          uuid.NewString(),
			Code:        slug.Make(name),
			Name:        name,
			Description: c.FormValue("description"),
			Category:    models.BadgeCategory(c.FormValue("category", string(models.CategorySpecial))),
			Rarity:      c.FormValue("rarity", "common"),
		}
		if xp := c.FormValue("xp_reward"); xp != "" {
			parsed, err := strconv.ParseInt(xp, 10, 64)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid xp_reward",
				})
			}
			def.XPReward = parsed
		}

		if icon, err := c.FormFile("icon"); err == nil {
			key := fmt.Sprintf("badges/%s-%s%s", def.Code, uuid.NewString()[:8], utils.FileExtension(icon.Filename))
			iconURL, uploadErr := utils.UploadFileToR2(icon, key)
			if uploadErr != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "icon upload failed",
					"cause": uploadErr.Error(),
				})
			}
			def.IconURL = iconURL
		}

		if err := badges.DB.Create(&def).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create badge definition",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(def)
	})

	adminGroup.Post("/challenges", func(c *fiber.Ctx) error {
		var challenge models.Challenge
		if err := c.BodyParser(&challenge); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if challenge.Name == "" || challenge.Objective == "" || challenge.StartDate.IsZero() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "name, objective and start_date are required",
			})
		}
		challenge.ID = uuid.NewString()
		challenge.Status = models.ChallengeStatusPending
		if challenge.Type == "" {
			challenge.Type = models.ChallengeBoth
		}
		if err := challenges.DB.Create(&challenge).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create challenge",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(challenge)
	})

	adminGroup.Post("/skill/evaluate/:user_id", func(c *fiber.Ctx) error {
		userID := c.Params("user_id")
		evaluation, err := skills.EvaluateUserSkillLevel(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "skill evaluation failed",
				"cause": err.Error(),
			})
		}
		if evaluation == nil {
			return c.JSON(fiber.Map{
				"user_id": userID,
				"message": "not enough activity data to classify",
			})
		}
		return c.JSON(fiber.Map{
			"user_id":    userID,
			"evaluation": evaluation,
		})
	})
}

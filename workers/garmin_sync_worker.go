// workers/garmin_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"swimforge-engine/models"
	"swimforge-engine/services"
	"swimforge-engine/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetActivitiesResponse is the top-level structure of the Garmin service response.
type GetActivitiesResponse struct {
	UserID     string                       `json:"user_id"`
	Activities []services.RawGarminActivity `json:"activities"`
}

type GarminSyncWorker struct {
	db           *gorm.DB
	progression  *services.ProgressionService
	badges       *services.BadgeService
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8100"
	serviceToken string
	httpClient   *http.Client
}

func NewGarminSyncWorker(db *gorm.DB, progression *services.ProgressionService, badges *services.BadgeService, garminServiceURL, serviceToken string) *GarminSyncWorker {
	return &GarminSyncWorker{
		db:           db,
		progression:  progression,
		badges:       badges,
		interval:     15 * time.Minute,
		baseURL:      garminServiceURL,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *GarminSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Garmin Sync Worker (garmin-service → swimming_activities)…")
	go w.run(ctx)
}

func (w *GarminSyncWorker) run(ctx context.Context) {
	if err := w.syncAllUsers(ctx); err != nil {
		log.Printf("⚠️ Initial activity sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncAllUsers(ctx); err != nil {
				log.Printf("❌ Activity sync cycle failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Garmin Sync Worker stopped")
			return
		}
	}
}

// syncAllUsers walks every known profile and pulls its recent activities.
// One user failing does not stop the cycle.
func (w *GarminSyncWorker) syncAllUsers(ctx context.Context) error {
	var profiles []models.SwimmerProfile
	if err := w.db.Select("external_user_id").Find(&profiles).Error; err != nil {
		return err
	}

	var synced, failed int
	for i := range profiles {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.SyncUser(ctx, profiles[i].ExternalUserID); err != nil {
			failed++
			log.Printf("[SYNC] ⚠️ sync for %s failed: %v", profiles[i].ExternalUserID, err)
			continue
		}
		synced++
	}

	if synced+failed > 0 {
		log.Printf("[SYNC] cycle done: %d users synced, %d failed", synced, failed)
	}
	return nil
}

// SyncUser pulls one user's activity feed, inserts the swims we have not seen
// yet, bumps profile totals and re-checks badges when anything new landed.
func (w *GarminSyncWorker) SyncUser(ctx context.Context, externalUserID string) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid garmin service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath("/activities", externalUserID)
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to garmin service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		// User has no Garmin link — nothing to sync.
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("garmin service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetActivitiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode garmin service response: %w", err)
	}

	var inserted int
	for i := range response.Activities {
		raw := &response.Activities[i]
		if !services.IsSwimmingActivity(raw) {
			continue
		}

		activity := services.NormalizeGarminActivity(externalUserID, raw)
		activity.ID = uuid.NewString()

		// The unique garmin_activity_id index absorbs re-synced rows. Rows
		// without a source id (NULL key) can never conflict, so they insert
		// plainly.
		tx := w.db
		if activity.GarminActivityID != nil {
			tx = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "garmin_activity_id"}},
				DoNothing: true,
			})
		}
		res := tx.Create(activity)
		if res.Error != nil {
			log.Printf("[SYNC] ⚠️ insert activity %d for %s failed: %v", raw.ActivityID, externalUserID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue // already ingested
		}
		inserted++

		if err := w.progression.RecordActivityTotals(activity); err != nil {
			log.Printf("[SYNC] ⚠️ totals update for %s failed: %v", externalUserID, err)
		}
	}

	if inserted > 0 {
		log.Printf("[SYNC] 📥 %d new activity(ies) for %s", inserted, externalUserID)
		if awarded, err := w.badges.CheckAndAwardBadges(externalUserID); err != nil {
			log.Printf("[SYNC] ⚠️ badge check for %s failed: %v", externalUserID, err)
		} else if len(awarded) > 0 {
			log.Printf("[SYNC] 🎖️ %s earned: %v", externalUserID, awarded)
		}
	}
	return nil
}

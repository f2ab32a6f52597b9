package jobs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/coordii/coordii-backend/advisory"
	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/selector"
	"github.com/coordii/coordii-backend/store"
)

// Fail reasons are truncated so diagnostic text never grows a job record
// unpredictably.
const failReasonLimit = 200

// ObjectStore is the slice of object storage the worker needs.
type ObjectStore interface {
	Download(ctx context.Context, keyOrURL string) ([]byte, string, error)
	Upload(ctx context.Context, objectKey string, body io.Reader, contentType string) (string, error)
}

// Runner executes dispatched jobs. It runs off the caller's critical path
// and reports outcomes exclusively through the job record: every failure
// mode is captured into a FAILED terminal write, except a failed terminal
// write itself, which leaves the job PROCESSING (accepted limitation).
type Runner struct {
	Profiles    store.Records[*models.Profile]
	Weather     store.Records[*models.WeatherSnapshot]
	Garments    store.Records[*models.Garment]
	Coordinates store.Records[*models.Coordinate]
	TryOns      store.Records[*models.TryOn]

	Advisory advisory.Client
	Storage  ObjectStore
}

// Run executes one dispatched payload to a terminal state.
func (r *Runner) Run(ctx context.Context, p Payload) {
	log.Printf("[Worker] started: kind=%s owner=%s job=%s", p.Kind, p.OwnerID, p.JobKey)

	switch p.Kind {
	case KindOutfit:
		if err := r.runOutfit(ctx, p); err != nil {
			r.failOutfit(ctx, p, err)
		}
	case KindTryOn:
		if err := r.runTryOn(ctx, p); err != nil {
			r.failTryOn(ctx, p, err)
		}
	default:
		log.Printf("[Worker] unknown job kind %q, payload dropped", p.Kind)
	}
}

func (r *Runner) runOutfit(ctx context.Context, p Payload) error {
	snap, err := r.Weather.Latest(ctx, p.OwnerID)
	if err != nil || snap.TargetDate != p.TargetDate {
		return fmt.Errorf("weather data for %s not found", p.TargetDate)
	}

	garments, err := r.Garments.QueryActive(ctx, p.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load garments: %w", err)
	}
	if len(garments) == 0 {
		return fmt.Errorf("no garments registered")
	}

	date, err := time.Parse("2006-01-02", p.TargetDate)
	if err != nil {
		return fmt.Errorf("invalid target date %q: %w", p.TargetDate, err)
	}
	season := selector.SeasonOf(date)
	weekday := date.Weekday().String()[:3] // Mon, Tue, ...

	theme, attrs := "", ""
	if profile, perr := r.Profiles.Latest(ctx, p.OwnerID); perr == nil {
		theme = profile.WeeklySchedule[weekday]
		attrs = fmt.Sprintf("gender: %s, height: %.0f cm", profile.Gender, profile.Height)
	}

	candidates := selector.Select(garments, season, snap.MaxTemp, snap.MinTemp, p.AnchorItemID)

	req := advisory.OutfitRequest{
		TargetDate:         p.TargetDate,
		Weekday:            weekday,
		Season:             season,
		WeatherDescription: snap.Description,
		MaxTemp:            snap.MaxTemp,
		MinTemp:            snap.MinTemp,
		Humidity:           snap.Humidity,
		Pop:                snap.Pop,
		WindSpeed:          snap.WindSpeed,
		WindDirection:      snap.WindDirection,
		Theme:              theme,
		UserAttributes:     attrs,
		AnchorID:           p.AnchorItemID,
	}
	for _, g := range candidates {
		req.Candidates = append(req.Candidates, advisory.GarmentSummary{
			ID:          g.ItemID(),
			Category:    g.Category,
			Color:       g.Color,
			Style:       g.Style,
			Description: g.Description,
		})
	}

	result, err := r.Advisory.ComposeOutfit(ctx, req)
	if err != nil {
		return fmt.Errorf("outfit composition failed: %w", err)
	}

	return r.completeOutfit(ctx, p, result)
}

// completeOutfit performs the single terminal write for a successful run.
func (r *Runner) completeOutfit(ctx context.Context, p Payload, result *advisory.OutfitResult) error {
	job, err := r.Coordinates.GetExact(ctx, p.OwnerID, p.JobKey)
	if err != nil {
		return fmt.Errorf("job record vanished: %w", err)
	}
	if job.Terminal() {
		log.Printf("[Worker] BUG: outfit job %s/%s is already %s, refusing to overwrite",
			p.OwnerID, p.JobKey, job.CurrentStatus())
		return nil
	}

	job.Status = models.StatusCompleted
	job.OuterID = result.OuterID
	job.TopIDs = result.TopIDs
	job.BottomsID = result.BottomsID
	job.ShoesID = result.ShoesID
	job.Reason = result.Reason

	if err := r.Coordinates.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to persist outfit result: %w", err)
	}
	log.Printf("[Worker] outfit job %s/%s completed", p.OwnerID, p.JobKey)
	return nil
}

func (r *Runner) failOutfit(ctx context.Context, p Payload, cause error) {
	log.Printf("[Worker] outfit job %s/%s failed: %v", p.OwnerID, p.JobKey, cause)

	job, err := r.Coordinates.GetExact(ctx, p.OwnerID, p.JobKey)
	if err != nil {
		log.Printf("[Worker] CRITICAL: cannot load outfit job %s/%s to record failure: %v", p.OwnerID, p.JobKey, err)
		return
	}
	if job.Terminal() {
		log.Printf("[Worker] BUG: outfit job %s/%s is already %s, refusing to overwrite",
			p.OwnerID, p.JobKey, job.CurrentStatus())
		return
	}

	job.Status = models.StatusFailed
	job.FailReason = truncateReason(cause.Error())
	if err := r.Coordinates.Update(ctx, job); err != nil {
		// The one accepted path to a permanently stuck job.
		log.Printf("[Worker] CRITICAL: failed to record failure for %s/%s, job stuck PROCESSING: %v",
			p.OwnerID, p.JobKey, err)
	}
}

func (r *Runner) runTryOn(ctx context.Context, p Payload) error {
	job, err := r.TryOns.GetExact(ctx, p.OwnerID, p.JobKey)
	if err != nil {
		return fmt.Errorf("try-on job record not found: %w", err)
	}

	coord, err := r.Coordinates.GetExact(ctx, p.OwnerID, job.CoordinateKey)
	if err != nil {
		return fmt.Errorf("coordinate %s not found", job.CoordinateKey)
	}
	if coord.CurrentStatus() != models.StatusCompleted {
		return fmt.Errorf("coordinate %s is not completed", job.CoordinateKey)
	}

	profile, err := r.Profiles.Latest(ctx, p.OwnerID)
	if err != nil || profile.PhotoKey == "" {
		return fmt.Errorf("profile photo required for try-on")
	}

	personData, personMime, err := r.Storage.Download(ctx, profile.PhotoKey)
	if err != nil {
		return fmt.Errorf("failed to fetch profile photo: %w", err)
	}

	req := advisory.RenderRequest{
		PersonImage: advisory.ImagePart{MIMEType: personMime, Data: personData},
	}
	for _, id := range coord.ItemIDs() {
		g, gerr := r.Garments.GetExact(ctx, p.OwnerID, id)
		if gerr != nil || g.ImageKey == "" {
			continue
		}
		data, mime, derr := r.Storage.Download(ctx, g.ImageKey)
		if derr != nil {
			continue
		}
		req.GarmentImages = append(req.GarmentImages, advisory.ImagePart{MIMEType: mime, Data: data})
		req.GarmentDetails = append(req.GarmentDetails, strings.TrimSpace(g.Color+" "+g.Category))
	}
	if len(req.GarmentImages) == 0 {
		return fmt.Errorf("at least one garment image is required")
	}

	image, err := r.Advisory.RenderTryOn(ctx, req)
	if err != nil {
		return fmt.Errorf("try-on render failed: %w", err)
	}

	objectKey := fmt.Sprintf("generated_images/tryon_%s.png", p.JobKey)
	if _, err := r.Storage.Upload(ctx, objectKey, bytes.NewReader(image), "image/png"); err != nil {
		return fmt.Errorf("failed to store generated image: %w", err)
	}

	return r.completeTryOn(ctx, p, objectKey)
}

func (r *Runner) completeTryOn(ctx context.Context, p Payload, objectKey string) error {
	job, err := r.TryOns.GetExact(ctx, p.OwnerID, p.JobKey)
	if err != nil {
		return fmt.Errorf("job record vanished: %w", err)
	}
	if job.Terminal() {
		log.Printf("[Worker] BUG: try-on job %s/%s is already %s, refusing to overwrite",
			p.OwnerID, p.JobKey, job.CurrentStatus())
		return nil
	}

	job.Status = models.StatusCompleted
	job.ImageKey = objectKey
	if err := r.TryOns.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to persist try-on result: %w", err)
	}
	log.Printf("[Worker] try-on job %s/%s completed", p.OwnerID, p.JobKey)
	return nil
}

func (r *Runner) failTryOn(ctx context.Context, p Payload, cause error) {
	log.Printf("[Worker] try-on job %s/%s failed: %v", p.OwnerID, p.JobKey, cause)

	job, err := r.TryOns.GetExact(ctx, p.OwnerID, p.JobKey)
	if err != nil {
		log.Printf("[Worker] CRITICAL: cannot load try-on job %s/%s to record failure: %v", p.OwnerID, p.JobKey, err)
		return
	}
	if job.Terminal() {
		log.Printf("[Worker] BUG: try-on job %s/%s is already %s, refusing to overwrite",
			p.OwnerID, p.JobKey, job.CurrentStatus())
		return
	}

	job.Status = models.StatusFailed
	job.FailReason = truncateReason(cause.Error())
	if err := r.TryOns.Update(ctx, job); err != nil {
		log.Printf("[Worker] CRITICAL: failed to record failure for %s/%s, job stuck PROCESSING: %v",
			p.OwnerID, p.JobKey, err)
	}
}

func truncateReason(reason string) string {
	if len(reason) > failReasonLimit {
		return reason[:failReasonLimit]
	}
	return reason
}

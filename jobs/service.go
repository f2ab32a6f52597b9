package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/store"
)

// ErrNotReady is returned when a try-on is submitted for a coordinate whose
// outfit has not completed yet.
var ErrNotReady = errors.New("coordinate is not completed")

// After this hour (in Service.Location) a submission without an explicit
// target date plans for tomorrow instead of today.
const tomorrowCutoverHour = 19

// Service is the job orchestrator: it persists job records, hands payloads
// to the dispatcher, and serves polls. It never waits for workers.
type Service struct {
	Coordinates store.Records[*models.Coordinate]
	TryOns      store.Records[*models.TryOn]
	Dispatcher  Dispatcher
	Location    *time.Location
	Now         func() time.Time // defaults to time.Now
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// DefaultTargetDate picks the day an undated submission plans for: past the
// evening cutover the next outfit is for tomorrow.
func (s *Service) DefaultTargetDate() string {
	now := s.now().In(s.Location)
	if now.Hour() >= tomorrowCutoverHour {
		now = now.AddDate(0, 0, 1)
	}
	return now.Format("2006-01-02")
}

// SubmitOutfit persists a PROCESSING job record, dispatches the worker and
// returns immediately. The record is durably visible to polls before the
// dispatch happens, so a poll right after submit never sees "absent".
func (s *Service) SubmitOutfit(ctx context.Context, ownerID, targetDate, anchorItemID string) (*models.Coordinate, error) {
	if targetDate == "" {
		targetDate = s.DefaultTargetDate()
	} else if _, err := time.Parse("2006-01-02", targetDate); err != nil {
		return nil, fmt.Errorf("invalid target date %q: %w", targetDate, err)
	}

	job := &models.Coordinate{
		Meta:         store.NewMeta(ownerID, store.NewVersionKey()),
		JobState:     models.JobState{Status: models.StatusProcessing},
		TargetDate:   targetDate,
		AnchorItemID: anchorItemID,
	}
	if err := s.Coordinates.Put(ctx, job); err != nil {
		return nil, err
	}

	s.Dispatcher.Dispatch(Payload{
		Kind:         KindOutfit,
		OwnerID:      ownerID,
		JobKey:       job.RecordKey(),
		TargetDate:   targetDate,
		AnchorItemID: anchorItemID,
	})
	return job, nil
}

// SubmitTryOn persists a PROCESSING render job for a completed coordinate
// and dispatches the worker. Each submission is an independent job record;
// submitting twice renders twice.
func (s *Service) SubmitTryOn(ctx context.Context, ownerID, coordinateKey string) (*models.TryOn, error) {
	coord, err := s.Coordinates.GetExact(ctx, ownerID, coordinateKey)
	if err != nil {
		return nil, err
	}
	if coord.CurrentStatus() != models.StatusCompleted {
		return nil, ErrNotReady
	}

	job := &models.TryOn{
		Meta:          store.NewMeta(ownerID, store.NewVersionKey()),
		JobState:      models.JobState{Status: models.StatusProcessing},
		CoordinateKey: coordinateKey,
	}
	if err := s.TryOns.Put(ctx, job); err != nil {
		return nil, err
	}

	s.Dispatcher.Dispatch(Payload{
		Kind:    KindTryOn,
		OwnerID: ownerID,
		JobKey:  job.RecordKey(),
	})
	return job, nil
}

// OutfitStatus is the poll response for an outfit job.
type OutfitStatus struct {
	Status     string             `json:"status"`
	Result     *models.Coordinate `json:"result,omitempty"`
	FailReason string             `json:"failReason,omitempty"`
}

// PollOutfit is a pure read: no side effects, callable any number of times.
// Unknown handles surface store.ErrNotFound.
func (s *Service) PollOutfit(ctx context.Context, ownerID, jobKey string) (*OutfitStatus, error) {
	job, err := s.Coordinates.GetExact(ctx, ownerID, jobKey)
	if err != nil {
		return nil, err
	}

	out := &OutfitStatus{Status: job.CurrentStatus()}
	switch out.Status {
	case models.StatusCompleted:
		out.Result = job
	case models.StatusFailed:
		out.FailReason = job.FailReason
	}
	return out, nil
}

// TryOnStatus is the poll response for a render job.
type TryOnStatus struct {
	Status     string         `json:"status"`
	Result     *models.TryOn  `json:"result,omitempty"`
	FailReason string         `json:"failReason,omitempty"`
}

// PollTryOn mirrors PollOutfit for render jobs.
func (s *Service) PollTryOn(ctx context.Context, ownerID, jobKey string) (*TryOnStatus, error) {
	job, err := s.TryOns.GetExact(ctx, ownerID, jobKey)
	if err != nil {
		return nil, err
	}

	out := &TryOnStatus{Status: job.CurrentStatus()}
	switch out.Status {
	case models.StatusCompleted:
		out.Result = job
	case models.StatusFailed:
		out.FailReason = job.FailReason
	}
	return out, nil
}

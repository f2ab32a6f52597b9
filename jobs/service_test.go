package jobs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordii/coordii-backend/advisory"
	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/store"
)

// capturingDispatcher records payloads without running anything, so tests
// can observe the PROCESSING window between submit and worker completion.
type capturingDispatcher struct {
	payloads []Payload
}

func (d *capturingDispatcher) Dispatch(p Payload) {
	d.payloads = append(d.payloads, p)
}

// fakeAdvisory returns canned results or errors.
type fakeAdvisory struct {
	outfit    *advisory.OutfitResult
	outfitErr error
	image     []byte
	renderErr error
}

func (f *fakeAdvisory) ComposeOutfit(_ context.Context, _ advisory.OutfitRequest) (*advisory.OutfitResult, error) {
	return f.outfit, f.outfitErr
}

func (f *fakeAdvisory) RenderTryOn(_ context.Context, _ advisory.RenderRequest) ([]byte, error) {
	return f.image, f.renderErr
}

func (f *fakeAdvisory) AnalyzeGarment(_ context.Context, _ advisory.ImagePart, _ string) (*advisory.GarmentAttributes, error) {
	return nil, errors.New("not implemented")
}

// fakeObjectStore serves downloads from a map and records uploads.
type fakeObjectStore struct {
	objects  map[string][]byte
	uploaded map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects:  make(map[string][]byte),
		uploaded: make(map[string][]byte),
	}
}

func (f *fakeObjectStore) Download(_ context.Context, key string) ([]byte, string, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, "", errors.New("object not found: " + key)
	}
	return data, "image/jpeg", nil
}

func (f *fakeObjectStore) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.uploaded[key] = data
	return key, nil
}

type fixture struct {
	profiles    *store.Memory[models.Profile, *models.Profile]
	weather     *store.Memory[models.WeatherSnapshot, *models.WeatherSnapshot]
	garments    *store.Memory[models.Garment, *models.Garment]
	coordinates *store.Memory[models.Coordinate, *models.Coordinate]
	tryOns      *store.Memory[models.TryOn, *models.TryOn]

	advisory *fakeAdvisory
	storage  *fakeObjectStore

	runner     *Runner
	dispatcher *capturingDispatcher
	service    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		profiles:    store.NewMemory[models.Profile](),
		weather:     store.NewMemory[models.WeatherSnapshot](),
		garments:    store.NewMemory[models.Garment](),
		coordinates: store.NewMemory[models.Coordinate](),
		tryOns:      store.NewMemory[models.TryOn](),
		advisory:    &fakeAdvisory{},
		storage:     newFakeObjectStore(),
		dispatcher:  &capturingDispatcher{},
	}
	f.runner = &Runner{
		Profiles:    f.profiles,
		Weather:     f.weather,
		Garments:    f.garments,
		Coordinates: f.coordinates,
		TryOns:      f.tryOns,
		Advisory:    f.advisory,
		Storage:     f.storage,
	}
	f.service = &Service{
		Coordinates: f.coordinates,
		TryOns:      f.tryOns,
		Dispatcher:  f.dispatcher,
		Location:    time.UTC,
	}
	return f
}

const owner = "owner-1"

func (f *fixture) seedWeather(t *testing.T, targetDate string) {
	t.Helper()
	require.NoError(t, f.weather.Put(context.Background(), &models.WeatherSnapshot{
		Meta:       store.NewMeta(owner, store.NewVersionKey()),
		TargetDate: targetDate,
		MaxTemp:    24,
		MinTemp:    17,
	}))
}

func (f *fixture) seedGarment(t *testing.T, category, imageKey string) *models.Garment {
	t.Helper()
	g := &models.Garment{
		Meta:     store.NewMeta(owner, store.NewVersionKey()),
		Category: category,
		ImageKey: imageKey,
	}
	require.NoError(t, f.garments.Put(context.Background(), g))
	return g
}

func TestSubmitOutfitCreatesProcessingRecordBeforeDispatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.service.SubmitOutfit(ctx, owner, "2026-09-01", "")
	require.NoError(t, err)

	// Record is persisted and pollable before any worker runs.
	status, err := f.service.PollOutfit(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, status.Status)
	assert.Nil(t, status.Result)
	assert.Empty(t, status.FailReason)

	require.Len(t, f.dispatcher.payloads, 1)
	p := f.dispatcher.payloads[0]
	assert.Equal(t, KindOutfit, p.Kind)
	assert.Equal(t, owner, p.OwnerID)
	assert.Equal(t, job.RecordKey(), p.JobKey)
	assert.Equal(t, "2026-09-01", p.TargetDate)
}

func TestSubmitOutfitRejectsMalformedDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.SubmitOutfit(context.Background(), owner, "01-09-2026", "")
	assert.Error(t, err)
	assert.Empty(t, f.dispatcher.payloads)
}

func TestDefaultTargetDateCutover(t *testing.T) {
	f := newFixture(t)

	f.service.Now = func() time.Time {
		return time.Date(2026, 9, 1, 18, 59, 0, 0, time.UTC)
	}
	assert.Equal(t, "2026-09-01", f.service.DefaultTargetDate())

	f.service.Now = func() time.Time {
		return time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)
	}
	assert.Equal(t, "2026-09-02", f.service.DefaultTargetDate())
}

func TestOutfitJobCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedWeather(t, "2026-09-01")
	top := f.seedGarment(t, "tops", "")
	bottoms := f.seedGarment(t, "bottoms", "")
	shoes := f.seedGarment(t, "shoes", "")

	f.advisory.outfit = &advisory.OutfitResult{
		TopIDs:    []string{top.ItemID()},
		BottomsID: bottoms.ItemID(),
		ShoesID:   shoes.ItemID(),
		Reason:    "light layers for a mild day",
	}

	job, err := f.service.SubmitOutfit(ctx, owner, "2026-09-01", "")
	require.NoError(t, err)

	f.runner.Run(ctx, f.dispatcher.payloads[0])

	status, err := f.service.PollOutfit(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status)
	require.NotNil(t, status.Result)
	assert.Equal(t, []string{top.ItemID()}, status.Result.TopIDs)
	assert.Equal(t, bottoms.ItemID(), status.Result.BottomsID)
	assert.Equal(t, shoes.ItemID(), status.Result.ShoesID)
	assert.Equal(t, "light layers for a mild day", status.Result.Reason)

	// Polling is idempotent: a second poll returns the same answer.
	again, err := f.service.PollOutfit(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, status, again)
}

func TestOutfitJobFailsWhenAdvisoryErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedWeather(t, "2026-09-01")
	f.seedGarment(t, "tops", "")
	f.advisory.outfitErr = errors.New("model unavailable")

	job, err := f.service.SubmitOutfit(ctx, owner, "2026-09-01", "")
	require.NoError(t, err)

	f.runner.Run(ctx, f.dispatcher.payloads[0])

	status, err := f.service.PollOutfit(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, status.Status)
	assert.Nil(t, status.Result)
	assert.NotEmpty(t, status.FailReason)
	assert.LessOrEqual(t, len(status.FailReason), 200)
}

func TestOutfitJobFailsWithoutWeather(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedGarment(t, "tops", "")

	job, err := f.service.SubmitOutfit(ctx, owner, "2026-09-01", "")
	require.NoError(t, err)

	f.runner.Run(ctx, f.dispatcher.payloads[0])

	status, err := f.service.PollOutfit(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, status.Status)
	assert.Contains(t, status.FailReason, "weather data for 2026-09-01 not found")
}

func TestOutfitJobFailsWithEmptyWardrobe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedWeather(t, "2026-09-01")

	job, err := f.service.SubmitOutfit(ctx, owner, "2026-09-01", "")
	require.NoError(t, err)

	f.runner.Run(ctx, f.dispatcher.payloads[0])

	status, err := f.service.PollOutfit(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, status.Status)
	assert.Contains(t, status.FailReason, "no garments registered")
}

func TestFailReasonIsTruncated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedWeather(t, "2026-09-01")
	f.seedGarment(t, "tops", "")
	f.advisory.outfitErr = errors.New(strings.Repeat("x", 1000))

	job, err := f.service.SubmitOutfit(ctx, owner, "2026-09-01", "")
	require.NoError(t, err)

	f.runner.Run(ctx, f.dispatcher.payloads[0])

	status, err := f.service.PollOutfit(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, status.Status)
	assert.Len(t, status.FailReason, 200)
}

func TestWorkerRefusesToOverwriteTerminalJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedWeather(t, "2026-09-01")
	top := f.seedGarment(t, "tops", "")
	f.advisory.outfit = &advisory.OutfitResult{
		TopIDs: []string{top.ItemID()},
		Reason: "first run",
	}

	job, err := f.service.SubmitOutfit(ctx, owner, "2026-09-01", "")
	require.NoError(t, err)
	f.runner.Run(ctx, f.dispatcher.payloads[0])

	// A duplicate delivery of the same payload must not change the record.
	f.advisory.outfit = &advisory.OutfitResult{
		TopIDs: []string{top.ItemID()},
		Reason: "second run",
	}
	f.runner.Run(ctx, f.dispatcher.payloads[0])

	status, err := f.service.PollOutfit(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, "first run", status.Result.Reason)
}

func TestPollUnknownJob(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.PollOutfit(context.Background(), owner, "does-not-exist")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLegacyRecordWithoutStatusPollsAsCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	legacy := &models.Coordinate{
		Meta:       store.NewMeta(owner, store.NewVersionKey()),
		TargetDate: "2024-04-01",
		Reason:     "written before the async pipeline",
	}
	require.NoError(t, f.coordinates.Put(ctx, legacy))

	status, err := f.service.PollOutfit(ctx, owner, legacy.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status)
	require.NotNil(t, status.Result)
	assert.Equal(t, "written before the async pipeline", status.Result.Reason)
}

func completedCoordinate(t *testing.T, f *fixture, itemIDs ...string) *models.Coordinate {
	t.Helper()
	coord := &models.Coordinate{
		Meta:       store.NewMeta(owner, store.NewVersionKey()),
		JobState:   models.JobState{Status: models.StatusCompleted},
		TargetDate: "2026-09-01",
	}
	if len(itemIDs) > 0 {
		coord.TopIDs = itemIDs
	}
	require.NoError(t, f.coordinates.Put(context.Background(), coord))
	return coord
}

func TestSubmitTryOnRequiresCompletedCoordinate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	processing := &models.Coordinate{
		Meta:     store.NewMeta(owner, store.NewVersionKey()),
		JobState: models.JobState{Status: models.StatusProcessing},
	}
	require.NoError(t, f.coordinates.Put(ctx, processing))

	_, err := f.service.SubmitTryOn(ctx, owner, processing.RecordKey())
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = f.service.SubmitTryOn(ctx, owner, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTryOnJobCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.profiles.Put(ctx, &models.Profile{
		Meta:     store.NewMeta(owner, store.NewVersionKey()),
		PhotoKey: "uploads/person.jpg",
	}))
	f.storage.objects["uploads/person.jpg"] = []byte("person-bytes")

	top := f.seedGarment(t, "tops", "clothes/top.jpg")
	f.storage.objects["clothes/top.jpg"] = []byte("top-bytes")

	coord := completedCoordinate(t, f, top.ItemID())
	f.advisory.image = []byte("rendered-png")

	job, err := f.service.SubmitTryOn(ctx, owner, coord.RecordKey())
	require.NoError(t, err)

	require.Len(t, f.dispatcher.payloads, 1)
	f.runner.Run(ctx, f.dispatcher.payloads[0])

	status, err := f.service.PollTryOn(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status)
	require.NotNil(t, status.Result)
	require.NotEmpty(t, status.Result.ImageKey)
	assert.Equal(t, []byte("rendered-png"), f.storage.uploaded[status.Result.ImageKey])
}

func TestTryOnJobFailsWithoutProfilePhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	top := f.seedGarment(t, "tops", "clothes/top.jpg")
	coord := completedCoordinate(t, f, top.ItemID())

	job, err := f.service.SubmitTryOn(ctx, owner, coord.RecordKey())
	require.NoError(t, err)

	f.runner.Run(ctx, f.dispatcher.payloads[0])

	status, err := f.service.PollTryOn(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, status.Status)
	assert.Contains(t, status.FailReason, "profile photo required")
}

func TestTryOnJobFailsWithoutGarmentImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.profiles.Put(ctx, &models.Profile{
		Meta:     store.NewMeta(owner, store.NewVersionKey()),
		PhotoKey: "uploads/person.jpg",
	}))
	f.storage.objects["uploads/person.jpg"] = []byte("person-bytes")

	// The chosen garment has no image key.
	top := f.seedGarment(t, "tops", "")
	coord := completedCoordinate(t, f, top.ItemID())

	job, err := f.service.SubmitTryOn(ctx, owner, coord.RecordKey())
	require.NoError(t, err)

	f.runner.Run(ctx, f.dispatcher.payloads[0])

	status, err := f.service.PollTryOn(ctx, owner, job.RecordKey())
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, status.Status)
	assert.Contains(t, status.FailReason, "at least one garment image is required")
}

func TestGoDispatcherRunsInBackground(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedWeather(t, "2026-09-01")
	top := f.seedGarment(t, "tops", "")
	f.advisory.outfit = &advisory.OutfitResult{
		TopIDs: []string{top.ItemID()},
		Reason: "fine",
	}
	f.service.Dispatcher = &GoDispatcher{Runner: f.runner}

	job, err := f.service.SubmitOutfit(ctx, owner, "2026-09-01", "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, perr := f.service.PollOutfit(ctx, owner, job.RecordKey())
		return perr == nil && status.Status == models.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

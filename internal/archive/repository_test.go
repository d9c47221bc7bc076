package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/firecad/internal/firesafety"
	"github.com/nerrad567/firecad/internal/infrastructure/database"
	"github.com/nerrad567/firecad/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: database.MemoryPath, Migrations: migrations.FS})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	require.NoError(t, db.Migrate(ctx))

	return NewSQLiteRepository(db.DB)
}

func sampleResult() *firesafety.AnalysisResult {
	devices := map[string][]firesafety.Device{
		"E-FIRE": {
			{Type: firesafety.DeviceSmokeDetector, BlockName: "SD-TYPE-A", LayerName: "E-FIRE",
				Coordinates: firesafety.Point{X: 10, Y: 20}, Scale: firesafety.Scale{X: 1, Y: 1},
				Attributes: firesafety.Attributes{{Tag: "ZONE", Text: "1"}}},
			{Type: firesafety.DeviceManualPullStation, BlockName: "PULL-STATION", LayerName: "E-FIRE",
				Coordinates: firesafety.Point{X: 5, Y: 5}, Scale: firesafety.Scale{X: 1, Y: 1},
				Attributes: firesafety.Attributes{}},
		},
		"E-SPKR": {
			{Type: firesafety.DeviceSprinklerHead, BlockName: "SPRINKLER-PENDENT", LayerName: "E-SPKR",
				Coordinates: firesafety.Point{X: 1, Y: 2}, Scale: firesafety.Scale{X: 1, Y: 1},
				Attributes: firesafety.Attributes{}},
		},
	}
	names := []string{"E-FIRE", "E-SPKR", "A-WALL", "TEXT"}
	return &firesafety.AnalysisResult{
		LayerAnalysis:        map[string]firesafety.LayerInfo{},
		FireSafetyDevices:    devices,
		ScannedLayers:        []string{"E-FIRE", "E-SPKR"},
		DeviceSummary:        firesafety.Summarize(devices),
		Validation:           firesafety.ValidateStandards(names),
		TotalLayers:          len(names),
		FireSafetyLayerCount: 2,
	}
}

func okOutcome() firesafety.Outcome {
	return firesafety.Outcome{
		Status: firesafety.StatusOK,
		Source: "plan.dxf",
		Format: "dxf",
		Result: sampleResult(),
		Warnings: []firesafety.Warning{
			{Code: firesafety.WarnEmptyFireLayer, Layer: "E-LITE", Message: "no devices"},
		},
	}
}

func TestFromOutcome(t *testing.T) {
	rec := FromOutcome(okOutcome())

	assert.Equal(t, "plan.dxf", rec.Source)
	assert.Equal(t, firesafety.StatusOK, rec.Status)
	assert.Equal(t, 4, rec.TotalLayers)
	assert.Equal(t, 2, rec.FireSafetyLayerCount)
	assert.Equal(t, 3, rec.TotalDevices)
	assert.Equal(t, 3, rec.AIACompliantLayers, "E-FIRE, E-SPKR and A-WALL are AIA layers")
	assert.Empty(t, rec.ID)

	failed := FromOutcome(firesafety.Outcome{Status: firesafety.StatusUnavailable, Source: "plan.dwg", Error: "no decoder"})
	assert.Nil(t, failed.Result)
	assert.NotNil(t, failed.Warnings)
	assert.Zero(t, failed.TotalDevices)
}

func TestCreateAndGetByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := FromOutcome(okOutcome())
	require.NoError(t, repo.Create(ctx, rec))
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Source, got.Source)
	assert.Equal(t, rec.Warnings, got.Warnings)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", rec.CreatedAt, got.CreatedAt)
	require.NotNil(t, got.Result)
	assert.Equal(t, rec.Result.Devices(), got.Result.Devices())
	assert.Equal(t, rec.Result.DeviceSummary, got.Result.DeviceSummary)
	assert.Equal(t, okOutcome().Status, got.Outcome().Status)
}

func TestCreate_Invalid(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Create(context.Background(), &Record{Source: "x.dxf"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	err = repo.Create(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestCreate_DuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := FromOutcome(okOutcome())
	require.NoError(t, repo.Create(ctx, rec))

	dup := FromOutcome(okOutcome())
	dup.ID = rec.ID
	assert.Error(t, repo.Create(ctx, dup))

	totals, err := repo.DeviceTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, totals[firesafety.DeviceSmokeDetector]+totals[firesafety.DeviceManualPullStation]+totals[firesafety.DeviceSprinklerHead],
		"failed insert must not leave device rows behind")
}

func TestGetByID_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := FromOutcome(okOutcome())
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		rec.Source = []string{"a.dxf", "b.dxf", "c.dxf"}[i]
		require.NoError(t, repo.Create(ctx, rec))
	}
	unavailable := FromOutcome(firesafety.Outcome{Status: firesafety.StatusUnavailable, Source: "d.dwg", Error: "no decoder"})
	unavailable.CreatedAt = base.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, unavailable))

	all, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)
	assert.Equal(t, defaultLimit, all.Limit)
	require.Len(t, all.Records, 4)
	assert.Equal(t, "d.dwg", all.Records[0].Source, "newest first")
	for _, rec := range all.Records {
		assert.Nil(t, rec.Result, "list entries omit the result body")
	}

	page, err := repo.List(ctx, Filter{Status: firesafety.StatusOK, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "b.dxf", page.Records[0].Source)
	assert.Equal(t, "a.dxf", page.Records[1].Source)

	clamped, err := repo.List(ctx, Filter{Limit: 10000, Offset: -4})
	require.NoError(t, err)
	assert.Equal(t, maxLimit, clamped.Limit)
	assert.Equal(t, 0, clamped.Offset)
}

func TestDeleteCascadesDevices(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := FromOutcome(okOutcome())
	require.NoError(t, repo.Create(ctx, rec))

	totals, err := repo.DeviceTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[firesafety.DeviceType]int{
		firesafety.DeviceSmokeDetector:     1,
		firesafety.DeviceManualPullStation: 1,
		firesafety.DeviceSprinklerHead:     1,
	}, totals)

	require.NoError(t, repo.Delete(ctx, rec.ID))
	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), ErrNotFound)

	_, err = repo.GetByID(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	totals, err = repo.DeviceTotals(ctx)
	require.NoError(t, err)
	assert.Empty(t, totals)
}

package publish

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/firecad/internal/archive"
	"github.com/nerrad567/firecad/internal/firesafety"
	"github.com/nerrad567/firecad/internal/infrastructure/influxdb"
	"github.com/nerrad567/firecad/internal/infrastructure/mqtt"
)

type sentMessage struct {
	topic    string
	payload  []byte
	retained bool
}

type fakeMQTT struct {
	mu   sync.Mutex
	sent []sentMessage
	fail error
}

func (f *fakeMQTT) PublishJSON(_ context.Context, topic string, v any, retained bool) error {
	if f.fail != nil {
		return f.fail
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{topic: topic, payload: b, retained: retained})
	return nil
}

func (f *fakeMQTT) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.topic)
	}
	return out
}

type fakeInflux struct {
	counts     []influxdb.DeviceCount
	validation *influxdb.Validation
	at         time.Time
}

func (f *fakeInflux) WriteInventory(_, _ string, counts []influxdb.DeviceCount, at time.Time) {
	f.counts = counts
	f.at = at
}

func (f *fakeInflux) WriteValidation(_, _ string, v influxdb.Validation, _ time.Time) {
	f.validation = &v
}

type countingFailures struct{ bySink map[string]int }

func (c *countingFailures) RecordPublishFailure(sink string) {
	if c.bySink == nil {
		c.bySink = map[string]int{}
	}
	c.bySink[sink]++
}

type recordingLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (l *recordingLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func archivedRecord() *archive.Record {
	devices := map[string][]firesafety.Device{
		"E-FIRE": {
			{Type: firesafety.DeviceSmokeDetector, LayerName: "E-FIRE"},
			{Type: firesafety.DeviceSmokeDetector, LayerName: "E-FIRE"},
			{Type: firesafety.DeviceHornStrobe, LayerName: "E-FIRE"},
		},
		"E-LITE": {},
	}
	names := []string{"E-FIRE", "E-LITE"}
	rec := archive.FromOutcome(firesafety.Outcome{
		Status: firesafety.StatusOK,
		Source: "plan.dxf",
		Result: &firesafety.AnalysisResult{
			FireSafetyDevices:    devices,
			ScannedLayers:        names,
			DeviceSummary:        firesafety.Summarize(devices),
			Validation:           firesafety.ValidateStandards(names),
			TotalLayers:          2,
			FireSafetyLayerCount: 2,
		},
		Warnings: []firesafety.Warning{{Code: firesafety.WarnEmptyFireLayer, Layer: "E-LITE", Message: "empty"}},
	})
	rec.ID = "a1"
	rec.CreatedAt = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	return rec
}

func TestPublish_AllSinks(t *testing.T) {
	broker := &fakeMQTT{}
	influx := &fakeInflux{}
	p := New(Deps{SiteID: "site-001", MQTT: broker, InfluxDB: influx})
	require.True(t, p.Enabled())

	rec := archivedRecord()
	p.Publish(context.Background(), rec)

	topics := mqtt.Topics{}
	assert.Equal(t, []string{
		topics.AnalysisSummary("a1"),
		topics.AnalysisValidation("a1"),
		topics.AnalysisWarnings("a1"),
		topics.SiteInventory("site-001"),
	}, broker.topics())

	var summary SummaryMessage
	require.NoError(t, json.Unmarshal(broker.sent[0].payload, &summary))
	assert.True(t, broker.sent[0].retained)
	assert.Equal(t, "a1", summary.AnalysisID)
	assert.Equal(t, "site-001", summary.SiteID)
	require.NotNil(t, summary.DeviceSummary)
	assert.Equal(t, 3, summary.DeviceSummary.TotalDevices)
	assert.False(t, broker.sent[2].retained, "warnings are events, not state")

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(broker.sent[3].payload, &fields))
	assert.ElementsMatch(t, []string{"site_id", "analysis_id", "by_type", "total_devices"}, mapKeys(fields))
	var inventory InventoryMessage
	require.NoError(t, json.Unmarshal(broker.sent[3].payload, &inventory))
	assert.True(t, broker.sent[3].retained)
	assert.Equal(t, InventoryMessage{
		SiteID:     "site-001",
		AnalysisID: "a1",
		ByType: map[firesafety.DeviceType]int{
			firesafety.DeviceSmokeDetector: 2,
			firesafety.DeviceHornStrobe:    1,
		},
		TotalDevices: 3,
	}, inventory)

	assert.Equal(t, []influxdb.DeviceCount{
		{Layer: "E-FIRE", DeviceType: "horn_strobe", Count: 1},
		{Layer: "E-FIRE", DeviceType: "smoke_detector", Count: 2},
	}, influx.counts)
	assert.Equal(t, rec.CreatedAt, influx.at)
	require.NotNil(t, influx.validation)
	assert.True(t, influx.validation.AIACompliance, "E-FIRE and E-LITE are both AIA layers")
	assert.True(t, influx.validation.Organized)
	assert.Equal(t, 3, influx.validation.TotalDevices)
}

func TestPublish_FailedAnalysisSendsSummaryOnly(t *testing.T) {
	broker := &fakeMQTT{}
	influx := &fakeInflux{}
	p := New(Deps{SiteID: "site-001", MQTT: broker, InfluxDB: influx})

	rec := archive.FromOutcome(firesafety.Outcome{Status: firesafety.StatusUnavailable, Source: "plan.dwg", Error: "no decoder"})
	rec.ID = "a2"
	p.Publish(context.Background(), rec)

	assert.Equal(t, []string{mqtt.Topics{}.AnalysisSummary("a2")}, broker.topics())
	assert.Nil(t, influx.validation)
	assert.Nil(t, influx.counts)
}

func TestPublish_FailuresAreLoggedNotReturned(t *testing.T) {
	failures := &countingFailures{}
	logger := &recordingLogger{}
	p := New(Deps{
		SiteID:   "site-001",
		MQTT:     &fakeMQTT{fail: mqtt.ErrNotConnected},
		Failures: failures,
		Logger:   logger,
	})

	p.Publish(context.Background(), archivedRecord())
	p.InfluxWriteFailed(errors.New("bucket not found"))

	assert.Equal(t, 4, failures.bySink[SinkMQTT])
	assert.Equal(t, 1, failures.bySink[SinkInfluxDB])
	assert.Len(t, logger.warns, 5)
}

func TestPublish_NoSinks(t *testing.T) {
	p := New(Deps{})
	assert.False(t, p.Enabled())
	p.Publish(context.Background(), archivedRecord())

	var nilPublisher *Publisher
	assert.False(t, nilPublisher.Enabled())
	nilPublisher.Publish(context.Background(), archivedRecord())
}

func TestDeviceCounts_SkipsEmptyLayers(t *testing.T) {
	counts := DeviceCounts(firesafety.DeviceSummary{
		ByLayer: map[string]map[firesafety.DeviceType]int{
			"Z-LAYER": {firesafety.DeviceExitLight: 1},
			"A-LAYER": {},
		},
	})
	assert.Equal(t, []influxdb.DeviceCount{{Layer: "Z-LAYER", DeviceType: "exit_light", Count: 1}}, counts)
}

type fakeSubscriber struct {
	topic   string
	handler mqtt.MessageHandler
	err     error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, topic string, _ byte, handler mqtt.MessageHandler) error {
	f.topic = topic
	f.handler = handler
	return f.err
}

func TestRequests(t *testing.T) {
	inbox := t.TempDir()
	var mu sync.Mutex
	var analysed []string

	logger := &recordingLogger{}
	reqs := NewRequests(inbox, func(_ context.Context, path string) (*archive.Record, error) {
		mu.Lock()
		defer mu.Unlock()
		analysed = append(analysed, path)
		if filepath.Base(path) == "broken.dxf" {
			return nil, errors.New("decode failed")
		}
		return &archive.Record{ID: "r1", Status: firesafety.StatusOK}, nil
	}, logger)

	sub := &fakeSubscriber{}
	require.NoError(t, reqs.Listen(context.Background(), sub))
	assert.Equal(t, "firecad/request/analyze", sub.topic)

	require.NoError(t, sub.handler(sub.topic, []byte(`{"file":"level1/plan.dxf","request_id":"q1"}`)))
	require.NoError(t, sub.handler(sub.topic, []byte(`{"file":"broken.dxf"}`)))
	reqs.Close()

	mu.Lock()
	assert.ElementsMatch(t, []string{
		filepath.Join(inbox, "level1", "plan.dxf"),
		filepath.Join(inbox, "broken.dxf"),
	}, analysed)
	mu.Unlock()
	assert.Len(t, logger.infos, 1)
	assert.Len(t, logger.warns, 1)

	invalid := []string{
		`not json`,
		`{}`,
		`{"file":"../outside.dxf"}`,
		`{"file":"/etc/passwd"}`,
	}
	for _, payload := range invalid {
		err := reqs.Handle("t", []byte(payload))
		assert.ErrorIs(t, err, ErrInvalidRequest, payload)
	}
}

func TestRequests_CloseWaitsAndRejectsLateRequests(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var finished atomic.Bool

	reqs := NewRequests(t.TempDir(), func(context.Context, string) (*archive.Record, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		finished.Store(true)
		return &archive.Record{ID: "r1"}, nil
	}, nil)

	require.NoError(t, reqs.Handle("t", []byte(`{"file":"slow.dxf"}`)))
	<-started

	closed := make(chan struct{})
	go func() {
		reqs.Close()
		close(closed)
	}()

	// Requests racing with shutdown are either rejected or waited for.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := reqs.Handle("t", []byte(`{"file":"late.dxf"}`))
			if err != nil {
				assert.ErrorIs(t, err, ErrRequestsClosed)
			}
		}()
	}
	wg.Wait()

	select {
	case <-closed:
		t.Fatal("Close returned while an analysis was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.True(t, finished.Load())

	err := reqs.Handle("t", []byte(`{"file":"after.dxf"}`))
	assert.ErrorIs(t, err, ErrRequestsClosed)
}

func TestRequests_SubscribeError(t *testing.T) {
	reqs := NewRequests(t.TempDir(), nil, nil)
	err := reqs.Listen(context.Background(), &fakeSubscriber{err: mqtt.ErrNotConnected})
	assert.ErrorIs(t, err, mqtt.ErrNotConnected)
}

func mapKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

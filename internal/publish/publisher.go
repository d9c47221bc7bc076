package publish

import (
	"context"
	"sort"
	"time"

	"github.com/nerrad567/firecad/internal/archive"
	"github.com/nerrad567/firecad/internal/firesafety"
	"github.com/nerrad567/firecad/internal/infrastructure/influxdb"
	"github.com/nerrad567/firecad/internal/infrastructure/mqtt"
)

// Sink names used in logs and failure metrics.
const (
	SinkMQTT     = "mqtt"
	SinkInfluxDB = "influxdb"
)

// MessagePublisher is satisfied by *mqtt.Client.
type MessagePublisher interface {
	PublishJSON(ctx context.Context, topic string, v any, retained bool) error
}

// InventoryWriter is satisfied by *influxdb.Client.
type InventoryWriter interface {
	WriteInventory(siteID, analysisID string, counts []influxdb.DeviceCount, at time.Time)
	WriteValidation(siteID, analysisID string, v influxdb.Validation, at time.Time)
}

// FailureRecorder is satisfied by *metrics.Registry.
type FailureRecorder interface {
	RecordPublishFailure(sink string)
}

// Logger is satisfied by *logging.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Deps configures a Publisher. Nil sinks are skipped.
type Deps struct {
	SiteID   string
	MQTT     MessagePublisher
	InfluxDB InventoryWriter
	Failures FailureRecorder
	Logger   Logger
}

// Publisher delivers archived analyses to MQTT and InfluxDB.
type Publisher struct {
	siteID   string
	mqtt     MessagePublisher
	influx   InventoryWriter
	failures FailureRecorder
	logger   Logger
}

// New creates a Publisher.
func New(deps Deps) *Publisher {
	return &Publisher{
		siteID:   deps.SiteID,
		mqtt:     deps.MQTT,
		influx:   deps.InfluxDB,
		failures: deps.Failures,
		logger:   deps.Logger,
	}
}

// Enabled reports whether any sink is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && (p.mqtt != nil || p.influx != nil)
}

// SummaryMessage is the retained per-analysis summary.
type SummaryMessage struct {
	AnalysisID           string                    `json:"analysis_id"`
	SiteID               string                    `json:"site_id"`
	Source               string                    `json:"source"`
	Status               firesafety.Status         `json:"status"`
	Error                string                    `json:"error,omitempty"`
	TotalLayers          int                       `json:"total_layers"`
	FireSafetyLayerCount int                       `json:"fire_safety_layer_count"`
	ScannedLayers        []string                  `json:"scanned_layers,omitempty"`
	DeviceSummary        *firesafety.DeviceSummary `json:"device_summary,omitempty"`
	CreatedAt            time.Time                 `json:"created_at"`
}

// ValidationMessage carries the standards report for one analysis.
type ValidationMessage struct {
	AnalysisID string                      `json:"analysis_id"`
	SiteID     string                      `json:"site_id"`
	Validation firesafety.ValidationReport `json:"validation"`
}

// WarningsMessage carries the non-fatal findings of one analysis.
type WarningsMessage struct {
	AnalysisID string               `json:"analysis_id"`
	Warnings   []firesafety.Warning `json:"warnings"`
}

// InventoryMessage is the retained site inventory from the latest analysis.
type InventoryMessage struct {
	SiteID       string                        `json:"site_id"`
	AnalysisID   string                        `json:"analysis_id"`
	ByType       map[firesafety.DeviceType]int `json:"by_type"`
	TotalDevices int                           `json:"total_devices"`
}

// Publish delivers rec to every configured sink. Failed analyses only
// publish their summary.
func (p *Publisher) Publish(ctx context.Context, rec *archive.Record) {
	if !p.Enabled() || rec == nil {
		return
	}
	if p.mqtt != nil {
		p.publishMQTT(ctx, rec)
	}
	if p.influx != nil && rec.Result != nil {
		p.writeInflux(rec)
	}
}

func (p *Publisher) publishMQTT(ctx context.Context, rec *archive.Record) {
	topics := mqtt.Topics{}

	summary := SummaryMessage{
		AnalysisID:           rec.ID,
		SiteID:               p.siteID,
		Source:               rec.Source,
		Status:               rec.Status,
		Error:                rec.Error,
		TotalLayers:          rec.TotalLayers,
		FireSafetyLayerCount: rec.FireSafetyLayerCount,
		CreatedAt:            rec.CreatedAt,
	}
	if rec.Result != nil {
		summary.ScannedLayers = rec.Result.ScannedLayers
		summary.DeviceSummary = &rec.Result.DeviceSummary
	}

	p.send(ctx, topics.AnalysisSummary(rec.ID), summary, true)
	if rec.Result == nil {
		return
	}

	p.send(ctx, topics.AnalysisValidation(rec.ID), ValidationMessage{
		AnalysisID: rec.ID,
		SiteID:     p.siteID,
		Validation: rec.Result.Validation,
	}, true)

	if len(rec.Warnings) > 0 {
		p.send(ctx, topics.AnalysisWarnings(rec.ID), WarningsMessage{
			AnalysisID: rec.ID,
			Warnings:   rec.Warnings,
		}, false)
	}

	if p.siteID != "" {
		p.send(ctx, topics.SiteInventory(p.siteID), InventoryMessage{
			SiteID:       p.siteID,
			AnalysisID:   rec.ID,
			ByType:       rec.Result.DeviceSummary.ByType,
			TotalDevices: rec.Result.DeviceSummary.TotalDevices,
		}, true)
	}
}

func (p *Publisher) send(ctx context.Context, topic string, v any, retained bool) {
	if err := p.mqtt.PublishJSON(ctx, topic, v, retained); err != nil {
		p.failed(SinkMQTT, "topic", topic, "error", err)
	}
}

func (p *Publisher) writeInflux(rec *archive.Record) {
	result := rec.Result
	p.influx.WriteInventory(p.siteID, rec.ID, DeviceCounts(result.DeviceSummary), rec.CreatedAt)
	p.influx.WriteValidation(p.siteID, rec.ID, influxdb.Validation{
		AIACompliance:    rec.AIACompliantLayers == rec.TotalLayers && rec.TotalLayers > 0,
		Organized:        result.Validation.FireSafetyOrganization.Organized,
		MissingLayers:    len(result.Validation.MissingCriticalLayers),
		FireSafetyLayers: result.FireSafetyLayerCount,
		TotalLayers:      result.TotalLayers,
		TotalDevices:     result.DeviceSummary.TotalDevices,
	}, rec.CreatedAt)
}

// InfluxWriteFailed is the SetOnError callback for the InfluxDB client:
// async write errors are logged and counted like MQTT failures.
func (p *Publisher) InfluxWriteFailed(err error) {
	p.failed(SinkInfluxDB, "error", err)
}

func (p *Publisher) failed(sink string, args ...any) {
	if p.failures != nil {
		p.failures.RecordPublishFailure(sink)
	}
	if p.logger != nil {
		p.logger.Warn("publish failed", append([]any{"sink", sink}, args...)...)
	}
}

// DeviceCounts flattens a summary into (layer, type, count) rows sorted
// by layer then type. Layers with no devices are omitted.
func DeviceCounts(summary firesafety.DeviceSummary) []influxdb.DeviceCount {
	var counts []influxdb.DeviceCount
	for layer, byType := range summary.ByLayer {
		for dt, n := range byType {
			counts = append(counts, influxdb.DeviceCount{Layer: layer, DeviceType: string(dt), Count: n})
		}
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Layer != counts[j].Layer {
			return counts[i].Layer < counts[j].Layer
		}
		return counts[i].DeviceType < counts[j].DeviceType
	})
	return counts
}

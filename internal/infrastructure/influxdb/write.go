package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementDeviceInventory = "fire_device_inventory"
	MeasurementLayerValidation = "fire_layer_validation"
)

// DeviceCount is the number of devices of one type found on one layer.
type DeviceCount struct {
	Layer      string
	DeviceType string
	Count      int
}

// Validation is the per-analysis standards outcome written as one point.
type Validation struct {
	AIACompliance    bool
	Organized        bool
	MissingLayers    int
	FireSafetyLayers int
	TotalLayers      int
	TotalDevices     int
}

// WriteInventory writes one fire_device_inventory point per layer and
// device type. Points are tagged with site, analysis, layer and type.
func (c *Client) WriteInventory(siteID, analysisID string, counts []DeviceCount, at time.Time) {
	if !c.IsConnected() {
		return
	}

	for _, dc := range counts {
		c.writeAPI.WritePoint(write.NewPoint(
			MeasurementDeviceInventory,
			map[string]string{
				"site_id":     siteID,
				"analysis_id": analysisID,
				"layer":       dc.Layer,
				"device_type": dc.DeviceType,
			},
			map[string]any{"count": dc.Count},
			at,
		))
	}
}

// WriteValidation writes a fire_layer_validation point.
func (c *Client) WriteValidation(siteID, analysisID string, v Validation, at time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementLayerValidation,
		map[string]string{
			"site_id":     siteID,
			"analysis_id": analysisID,
		},
		map[string]any{
			"aia_compliance":     v.AIACompliance,
			"organized":          v.Organized,
			"missing_layers":     v.MissingLayers,
			"fire_safety_layers": v.FireSafetyLayers,
			"total_layers":       v.TotalLayers,
			"total_devices":      v.TotalDevices,
		},
		at,
	))
}

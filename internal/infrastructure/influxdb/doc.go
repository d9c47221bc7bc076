// Package influxdb records fire safety inventory history in InfluxDB.
//
// Each analysis writes fire_device_inventory points (count per layer and
// device type) and one fire_layer_validation point, so inventory drift
// across drawing revisions can be charted per site.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // sink switched off
//	}
//	defer client.Close()
//
//	client.WriteInventory(siteID, analysisID, counts, time.Now())
//
// Writes are non-blocking and batched. Failures reach the SetOnError callback.
package influxdb

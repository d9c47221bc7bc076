// Package mqtt connects FireCAD to an MQTT broker.
//
// Analysis results are published under firecad/analysis/{id}/..., and the
// serve command can listen on firecad/request/analyze for drawings to
// analyse. See Topics for the full hierarchy.
//
// Usage:
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(ctx, mqtt.Topics{}.AnalysisSummary(id), summary, true)
//
// Message handlers run on paho goroutines with panic recovery; errors they
// return are logged through the Logger set with SetLogger.
package mqtt

// Package publish fans archived analyses out to downstream systems and
// accepts analysis requests over MQTT.
//
// Sinks are optional. A Publisher with no sinks is a no-op, and a failing
// sink is logged and counted but never fails the analysis that produced
// the record.
package publish

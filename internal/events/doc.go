// Package events carries tracking and analysis notifications from their
// producers to any number of consumers.
//
// The tracking controller and the report service publish through an
// EventEmitter. The log handler, the History ring served over HTTP and the
// MQTT bridge each register as an EventHandler. analysis.completed carries
// the stored domain.SleepReport as its payload.
package events

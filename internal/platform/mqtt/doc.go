// Package mqtt connects the sleep tracker to an MQTT broker.
//
// The broker carries the two motion feeds (one topic per sensor), a device
// state feed reporting charging and in-use changes, retained control messages
// that tell publishers which cadence to sample at, and outbound tracking
// events. Payloads on every topic are JSON.
package mqtt

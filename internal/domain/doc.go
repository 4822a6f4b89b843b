// Package domain contains the core entities of sleep tracking: sensor
// vectors, observations, device state, sessions and sleep reports. It has no
// knowledge of sensors, storage or the scoring service.
package domain

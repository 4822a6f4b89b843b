// Package session holds the observations recorded during one occurrence of
// the sleep window.
package session

import "github.com/phrazzld/sleepwatch/internal/domain"

// Log is an append-only, insertion-ordered sequence of observations.
//
// Log is not safe for concurrent use; it is owned by the tracking loop.
type Log struct {
	observations []domain.SensorObservation
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds obs to the end of the log. Duplicates are kept.
func (l *Log) Append(obs domain.SensorObservation) {
	l.observations = append(l.observations, obs)
}

// Drain returns every observation in insertion order and leaves the log
// empty. The returned slice is owned by the caller.
func (l *Log) Drain() []domain.SensorObservation {
	drained := l.observations
	l.observations = nil
	return drained
}

// Reset discards every observation.
func (l *Log) Reset() {
	l.observations = nil
}

// Len returns the number of buffered observations.
func (l *Log) Len() int {
	return len(l.observations)
}

// Package tracking runs the sleep-tracking state machine.
//
// A Controller owns the sleep window, the current session log and the
// Idle/Tracking state. All of it is touched only by the goroutine running
// Controller.Run; every public method hands a closure to that loop through a
// FIFO inbox. Sensor ticks arrive the same way, with a non-blocking send, so
// a sensor callback never waits on the loop.
//
// Transitions:
//
//	Idle     -> Tracking  window active and enabled at an evaluation, or Start
//	Tracking -> Tracking  synchronized sensor tick appends one observation
//	Tracking -> Idle      window no longer active, or Stop: drain and analyze
//	Tracking -> Idle      SetEnabled(false) or shutdown: discard the log
//
// Evaluations happen periodically and after every configuration change.
package tracking

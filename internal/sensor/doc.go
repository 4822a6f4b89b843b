// Package sensor turns two independent motion streams, linear acceleration
// and angular velocity, into synchronized ticks.
//
// A Provider exposes one Stream per sensor. The Sampler subscribes to both at
// a shared cadence, caches the latest angular-velocity reading and pairs it
// with every acceleration reading. Until the first angular-velocity reading of
// a subscription arrives no tick is emitted (the wait-for-both-streams rule).
package sensor

// Package store defines the persistence contract for sleep reports and the
// errors and transaction helper shared by its implementations.
package store

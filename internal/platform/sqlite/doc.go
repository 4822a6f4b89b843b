// Package sqlite implements the store interfaces on an embedded SQLite
// database using the pure-Go modernc.org/sqlite driver. The schema is owned
// by goose migrations embedded in the binary.
package sqlite

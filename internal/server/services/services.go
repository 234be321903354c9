// Package services contains the inbox business logic: identities, shareable
// links, messages, abuse reports and the workflow tying them together.
//
// Every store is built from an explicit *sql.DB and a
// repomanager.RepositoryManager. Stores that assign identifiers hold a mutex
// for the whole write so that concurrent callers are serialized. Mutexes are
// always taken before a connection is acquired, which keeps single-connection
// SQLite handles from deadlocking.
package services

import "time"

// nowUTC is the default clock. Timestamps are truncated to microseconds,
// the finest precision both databases keep.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

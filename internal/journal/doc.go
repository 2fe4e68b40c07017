// Package journal keeps a local SQLite record of published releases.
//
// Every uploaded object (release artwork, track, collection manifest)
// is stored with its content id, BLAKE3 digest and size. Tracks also
// carry their registration state, so registrations that failed during
// an upload can be retried later with Pending and MarkRegistered.
//
// # Pragmas
//
// Every connection is initialized with WAL journaling, NORMAL
// synchronous mode and a 5 second busy timeout.
//
// # Usage
//
//	j, err := journal.Open(journal.Config{Path: "radar.db", Logger: logger})
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//
//	pending, err := j.Pending(ctx)
package journal

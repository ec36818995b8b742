// Package mailindex is a SQLite-backed stand-in for the on-disk mailbox
// index file format, which is explicitly out of scope for this core
// (callers may swap in whatever real index format they run). It implements
// the search.MailboxView contract against ordinary SQL tables.
package mailindex

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS mailbox_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	first_unseen_uid_lowwater INTEGER NOT NULL DEFAULT 0,
	first_deleted_uid_lowwater INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
	uid INTEGER PRIMARY KEY,
	flags INTEGER NOT NULL DEFAULT 0,
	keywords INTEGER NOT NULL DEFAULT 0,
	location TEXT NOT NULL,
	received_date INTEGER,
	sent_date INTEGER,
	sent_tz_offset INTEGER NOT NULL DEFAULT 0,
	size INTEGER
);
`

// Migrate creates the schema if it does not already exist, and seeds the
// single mailbox_meta row.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec(`INSERT OR IGNORE INTO mailbox_meta (id) VALUES (1)`)
	return err
}

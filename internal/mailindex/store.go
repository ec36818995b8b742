package mailindex

import (
	"database/sql"
	"fmt"

	"github.com/kestrelmail/searchcore/internal/search"
)

// persistableFlags strips RECENT before writing: the persisted record
// never encodes it (§3); RECENT only ever lives in the in-memory full-flags
// view a View is constructed with.
const persistableFlags = ^search.FlagRecent

// Store owns the SQLite connection backing a single mailbox's index.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already-open *sql.DB; callers are expected to have
// opened it with the github.com/mattn/go-sqlite3 driver.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate ensures the schema exists.
func (s *Store) Migrate() error {
	return Migrate(s.db)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertMessage records a newly delivered message.
func (s *Store) InsertMessage(uid uint32, location string, receivedDate int64) error {
	_, err := s.db.Exec(
		`INSERT INTO messages (uid, flags, keywords, location, received_date) VALUES (?, 0, 0, ?, ?)`,
		uid, location, receivedDate,
	)
	if err != nil {
		return fmt.Errorf("mailindex: insert message: %w", err)
	}
	return nil
}

// DeleteMessage removes an expunged message's record.
func (s *Store) DeleteMessage(uid uint32) error {
	_, err := s.db.Exec(`DELETE FROM messages WHERE uid = ?`, uid)
	return err
}

// SetFlags persists flags for uid, with RECENT masked out. Implements
// maildirbox.IndexUpdater.
func (s *Store) SetFlags(uid uint32, flags search.SystemFlag) error {
	_, err := s.db.Exec(`UPDATE messages SET flags = ? WHERE uid = ?`, uint64(flags&persistableFlags), uid)
	if err != nil {
		return fmt.Errorf("mailindex: set flags: %w", err)
	}
	return s.refreshLowwater()
}

// SetLocation persists the LOCATION (filename) field for uid. Implements
// maildirbox.IndexUpdater.
func (s *Store) SetLocation(uid uint32, location string) error {
	_, err := s.db.Exec(`UPDATE messages SET location = ? WHERE uid = ?`, location, uid)
	if err != nil {
		return fmt.Errorf("mailindex: set location: %w", err)
	}
	return nil
}

// SetCachedSentDate persists a cached Date: header value and offset,
// sparing Tier C a header parse on later searches.
func (s *Store) SetCachedSentDate(uid uint32, unixSeconds int64, tzOffsetMinutes int) error {
	_, err := s.db.Exec(`UPDATE messages SET sent_date = ?, sent_tz_offset = ? WHERE uid = ?`,
		unixSeconds, tzOffsetMinutes, uid)
	return err
}

// SetSize persists the cached virtual message size.
func (s *Store) SetSize(uid uint32, size uint64) error {
	_, err := s.db.Exec(`UPDATE messages SET size = ? WHERE uid = ?`, int64(size), uid)
	return err
}

// refreshLowwater recomputes the first-unseen and first-deleted UID
// low-water marks after a flag change, so search_limit_lowwater-style
// tightening always sees an up-to-date mark (§4.1).
func (s *Store) refreshLowwater() error {
	var unseenUID, deletedUID sql.NullInt64

	if err := s.db.QueryRow(
		`SELECT MIN(uid) FROM messages WHERE flags & ? = 0`, int64(search.FlagSeen),
	).Scan(&unseenUID); err != nil {
		return err
	}
	if err := s.db.QueryRow(
		`SELECT MIN(uid) FROM messages WHERE flags & ? != 0`, int64(search.FlagDeleted),
	).Scan(&deletedUID); err != nil {
		return err
	}

	_, err := s.db.Exec(
		`UPDATE mailbox_meta SET first_unseen_uid_lowwater = ?, first_deleted_uid_lowwater = ? WHERE id = 1`,
		nullableUint32(unseenUID), nullableUint32(deletedUID),
	)
	return err
}

func nullableUint32(v sql.NullInt64) int64 {
	if !v.Valid {
		return 0
	}
	return v.Int64
}

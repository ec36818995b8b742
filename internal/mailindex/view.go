package mailindex

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/kestrelmail/searchcore/internal/search"
)

// View implements search.MailboxView over a Store. RecentUIDs supplies the
// in-memory full-flags view's RECENT bit, which is never persisted (§3);
// callers populate it once per session from whatever session-delivery
// tracking they keep (e.g. a maildir new/ listing).
type View struct {
	store      *Store
	RecentUIDs map[uint32]bool
}

// NewView wraps a Store as a search.MailboxView.
func NewView(store *Store) *View {
	return &View{store: store, RecentUIDs: map[uint32]bool{}}
}

func (v *View) Header() (search.MailboxHeader, error) {
	var hdr search.MailboxHeader

	if err := v.store.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&hdr.MessagesCount); err != nil {
		return hdr, err
	}
	if err := v.store.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE flags & ? != 0`, int64(search.FlagSeen),
	).Scan(&hdr.SeenCount); err != nil {
		return hdr, err
	}
	if err := v.store.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE flags & ? != 0`, int64(search.FlagDeleted),
	).Scan(&hdr.DeletedCount); err != nil {
		return hdr, err
	}

	var unseenLW, deletedLW sql.NullInt64
	if err := v.store.db.QueryRow(
		`SELECT first_unseen_uid_lowwater, first_deleted_uid_lowwater FROM mailbox_meta WHERE id = 1`,
	).Scan(&unseenLW, &deletedLW); err != nil {
		return hdr, err
	}
	hdr.FirstUnseenUIDLowwater = uint32(unseenLW.Int64)
	hdr.FirstDeletedUIDLowwater = uint32(deletedLW.Int64)
	return hdr, nil
}

func (v *View) Lookup(seq uint32) (*search.Record, bool, error) {
	row := v.store.db.QueryRow(`
		SELECT uid, flags, keywords, location, received_date, sent_date, sent_tz_offset, size
		FROM (
			SELECT uid, flags, keywords, location, received_date, sent_date, sent_tz_offset, size,
			       ROW_NUMBER() OVER (ORDER BY uid) AS seq
			FROM messages
		) numbered
		WHERE seq = ?`, seq)

	var uid uint32
	var flags uint64
	var keywords uint64
	var location string
	var receivedDate, sentDate sql.NullInt64
	var tzOffset int
	var size sql.NullInt64

	err := row.Scan(&uid, &flags, &keywords, &location, &receivedDate, &sentDate, &tzOffset, &size)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	full := search.SystemFlag(flags)
	if v.RecentUIDs[uid] {
		full |= search.FlagRecent
	}

	rec := &search.Record{
		Seq:      seq,
		UID:      uid,
		Flags:    full,
		Keywords: keywords,
		Fields:   map[string][]byte{"LOCATION": []byte(location)},
	}
	if receivedDate.Valid {
		rec.Fields["RECEIVED_DATE"] = []byte(time.Unix(receivedDate.Int64, 0).UTC().Format(time.RFC3339))
	}
	if sentDate.Valid {
		rec.Fields["SENT_DATE"] = []byte(time.Unix(sentDate.Int64, 0).UTC().Format(time.RFC3339))
	}
	if size.Valid {
		rec.Fields["SIZE"] = []byte(strconv.FormatInt(size.Int64, 10))
	}
	return rec, true, nil
}

func (v *View) LookupUIDRange(uidLo, uidHi uint32) (uint32, uint32, error) {
	var total int
	if err := v.store.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&total); err != nil {
		return 0, 0, err
	}

	var below int
	if err := v.store.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE uid < ?`, uidLo).Scan(&below); err != nil {
		return 0, 0, err
	}
	seqLo := uint32(below + 1)

	var seqHi uint32
	if uidHi == search.SeqMax {
		seqHi = uint32(total)
	} else {
		var atOrBelow int
		if err := v.store.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE uid <= ?`, uidHi).Scan(&atOrBelow); err != nil {
			return 0, 0, err
		}
		seqHi = uint32(atOrBelow)
	}
	return seqLo, seqHi, nil
}

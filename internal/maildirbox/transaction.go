package maildirbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/emersion/go-maildir"
	"github.com/kestrelmail/searchcore/internal/search"
)

// IndexUpdater is the index-side half of a flag-update transaction: it
// persists the record's new LOCATION (filename) field and its new flag
// bitset. A concrete MailboxView-backed implementation lives alongside
// internal/mailindex.
type IndexUpdater interface {
	SetLocation(uid uint32, location string) error
	SetFlags(uid uint32, flags search.SystemFlag) error
}

// ErrNoDiskSpace is returned when a flag-update rename fails with ENOSPC.
var ErrNoDiskSpace = errors.New("maildirbox: rename failed: no disk space")

// UpdateFlags renames a message's cur/ filename to encode newFlags, then
// updates the index LOCATION and flags fields. If the filename already
// encodes newFlags, no rename happens and only the logical flags are
// updated. Grounded on maildir_index_update_flags: rename first, index
// second. An ENOSPC rename failure is returned as ErrNoDiskSpace; no
// mailbox-level no-disk-space flag is set here.
func UpdateFlags(dir maildir.Dir, uid uint32, oldFilename string, newFlags search.SystemFlag, idx IndexUpdater) error {
	newFilename := EncodeFlags(oldFilename, newFlags)

	if newFilename != oldFilename {
		oldPath := filepath.Join(string(dir), "cur", oldFilename)
		newPath := filepath.Join(string(dir), "cur", newFilename)

		if err := os.Rename(oldPath, newPath); err != nil {
			if errors.Is(err, syscall.ENOSPC) {
				return ErrNoDiskSpace
			}
			return fmt.Errorf("maildirbox: rename(%s, %s): %w", oldPath, newPath, err)
		}

		if err := idx.SetLocation(uid, newFilename); err != nil {
			return fmt.Errorf("maildirbox: update location: %w", err)
		}
	}

	if err := idx.SetFlags(uid, newFlags); err != nil {
		return fmt.Errorf("maildirbox: update flags: %w", err)
	}
	return nil
}

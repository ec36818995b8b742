package maildirbox

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/emersion/go-maildir"
	"github.com/kestrelmail/searchcore/internal/search"
)

// Accessor implements search.PerMailAccessor over one message file in a
// maildir's cur/ directory, using the index record's cached fields for
// metadata and the file itself for content.
type Accessor struct {
	dir maildir.Dir
	rec *search.Record
}

// NewAccessor builds an Accessor for rec, whose LOCATION field names a
// file under dir's cur/ subdirectory.
func NewAccessor(dir maildir.Dir, rec *search.Record) *Accessor {
	return &Accessor{dir: dir, rec: rec}
}

func (a *Accessor) ReceivedDate() (time.Time, bool) {
	return parseCachedDate(a.rec, "RECEIVED_DATE")
}

func (a *Accessor) SentDate() (time.Time, int, bool) {
	t, ok := parseCachedDate(a.rec, "SENT_DATE")
	if !ok {
		return time.Time{}, 0, false
	}
	_, offsetSec := t.Zone()
	return t, offsetSec / 60, true
}

func (a *Accessor) Size() (uint64, bool) {
	v, ok := a.rec.Field("SIZE")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(string(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (a *Accessor) Flags() search.SystemFlag {
	return a.rec.Flags
}

func (a *Accessor) path() (string, error) {
	v, ok := a.rec.Field("LOCATION")
	if !ok {
		return "", fmt.Errorf("maildirbox: record %d missing LOCATION field", a.rec.UID)
	}
	return filepath.Join(string(a.dir), "cur", string(v)), nil
}

// Stream opens the message and reports header/body boundaries in its own
// (on-disk) byte framing; msgstream.Send translates that into the virtual
// CRLF-canonical framing a streamer caller needs.
func (a *Accessor) Stream() (hdrSize, bodySize int64, src io.ReadSeeker, err error) {
	path, err := a.path()
	if err != nil {
		return 0, 0, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, nil, err
	}

	boundary := findHeaderBoundary(data)
	return int64(boundary), int64(len(data) - boundary), bytes.NewReader(data), nil
}

// Headers returns the message's whole header block, up to and including
// the blank line that ends it. names is not applied: fields are not
// filtered by name.
func (a *Accessor) Headers(names []string) (io.Reader, error) {
	path, err := a.path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	boundary := findHeaderBoundary(data)
	return bytes.NewReader(data[:boundary]), nil
}

// findHeaderBoundary locates the first blank line separating headers from
// body, accepting both CRLF and bare-LF line endings.
func findHeaderBoundary(data []byte) int {
	if i := bytes.Index(data, []byte("\r\n\r\n")); i >= 0 {
		return i + 4
	}
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2
	}
	return len(data)
}

// DirOpener implements search.MessageOpener over a single maildir.
type DirOpener struct {
	Dir maildir.Dir
}

func (o DirOpener) Open(rec *search.Record) (search.PerMailAccessor, error) {
	return NewAccessor(o.Dir, rec), nil
}

func parseCachedDate(rec *search.Record, field string) (time.Time, bool) {
	v, ok := rec.Field(field)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, string(v))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

package search

import (
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// mailDateParser is the default DateParser, built on the same
// go-message/mail library header.go uses for address canonicalization.
// Sessions may substitute a different DateParser; this one exists so the
// core does not require callers to supply one for ordinary RFC 5322 mail.
type mailDateParser struct{}

// NewDateParser returns the default go-message-backed DateParser.
func NewDateParser() DateParser { return mailDateParser{} }

func (mailDateParser) Parse(raw string) (time.Time, int, bool) {
	h := message.Header{}
	h.Set("Date", raw)
	mh := mail.Header{Header: h}

	t, err := mh.Date()
	if err != nil {
		return time.Time{}, 0, false
	}
	_, offsetSec := t.Zone()
	return t, offsetSec / 60, true
}

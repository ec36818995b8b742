package search

import (
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// mailAddressParser is the default AddressParser, built on the same
// go-message/mail library dateparser.go uses. It parses a raw address-list
// header value and renders a canonicalized form for substring matching,
// avoiding false matches on folding whitespace or RFC 5322 comment syntax
// (§4.2 HEADER_ADDRESS).
type mailAddressParser struct{}

// NewAddressParser returns the default go-message-backed AddressParser.
func NewAddressParser() AddressParser { return mailAddressParser{} }

func (mailAddressParser) Parse(raw string) ([]Address, error) {
	h := message.Header{}
	h.Set("X-Addr", raw)
	mh := mail.Header{Header: h}

	list, err := mh.AddressList("X-Addr")
	if err != nil {
		return nil, err
	}

	out := make([]Address, 0, len(list))
	for _, a := range list {
		mailbox, host := splitMailbox(a.Address)
		out = append(out, Address{Name: a.Name, Mailbox: mailbox, Host: host})
	}
	return out, nil
}

// Canonicalize renders addrs the way mail.Address.String() would: quoted
// display name (if any) followed by the bracketed mailbox@host, joined
// with ", ". This is what HEADER_ADDRESS matches a needle against, not the
// raw header bytes, so folding whitespace inside the original header can
// never produce a spurious substring match.
func (mailAddressParser) Canonicalize(addrs []Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		ma := mail.Address{Name: a.Name, Address: a.Mailbox + "@" + a.Host}
		if a.Host == "" {
			ma.Address = a.Mailbox
		}
		parts = append(parts, ma.String())
	}
	return strings.Join(parts, ", ")
}

func splitMailbox(addr string) (mailbox, host string) {
	i := strings.LastIndexByte(addr, '@')
	if i < 0 {
		return addr, ""
	}
	return addr[:i], addr[i+1:]
}

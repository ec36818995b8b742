package search

import "github.com/emersion/go-message"

// messageHeaderSource adapts a parsed go-message/message.Header into the
// pull-style HeaderSource contract (§9 design note: a value-returning
// iterator in place of the source's void*-context callback).
type messageHeaderSource struct {
	fields message.HeaderFields
	done   bool
}

// NewHeaderSource wraps an already-parsed header block as a HeaderSource.
func NewHeaderSource(h message.Header) HeaderSource {
	return &messageHeaderSource{fields: h.Fields()}
}

// Next returns the next header field, or a synthetic EOH marker once the
// header block is exhausted. go-message's field iterator already joins
// folded continuation lines, so FullValue and Value always agree here;
// useFullValue exists only to satisfy collaborators that distinguish them.
func (s *messageHeaderSource) Next(useFullValue bool) (HeaderField, error) {
	if s.done {
		return HeaderField{EOH: true}, nil
	}
	if !s.fields.Next() {
		s.done = true
		return HeaderField{EOH: true}, nil
	}
	val := s.fields.Value()
	return HeaderField{Name: s.fields.Key(), Value: val, FullValue: val}, nil
}

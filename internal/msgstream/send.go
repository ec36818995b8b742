// Package msgstream implements the on-the-fly CR-injecting message
// streamer (§4.6): it copies a message body to an output sink while
// materializing the virtual (CRLF-canonical) form from an arbitrary
// physical representation, bounded by a virtual-offset window. Grounded
// on message_send in original_source/src/lib-mail/message-send.c.
package msgstream

import (
	"bufio"
	"io"
)

// Sizes carries the physical (on-disk) and virtual (CRLF-canonical) byte
// counts for a whole message, as message_size does in the source this was
// distilled from.
type Sizes struct {
	Physical int64
	Virtual  int64
}

// Send copies min(maxVirtual, sizes.Virtual-virtualSkip) virtual bytes of
// src to dst, starting virtualSkip virtual bytes into the message. It
// returns the number of bytes actually written to dst (physical bytes plus
// injected CRs), fixing the source's discarded-byte-count fast path (§9).
//
// src must be positioned at the start of the message; Send consumes
// exactly as much of it as the virtual window requires.
func Send(dst io.Writer, src io.Reader, sizes Sizes, virtualSkip, maxVirtual int64) (int64, error) {
	if sizes.Physical == 0 || virtualSkip >= sizes.Virtual {
		return 0, nil
	}
	if maxVirtual > sizes.Virtual-virtualSkip {
		maxVirtual = sizes.Virtual - virtualSkip
	}
	if maxVirtual <= 0 {
		return 0, nil
	}

	if sizes.Physical == sizes.Virtual {
		return sendFast(dst, src, virtualSkip, maxVirtual)
	}
	return sendSlow(dst, src, virtualSkip, maxVirtual)
}

// sendFast handles the already-CRLF-canonical case: physical and virtual
// framing agree, so no CR injection is needed and the window is a direct
// copy. Grounded on message_send's sendfile-eligible branch; Go's io.Copy
// already prefers ReadFrom/WriteTo zero-copy paths when the underlying
// types support them, playing the role of o_stream_send_istream here.
func sendFast(dst io.Writer, src io.Reader, virtualSkip, maxVirtual int64) (int64, error) {
	if virtualSkip > 0 {
		if _, err := io.CopyN(io.Discard, src, virtualSkip); err != nil {
			return 0, err
		}
	}
	n, err := io.Copy(dst, io.LimitReader(src, maxVirtual))
	if err != nil {
		return n, err
	}
	return n, nil
}

// sendSlow handles physical representations that omit some CRs (bare \n
// line endings): it scans byte-by-byte, flushing runs verbatim and
// injecting a '\r' immediately before any bare '\n', bounded by the
// virtual budget. Grounded on message_send's CR-insertion loop.
func sendSlow(dst io.Writer, src io.Reader, virtualSkip, maxVirtual int64) (int64, error) {
	br := bufio.NewReaderSize(src, 8192)

	crSkipped, err := skipVirtual(br, virtualSkip)
	if err != nil {
		return 0, err
	}

	var written int64
	budget := maxVirtual

	for budget > 0 {
		buf, err := br.Peek(1)
		if len(buf) == 0 {
			if err == io.EOF {
				break
			}
			if err != nil {
				return written, err
			}
			break
		}

		chunk, err := br.Peek(br.Buffered())
		if len(chunk) == 0 {
			if err == io.EOF {
				break
			}
			return written, err
		}

		i := 0
		addCR := false
		for ; i < len(chunk) && budget > 0; i++ {
			budget--
			if chunk[i] == '\n' {
				missingCR := (i == 0 && !crSkipped) || (i > 0 && chunk[i-1] != '\r')
				if missingCR {
					addCR = true
					break
				}
			}
		}

		if i > 0 {
			n, werr := dst.Write(chunk[:i])
			written += int64(n)
			if werr != nil {
				return written, werr
			}
		}

		if addCR {
			if _, werr := dst.Write([]byte{'\r'}); werr != nil {
				return written, werr
			}
			written++
			crSkipped = true
		} else if i > 0 {
			crSkipped = chunk[i-1] == '\r'
		}

		if _, err := br.Discard(i); err != nil {
			return written, err
		}
	}

	return written, nil
}

// skipVirtual advances past virtualSkip virtual bytes of r, tracking
// whether the last physical byte skipped was '\r' so the caller's first
// scan iteration can tell a bare leading '\n' from one already preceded by
// a (just-skipped) CR. A skipped bare '\n' itself counts as two virtual
// bytes consumed (the '\n' plus its injected '\r'), matching the virtual
// byte accounting the rest of Send uses.
func skipVirtual(br *bufio.Reader, virtualSkip int64) (crSkipped bool, err error) {
	var prev byte
	havePrev := false

	for virtualSkip > 0 {
		b, err := br.ReadByte()
		if err != nil {
			return false, err
		}
		if b == '\n' && (!havePrev || prev != '\r') {
			// Bare \n counts as \r\n in virtual space: one virtual byte
			// consumed by the \r we would have injected, then the \n itself.
			virtualSkip--
			if virtualSkip == 0 {
				// The window starts at this \n: put it back so it is
				// emitted first, already counted as CR-preceded.
				if err := br.UnreadByte(); err != nil {
					return false, err
				}
				return true, nil
			}
		}
		virtualSkip--
		prev = b
		havePrev = true
	}
	return havePrev && prev == '\r', nil
}

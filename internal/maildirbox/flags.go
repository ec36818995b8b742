// Package maildirbox implements the maildir filesystem surface the search
// core reads and writes against: the `:2,<flags>` filename grammar,
// internal-date resolution, and the flag-update rename transaction.
package maildirbox

import (
	"strings"

	"github.com/kestrelmail/searchcore/internal/search"
)

// DecodeFlags parses the `:2,<flagchars>` suffix of a maildir filename into
// the closed flag set plus custom flags, folding unknown characters.
// default_flags is returned unchanged when fname carries no `:2,` info
// section at all. Grounded on maildir_filename_get_flags.
func DecodeFlags(fname string, defaultFlags search.SystemFlag) search.SystemFlag {
	idx := strings.IndexByte(fname, ':')
	if idx < 0 || idx+2 >= len(fname) || fname[idx+1] != '2' || fname[idx+2] != ',' {
		return defaultFlags
	}

	var flags search.SystemFlag
	info := fname[idx+3:]
	for i := 0; i < len(info); i++ {
		c := info[i]
		if c == ',' {
			break
		}
		switch c {
		case 'R':
			flags |= search.FlagAnswered
		case 'S':
			flags |= search.FlagSeen
		case 'T':
			flags |= search.FlagDeleted
		case 'D':
			flags |= search.FlagDraft
		case 'F':
			flags |= search.FlagFlagged
		default:
			if c >= 'a' && c <= 'z' {
				flags |= search.CustomFlag(int(c - 'a'))
			}
			// unknown flag character: ignored, not an error
		}
	}
	return flags
}

// EncodeFlags rewrites fname's `:2,<flagchars>` section for the given
// flags, preserving any unknown characters already present in the old
// info section and any trailing secondary flagset (the `,...` suffix some
// maildir extensions append after the standard flag characters). The
// result is sorted by ascending ASCII code among the known flag
// characters, matching the maildir spec's "must be sorted" requirement.
// Grounded on maildir_filename_set_flags.
func EncodeFlags(fname string, flags search.SystemFlag) string {
	base := fname
	oldFlags := ""

	if idx := strings.LastIndexByte(fname, ':'); idx >= 0 && !strings.Contains(fname[idx:], "/") {
		base = fname[:idx]
		rest := fname[idx+1:]
		if len(rest) >= 2 && rest[0] == '2' && rest[1] == ',' {
			oldFlags = rest[2:]
		}
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString(":2,")

	pos := 0
	for {
		for pos < len(oldFlags) && isKnownFlagChar(oldFlags[pos]) {
			pos++
		}

		next := 256 // sentinel: "no more known flags ahead"
		if pos < len(oldFlags) && oldFlags[pos] != ',' {
			next = int(oldFlags[pos])
		}

		if flags&search.FlagDraft != 0 && next > 'D' {
			b.WriteByte('D')
			flags &^= search.FlagDraft
		}
		if flags&search.FlagFlagged != 0 && next > 'F' {
			b.WriteByte('F')
			flags &^= search.FlagFlagged
		}
		if flags&search.FlagAnswered != 0 && next > 'R' {
			b.WriteByte('R')
			flags &^= search.FlagAnswered
		}
		if flags&search.FlagSeen != 0 && next > 'S' {
			b.WriteByte('S')
			flags &^= search.FlagSeen
		}
		if flags&search.FlagDeleted != 0 && next > 'T' {
			b.WriteByte('T')
			flags &^= search.FlagDeleted
		}

		customMask := search.SystemFlag(0)
		for i := 0; i < search.MaxCustomFlags && i < 26; i++ {
			customMask |= search.CustomFlag(i)
		}
		if flags&customMask != 0 && next > 'a' {
			for i := 0; i < search.MaxCustomFlags && i < 26; i++ {
				if flags&search.CustomFlag(i) != 0 {
					b.WriteByte('a' + byte(i))
				}
			}
			flags &^= customMask
		}

		if pos >= len(oldFlags) || oldFlags[pos] == ',' {
			break
		}
		b.WriteByte(oldFlags[pos])
		pos++
	}

	if pos < len(oldFlags) && oldFlags[pos] == ',' {
		b.WriteString(oldFlags[pos:])
	}

	return b.String()
}

func isKnownFlagChar(c byte) bool {
	switch c {
	case 'D', 'F', 'R', 'S', 'T':
		return true
	default:
		return c >= 'a' && c <= 'z'
	}
}

package fat

import (
	"strings"
	"unicode/utf8"

	"github.com/brinklabs/fatfs/errors"
)

// longNamePunct is the punctuation spec.md §6.3 accepts in a long name,
// beyond [A-Za-z0-9] and any rune ≥ U+0080.
const longNamePunct = "$%'-_@~`!(){}. +,;=[]"

// ValidateLongName checks name against spec.md §6.3: accepted characters are
// [A-Za-z0-9], U+0080..U+FFFF, and the fixed punctuation set above. Length
// must be 1..255 runes.
func ValidateLongName(name string) error {
	count := utf8.RuneCountInString(name)
	if count < 1 || count > 255 {
		return errors.ErrInvalidArgument.WithMessage("name length must be 1..255")
	}
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r >= 0x80 && r <= 0xFFFF:
		case strings.ContainsRune(longNamePunct, r):
		default:
			return errors.ErrInvalidArgument.WithMessage("name contains an illegal character")
		}
	}
	return nil
}

// shortNameMapByte implements the per-character mapping step of spec.md
// §4.6: the handful of punctuation marks that are legal in a long name but
// not in an 8.3 short name become '?', as does anything non-ASCII; what's
// left is upper-cased.
func shortNameMapByte(r rune) byte {
	switch r {
	case '.', '+', ',', ';', '=', '[', ']', ' ':
		return '?'
	}
	if r >= 0x80 {
		return '?'
	}
	if r >= 'a' && r <= 'z' {
		return byte(r - ('a' - 'A'))
	}
	return byte(r)
}

// splitBaseExt splits a name on its last '.', DOS-style: a leading dot (as
// in ".bashrc") is treated as part of the base, not an empty base with
// extension "bashrc".
func splitBaseExt(name string) (base, ext string) {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}

// encode8dot3 packs already-mapped base/ext bytes into the fixed 11-byte
// field, space-padding each half. Used directly by callers (like the "."
// and ".." entry writer) that already have a legal 8.3 pair in hand.
func encode8dot3(base, ext string) [11]byte {
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[0:8], base)
	copy(out[8:11], ext)
	return out
}

// BuildShortName implements the short-name synthesis algorithm of spec.md
// §4.6 exactly: base and extension are mapped character-by-character into
// the fixed 11-byte field, space-padded, truncating once the destination
// half is full. Per spec.md §9, short-name collision avoidance (~1, ~2, …
// suffixes) is a documented limitation and is not implemented here -- two
// long names that map to the same 11 bytes collide silently, as spec'd.
func BuildShortName(longName string) ([11]byte, error) {
	if err := ValidateLongName(longName); err != nil {
		return [11]byte{}, err
	}

	var out [11]byte
	for i := range out {
		out[i] = ' '
	}

	base, ext := splitBaseExt(longName)

	i := 0
	for _, r := range base {
		if i >= 8 {
			break
		}
		out[i] = shortNameMapByte(r)
		i++
	}

	j := 8
	for _, r := range ext {
		if j >= 11 {
			break
		}
		out[j] = shortNameMapByte(r)
		j++
	}

	return out, nil
}

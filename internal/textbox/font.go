package textbox

// Encode maps a string into the ROM's native font byte encoding
// (spec.md §4.F). Unknown characters map to 0x00 (space), matching the
// ROM's own behavior for unmapped glyphs.
func Encode(s string) []byte {
	out := make([]byte, 0, len(s)+1)
	for _, r := range s {
		out = append(out, encodeRune(r))
	}
	out = append(out, 0xFF)
	return out
}

func encodeRune(r rune) byte {
	switch {
	case r == ' ':
		return 0x00
	case r == '\n':
		return 0xFE
	case r >= '0' && r <= '9':
		return 0xA1 + byte(r-'0')
	case r >= 'A' && r <= 'Z':
		return 0xBB + byte(r-'A')
	case r >= 'a' && r <= 'z':
		return 0xD5 + byte(r-'a')
	}
	if b, ok := punctuation[r]; ok {
		return b
	}
	return 0x00
}

// punctuation holds the fixed codes for the small set of punctuation
// marks the injector is expected to emit (remote player names and the
// canned prompt strings).
var punctuation = map[rune]byte{
	'!':  0xAB,
	'?':  0xAC,
	'.':  0xAD,
	'-':  0xAE,
	'\'': 0xB4,
	',':  0xB8,
}

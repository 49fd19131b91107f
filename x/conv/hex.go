// Package conv holds allocation-light formatting for MCU logs where fmt is
// too heavy.
package conv

const hexDigits = "0123456789ABCDEF"

// AppendHex appends "0x" and n as width uppercase hex digits (1..8),
// zero-padded and truncated to the low width nibbles.
func AppendHex(dst []byte, n uint32, width int) []byte {
	if width < 1 {
		width = 1
	} else if width > 8 {
		width = 8
	}
	dst = append(dst, '0', 'x')
	for shift := 4 * (width - 1); shift >= 0; shift -= 4 {
		dst = append(dst, hexDigits[(n>>uint(shift))&0xF])
	}
	return dst
}

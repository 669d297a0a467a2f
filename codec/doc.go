// Package codec implements the binary KORE pattern format.
//
// # Framing
//
//	magic    5 bytes   0x7F 'K' 'O' 'R' 'E'
//	version  6 bytes   major, minor, patch as little-endian uint16
//	size     8 bytes   little-endian uint64 body length, versions >= 1.2.0 only;
//	                   0 means the writer did not record it
//	body     size bytes (or the rest of the buffer when size is 0)
//
// # Body
//
// The body is a prefix encoding of one pattern:
//
//	pattern := 0x04 symbol uvarint(n) pattern{n}
//	         | 0x05 string
//	         | 0x09 string sort
//	symbol  := 0x08 string uvarint(a) sort{a} uvarint(f) sort{f} (0x00 | 0x01 sort)
//	         | 0x0A uvarint(i)
//	sort    := 0x06 string uint8(category) uvarint(bits) uvarint(n) sort{n}
//	         | 0x07 string
//	         | 0x0B uvarint(i)
//	string  := 0x01 uvarint(len) bytes
//	         | 0x02 uvarint(i)
//
// Strings, sorts and symbols are numbered in the order their definitions end,
// and a back-reference names an earlier definition by that number. Decoding
// therefore interns sorts and symbols: every reference to the same symbol
// yields the same *kore.Symbol.
//
// # Reading
//
// Deserialize decodes a complete buffer and accepts every version from 1.0.0
// through 1.2.0. ReadFrom decodes one framed pattern from a sequential Source
// and requires a recorded size, so the source is left positioned exactly after
// the pattern.
package codec

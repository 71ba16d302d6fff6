package builder

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"firestige.xyz/csumlab/internal/core"
)

const unknownToken = "__"

// ParseByteString converts text such as "DE AD __ EF" into bytes. Whitespace
// is ignored and "__" stands for an unknown byte. The whole string must match
// (HEXHEX | __)+ or nothing is returned.
func ParseByteString(text string) ([]core.Byte, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	if len(compact) == 0 || len(compact)%2 != 0 {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidByteString, text)
	}

	out := make([]core.Byte, 0, len(compact)/2)
	for i := 0; i < len(compact); i += 2 {
		pair := compact[i : i+2]
		if pair == unknownToken {
			out = append(out, core.Unknown)
			continue
		}
		if !isHex(pair[0]) || !isHex(pair[1]) {
			return nil, fmt.Errorf("%w: bad group %q at %d", core.ErrInvalidByteString, pair, i)
		}
		v, err := strconv.ParseUint(pair, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidByteString, err)
		}
		out = append(out, core.Known(uint8(v)))
	}
	return out, nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// FormatHex renders bytes as uppercase two-digit hex groups separated by a
// single space. Unknown bytes render as "00".
func FormatHex(data []core.Byte) string {
	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b.OrZero())
	}
	return sb.String()
}

// FormatPlaceholder renders bytes like FormatHex but keeps unknown bytes as
// "__", so the result parses back to the same sequence.
func FormatPlaceholder(data []core.Byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = b.String()
	}
	return strings.Join(parts, " ")
}

package codecx

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrOddLength  = errors.New("odd length hex string")
	ErrInvalidHex = errors.New("invalid hex character")
	ErrLength     = errors.New("unexpected decoded length")
)

// HexEncode returns two lowercase hex digits per byte, without separators.
func HexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

// HexDecode decodes a hex string of any even length.
func HexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrOddLength
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}

	return b, nil
}

// HexDecodeFixed decodes s into exactly n bytes. It fails when s is not
// 2*n characters long, so a short or oversized string never yields a
// partially filled buffer.
func HexDecodeFixed(s string, n int) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrOddLength
	}
	if len(s)/2 != n {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrLength, len(s)/2, n)
	}

	return HexDecode(s)
}

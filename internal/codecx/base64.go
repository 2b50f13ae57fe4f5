package codecx

import (
	"encoding/base64"
	"errors"
	"fmt"
)

var ErrInvalidBase64 = errors.New("invalid base64")

// Base64Encode returns the standard, padded encoding of b on a single line.
func Base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64Decode decodes standard padded base64. Embedded CR and LF characters
// are ignored, so output of chunked encoders is accepted as well.
func Base64Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}

	return b, nil
}

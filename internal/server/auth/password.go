package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/codecx"
	"github.com/dmitrijs2005/filekeeper/internal/common"
)

const (
	// SaltSize is the decoded length of a record's salt.
	SaltSize = 16
	// KeySize is the decoded length of a record's signing key.
	KeySize = 32
	// DigestRounds is the total number of SHA-256 applications.
	DigestRounds = 1000
)

// DigestPassword returns the lowercase hex form of
// SHA-256^DigestRounds(salt || password).
func DigestPassword(salt []byte, password string) string {
	salted := make([]byte, 0, len(salt)+len(password))
	salted = append(salted, salt...)
	salted = append(salted, password...)

	sum := sha256.Sum256(salted)
	common.WipeByteArray(salted)

	for i := 1; i < DigestRounds; i++ {
		sum = sha256.Sum256(sum[:])
	}

	return codecx.HexEncode(sum[:])
}

// CheckPassword reports whether password matches the stored hex salt and
// digest. A salt that is not SaltSize bytes of hex is malformed data, not a
// mismatch.
func CheckPassword(saltHex, password, digestHex string) (bool, error) {
	salt, err := codecx.HexDecodeFixed(saltHex, SaltSize)
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", common.ErrMalformedRecord, err)
	}

	got := DigestPassword(salt, password)

	return subtle.ConstantTimeCompare([]byte(got), []byte(digestHex)) == 1, nil
}

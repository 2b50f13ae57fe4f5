package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/codecx"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const tokenHeader = `{"alg":"HS256","typ":"JWT"}`

// Verdict is the outcome of a signature check that did not fail.
type Verdict int

const (
	Invalid Verdict = iota
	Valid
)

// Claims is the token payload.
type Claims struct {
	Name string `json:"name"`
}

// IssueToken signs a token naming the given user with a KeySize-byte key.
func IssueToken(name string, key []byte) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("signing key must be %d bytes, got %d", KeySize, len(key))
	}

	payload, err := json.Marshal(Claims{Name: name})
	if err != nil {
		return "", err
	}

	signingInput := codecx.Base64Encode([]byte(tokenHeader)) + "." + codecx.Base64Encode(payload)

	sig, err := jwt.SigningMethodHS256.Sign(signingInput, key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signingInput + "." + codecx.Base64Encode(sig), nil
}

// VerifyToken checks the signature segment of token against key.
//
// Everything before the last '.' is the signing input. The claimed signature
// must match the full HMAC-SHA256 digest; the comparison is constant-time, so
// an empty or truncated signature is Invalid. A token without '.' or with a
// signature that is not base64 is reported as common.ErrInvalidToken.
func VerifyToken(token string, key []byte) (Verdict, error) {
	i := strings.LastIndexByte(token, '.')
	if i < 0 {
		return Invalid, fmt.Errorf("%w: missing signature separator", common.ErrInvalidToken)
	}

	sig, err := codecx.Base64Decode(token[i+1:])
	if err != nil {
		return Invalid, fmt.Errorf("%w: signature: %v", common.ErrInvalidToken, err)
	}

	err = jwt.SigningMethodHS256.Verify(token[:i], sig, key)
	switch {
	case err == nil:
		return Valid, nil
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return Invalid, nil
	default:
		return Invalid, fmt.Errorf("verify token: %w", err)
	}
}

// ParseClaims decodes the payload segment without checking the signature.
// Call it only after VerifyToken reported Valid.
func ParseClaims(token string) (Claims, error) {
	var c Claims

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return c, fmt.Errorf("%w: expected 3 segments, got %d", common.ErrInvalidToken, len(parts))
	}

	payload, err := codecx.Base64Decode(parts[1])
	if err != nil {
		return c, fmt.Errorf("%w: payload: %v", common.ErrInvalidToken, err)
	}

	if err := json.Unmarshal(payload, &c); err != nil {
		return c, fmt.Errorf("%w: payload: %v", common.ErrInvalidToken, err)
	}

	return c, nil
}

package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

const algorithm = "HS256"

// signingKey derives the HMAC key from the configured session secret.
func signingKey(secret string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("smartmark-session"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func sign(target string, secret string) ([]byte, error) {
	key, err := signingKey(secret)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(target))
	return mac.Sum(nil), nil
}

// Create creates a server signed JWT
func Create(claims Claims, secret string) (string, error) {
	header := Header{
		Type:      "JWT",
		Algorithm: algorithm,
	}
	headerStr, err := json.Marshal(header)
	if err != nil {
		return "", err
	}

	payloadStr, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	headerB64 := base64.RawURLEncoding.EncodeToString(headerStr)
	payloadB64 := base64.RawURLEncoding.EncodeToString(payloadStr)
	target := headerB64 + "." + payloadB64

	signatureBytes, err := sign(target, secret)
	if err != nil {
		return "", err
	}
	signatureB64 := base64.RawURLEncoding.EncodeToString(signatureBytes)

	return target + "." + signatureB64, nil
}

// Validate checks is jwt signature valid and not expired
func Validate(jwt string, secret string) (*Header, *Claims, error) {

	split := strings.Split(jwt, ".")
	if len(split) != 3 {
		return nil, nil, fmt.Errorf("invalid jwt format")
	}

	var header Header
	headerBytes, err := base64.RawURLEncoding.DecodeString(split[0])
	if err != nil {
		return nil, nil, err
	}
	err = json.Unmarshal(headerBytes, &header)
	if err != nil {
		return nil, nil, err
	}

	// check jwt type
	if header.Type != "JWT" || header.Algorithm != algorithm {
		return nil, nil, fmt.Errorf("Unsupported JWT type")
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(split[1])
	if err != nil {
		return nil, nil, err
	}

	var claims Claims
	err = json.Unmarshal(payloadBytes, &claims)
	if err != nil {
		return nil, nil, err
	}

	// check exp
	if claims.ExpirationTime != "" {
		exp, err := strconv.ParseInt(claims.ExpirationTime, 10, 64)
		if err != nil {
			return nil, nil, err
		}
		now := time.Now().Unix()
		if exp < now {
			return nil, nil, fmt.Errorf("jwt is already expired")
		}
	}

	// check signature
	signatureBytes, err := base64.RawURLEncoding.DecodeString(split[2])
	if err != nil {
		return nil, nil, err
	}

	expected, err := sign(split[0]+"."+split[1], secret)
	if err != nil {
		return nil, nil, err
	}
	if !hmac.Equal(signatureBytes, expected) {
		return nil, nil, fmt.Errorf("jwt signature mismatch")
	}

	// all checks passed
	return &header, &claims, nil
}

// Package token implements the self-contained session token: a base64
// JSON payload joined to a short integrity tag derived from a shared
// secret. The tag only defends against accidental corruption -- anyone
// holding the secret can forge a token, and the secret ships wherever the
// console is deployed. This is a documented trust limitation of the
// scheme, not something the codec tries to paper over. A deployment that
// needs real guarantees should front the console with server-issued,
// server-validated credentials.
package token

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// TTL is the fixed session token lifetime. Every encoded token expires
// exactly seven days after issuance.
const TTL = 7 * 24 * time.Hour

// tagLength is the number of characters kept from the base64 tag digest.
const tagLength = 32

// ErrInvalid is returned by Decode for any token that fails validation:
// wrong format, tag mismatch, unparseable payload, or expired. Callers
// must treat an invalid token as absent, never as "expired but present".
var ErrInvalid = errors.New("invalid session token")

// Role is the access level carried in the token payload.
type Role string

// Roles recognized by the console.
const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// Payload is the decoded session token body. IssuedAt and ExpiresAt are
// epoch seconds; ExpiresAt is always strictly greater than IssuedAt.
type Payload struct {
	SubjectID string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Codec encodes and decodes session tokens with a shared secret.
type Codec struct {
	secret string

	// now is swappable for tests.
	now func() time.Time
}

// NewCodec creates a codec using the given shared secret for tag computation.
func NewCodec(secret string) *Codec {
	return &Codec{secret: secret, now: time.Now}
}

// Encode builds a token from the identity fields of p, stamping a fresh
// IssuedAt of now and ExpiresAt of now + TTL. The timestamps already in p
// are ignored, which is what makes Encode double as the refresh path.
// Encode has no failure mode: the payload is a plain struct that always
// marshals.
func (c *Codec) Encode(p Payload) string {
	now := c.now().Unix()
	p.IssuedAt = now
	p.ExpiresAt = now + int64(TTL/time.Second)

	raw, _ := json.Marshal(p)
	encoded := base64.StdEncoding.EncodeToString(raw)

	return encoded + "." + c.tag(encoded)
}

// Decode validates a serialized token and returns its payload. It fails
// with ErrInvalid when the token is not exactly two non-empty dot-joined
// parts, the recomputed tag does not match byte-for-byte, the payload does
// not parse as the expected record shape, or the token has expired. A
// token expiring at this exact second is still valid (strict less-than).
func (c *Codec) Decode(tok string) (Payload, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Payload{}, ErrInvalid
	}
	encoded, tag := parts[0], parts[1]

	if subtle.ConstantTimeCompare([]byte(tag), []byte(c.tag(encoded))) != 1 {
		return Payload{}, ErrInvalid
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, ErrInvalid
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, ErrInvalid
	}
	if p.SubjectID == "" || p.Username == "" || !p.Role.Valid() {
		return Payload{}, ErrInvalid
	}
	if p.ExpiresAt <= p.IssuedAt {
		return Payload{}, ErrInvalid
	}
	if p.ExpiresAt < c.now().Unix() {
		return Payload{}, ErrInvalid
	}

	return p, nil
}

// tag computes the integrity tag over the encoded payload: the first 32
// characters of base64(secret + encodedPayload).
func (c *Codec) tag(encodedPayload string) string {
	digest := base64.StdEncoding.EncodeToString([]byte(c.secret + encodedPayload))
	if len(digest) < tagLength {
		return digest
	}
	return digest[:tagLength]
}

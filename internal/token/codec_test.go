package token

import (
	"strings"
	"testing"
	"time"
)

// newTestCodec returns a codec with a fixed clock so expiry math is exact.
func newTestCodec(secret string, at time.Time) *Codec {
	c := NewCodec(secret)
	c.now = func() time.Time { return at }
	return c
}

func testPayload() Payload {
	return Payload{
		SubjectID: "1",
		Username:  "admin",
		Email:     "admin@example.com",
		Role:      RoleAdmin,
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec("test-secret", now)

	tok := c.Encode(testPayload())
	got, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := testPayload()
	if got.SubjectID != want.SubjectID || got.Username != want.Username ||
		got.Email != want.Email || got.Role != want.Role {
		t.Errorf("payload mismatch: got %+v", got)
	}
	if got.IssuedAt != now.Unix() {
		t.Errorf("expected IssuedAt %d, got %d", now.Unix(), got.IssuedAt)
	}
	if got.ExpiresAt != got.IssuedAt+int64(TTL/time.Second) {
		t.Errorf("expected ExpiresAt = IssuedAt + 7 days, got issued %d expires %d",
			got.IssuedAt, got.ExpiresAt)
	}
}

func TestDecode_TamperedPayload(t *testing.T) {
	c := newTestCodec("test-secret", time.Now())
	tok := c.Encode(testPayload())

	payloadLen := strings.Index(tok, ".")
	if payloadLen < 0 {
		t.Fatal("token has no separator")
	}

	// Flipping any single character of the payload segment must break the tag.
	for i := 0; i < payloadLen; i++ {
		mutated := []byte(tok)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		if _, err := c.Decode(string(mutated)); err == nil {
			t.Errorf("expected invalid after mutating payload byte %d", i)
		}
	}
}

func TestDecode_TamperedTag(t *testing.T) {
	c := newTestCodec("test-secret", time.Now())
	tok := c.Encode(testPayload())

	i := strings.Index(tok, ".") + 1
	mutated := []byte(tok)
	if mutated[i] == 'A' {
		mutated[i] = 'B'
	} else {
		mutated[i] = 'A'
	}
	if _, err := c.Decode(string(mutated)); err == nil {
		t.Error("expected invalid after mutating tag")
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	now := time.Now()
	tok := newTestCodec("secret-a", now).Encode(testPayload())
	if _, err := newTestCodec("secret-b", now).Decode(tok); err == nil {
		t.Error("expected token encoded with a different secret to be invalid")
	}
}

func TestDecode_Expired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec("test-secret", issued)
	tok := c.Encode(testPayload())

	// Jump past the expiry instant by one second.
	c.now = func() time.Time { return issued.Add(TTL + time.Second) }
	if _, err := c.Decode(tok); err == nil {
		t.Error("expected expired token to be invalid")
	}
}

func TestDecode_ExpiryBoundaryIsValid(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec("test-secret", issued)
	tok := c.Encode(testPayload())

	// expiresAt == now is still valid: the policy is strict less-than.
	c.now = func() time.Time { return issued.Add(TTL) }
	if _, err := c.Decode(tok); err != nil {
		t.Errorf("expected token at the exact expiry instant to be valid, got %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	c := newTestCodec("test-secret", time.Now())

	tests := []struct {
		name string
		tok  string
	}{
		{"empty", ""},
		{"no separator", "abcdef"},
		{"empty payload", ".tag"},
		{"empty tag", "payload."},
		{"three parts", "a.b.c"},
		{"not base64 payload", "!!!.tag"},
		{"garbage json", func() string {
			// Valid base64, valid tag, but the payload is not a record.
			enc := "bm90LWpzb24" + "=" // "not-json"
			return enc + "." + c.tag(enc)
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Decode(tt.tok); err == nil {
				t.Errorf("expected %q to be invalid", tt.tok)
			}
		})
	}
}

func TestDecode_UnknownRole(t *testing.T) {
	now := time.Now()
	c := newTestCodec("test-secret", now)
	p := testPayload()
	p.Role = "superuser"
	tok := c.Encode(p)

	if _, err := c.Decode(tok); err == nil {
		t.Error("expected unknown role to fail shape validation")
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleManager, RoleUser} {
		if !r.Valid() {
			t.Errorf("expected role %q to be valid", r)
		}
	}
	if Role("root").Valid() {
		t.Error("expected unrecognized role to be invalid")
	}
	if Role("").Valid() {
		t.Error("expected empty role to be invalid")
	}
}

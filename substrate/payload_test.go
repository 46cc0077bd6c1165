package substrate

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"golang.org/x/crypto/blake2b"
)

func TestSigningMessage_Layout(t *testing.T) {
	amount := big.NewInt(1000000)
	msg, err := SigningMessage(aliceAddress, bobAddress, amount, "abc", 1700000000000)
	if err != nil {
		t.Fatalf("SigningMessage error: %v", err)
	}

	alicePub, _ := hex.DecodeString(alicePubHex)
	bobPub, _ := hex.DecodeString(bobPubHex)

	if !bytes.Equal(msg[:32], alicePub) {
		t.Errorf("message does not start with sender public key: %x", msg[:32])
	}
	if !bytes.Equal(msg[32:64], bobPub) {
		t.Errorf("message bytes 32..64 are not recipient public key: %x", msg[32:64])
	}

	// amount 1000000 is four compact bytes, nonce is three raw bytes,
	// validUntil 1700000000000 is a seven-byte compact (header + 6 payload).
	if want := 64 + 4 + 3 + 7; len(msg) != want {
		t.Errorf("message length = %d, want %d", len(msg), want)
	}
	if !bytes.Equal(msg[68:71], []byte("abc")) {
		t.Errorf("nonce bytes = %x, want raw UTF-8 'abc'", msg[68:71])
	}
}

func TestSigningMessage_Deterministic(t *testing.T) {
	a, err := SigningMessage(aliceAddress, bobAddress, big.NewInt(42), "nonce-1", 123456789)
	if err != nil {
		t.Fatalf("SigningMessage error: %v", err)
	}
	b, err := SigningMessage(aliceAddress, bobAddress, big.NewInt(42), "nonce-1", 123456789)
	if err != nil {
		t.Fatalf("SigningMessage error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical inputs produced different messages")
	}
}

func TestSigningMessage_FieldsChangeMessage(t *testing.T) {
	base, err := SigningMessage(aliceAddress, bobAddress, big.NewInt(42), "nonce-1", 123456789)
	if err != nil {
		t.Fatalf("SigningMessage error: %v", err)
	}

	variants := []struct {
		name string
		make func() ([]byte, error)
	}{
		{"sender", func() ([]byte, error) {
			return SigningMessage(bobAddress, bobAddress, big.NewInt(42), "nonce-1", 123456789)
		}},
		{"recipient", func() ([]byte, error) {
			return SigningMessage(aliceAddress, aliceAddress, big.NewInt(42), "nonce-1", 123456789)
		}},
		{"amount", func() ([]byte, error) {
			return SigningMessage(aliceAddress, bobAddress, big.NewInt(43), "nonce-1", 123456789)
		}},
		{"nonce", func() ([]byte, error) {
			return SigningMessage(aliceAddress, bobAddress, big.NewInt(42), "nonce-2", 123456789)
		}},
		{"validUntil", func() ([]byte, error) {
			return SigningMessage(aliceAddress, bobAddress, big.NewInt(42), "nonce-1", 123456790)
		}},
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			msg, err := v.make()
			if err != nil {
				t.Fatalf("SigningMessage error: %v", err)
			}
			if bytes.Equal(msg, base) {
				t.Errorf("changing %s did not change the message", v.name)
			}
		})
	}
}

// The compact amount encoding is self-delimiting, so two claims whose
// amount and nonce happen to concatenate to the same length must still
// produce distinct messages.
func TestSigningMessage_NoFieldBleed(t *testing.T) {
	a, err := SigningMessage(aliceAddress, bobAddress, big.NewInt(1), "abc", 123456789)
	if err != nil {
		t.Fatalf("SigningMessage error: %v", err)
	}
	b, err := SigningMessage(aliceAddress, bobAddress, big.NewInt(6209), "bc", 123456789)
	if err != nil {
		t.Fatalf("SigningMessage error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("test premise broken: lengths differ (%d vs %d)", len(a), len(b))
	}
	if bytes.Equal(a, b) {
		t.Error("distinct amount/nonce pairs produced the same message")
	}
}

// The nonce has no length prefix, so its last byte sits directly against
// the validUntil compact. Shifting that byte across the boundary must not
// produce the same message: here "ab" + compact(513) and "abc" + compact(1)
// have identical length, and the migrating byte 'c' (0x63, mode bits 11)
// cannot open the compact encoding of any epoch-millis value.
func TestSigningMessage_NonceValidUntilBoundary(t *testing.T) {
	a, err := SigningMessage(aliceAddress, bobAddress, big.NewInt(7), "ab", 513)
	if err != nil {
		t.Fatalf("SigningMessage error: %v", err)
	}
	b, err := SigningMessage(aliceAddress, bobAddress, big.NewInt(7), "abc", 1)
	if err != nil {
		t.Fatalf("SigningMessage error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("test premise broken: lengths differ (%d vs %d)", len(a), len(b))
	}
	if bytes.Equal(a, b) {
		t.Error("shifting a byte between nonce and validUntil produced the same message")
	}
}

func TestSigningMessage_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		from, to   string
		amount     *big.Int
		validUntil int64
	}{
		{"bad sender", "not-an-address", bobAddress, big.NewInt(1), 1},
		{"bad recipient", aliceAddress, "not-an-address", big.NewInt(1), 1},
		{"nil amount", aliceAddress, bobAddress, nil, 1},
		{"negative amount", aliceAddress, bobAddress, big.NewInt(-1), 1},
		{"negative validUntil", aliceAddress, bobAddress, big.NewInt(1), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SigningMessage(tt.from, tt.to, tt.amount, "n", tt.validUntil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSigningHash(t *testing.T) {
	msg, err := SigningMessage(aliceAddress, bobAddress, big.NewInt(42), "n", 1)
	if err != nil {
		t.Fatalf("SigningMessage error: %v", err)
	}
	want := blake2b.Sum256(msg)

	hash, err := SigningHash(aliceAddress, bobAddress, big.NewInt(42), "n", 1)
	if err != nil {
		t.Fatalf("SigningHash error: %v", err)
	}
	if !bytes.Equal(hash, want[:]) {
		t.Errorf("SigningHash = %x, want %x", hash, want)
	}
}

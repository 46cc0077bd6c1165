package scale

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"
)

func TestCompactUint_KnownVectors(t *testing.T) {
	tests := []struct {
		value string
		want  string // hex
	}{
		{"0", "00"},
		{"1", "04"},
		{"42", "a8"},
		{"63", "fc"},
		{"64", "0101"},
		{"69", "1501"},
		{"16383", "fdff"},
		{"16384", "02000100"},
		{"65535", "feff0300"},
		{"1073741823", "feffffff"},
		{"1073741824", "0300000040"},
		{"4294967295", "03ffffffff"},
		{"10000000000", "0700e40b5402"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v, ok := new(big.Int).SetString(tt.value, 10)
			if !ok {
				t.Fatalf("bad test value %q", tt.value)
			}
			got, err := CompactUint(v)
			if err != nil {
				t.Fatalf("CompactUint(%s) error: %v", tt.value, err)
			}
			if hex.EncodeToString(got) != tt.want {
				t.Errorf("CompactUint(%s) = %x, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestCompactUint64_MatchesBigInt(t *testing.T) {
	for _, v := range []uint64{0, 1, 63, 64, 16383, 16384, 1<<30 - 1, 1 << 30, 1<<64 - 1} {
		fromBig, err := CompactUint(new(big.Int).SetUint64(v))
		if err != nil {
			t.Fatalf("CompactUint(%d) error: %v", v, err)
		}
		if !bytes.Equal(CompactUint64(v), fromBig) {
			t.Errorf("CompactUint64(%d) = %x, CompactUint = %x", v, CompactUint64(v), fromBig)
		}
	}
}

func TestCompactUint_Errors(t *testing.T) {
	if _, err := CompactUint(nil); err == nil {
		t.Error("expected error for nil value")
	}
	if _, err := CompactUint(big.NewInt(-1)); err == nil {
		t.Error("expected error for negative value")
	}

	huge := new(big.Int).Lsh(big.NewInt(1), 8*64) // 65-byte payload
	if _, err := CompactUint(huge); err == nil {
		t.Error("expected error for value beyond compact capacity")
	}
}

func TestCompactUint_RoundTrip(t *testing.T) {
	values := []string{
		"0", "1", "42", "63", "64", "16383", "16384",
		"1073741823", "1073741824", "4294967295",
		"18446744073709551615",              // max u64
		"340282366920938463463374607431768211455", // max u128
		"999999999999999999999",
	}

	for _, s := range values {
		v, _ := new(big.Int).SetString(s, 10)
		enc, err := CompactUint(v)
		if err != nil {
			t.Fatalf("CompactUint(%s) error: %v", s, err)
		}
		dec, n, err := DecodeCompactUint(enc)
		if err != nil {
			t.Fatalf("DecodeCompactUint(%x) error: %v", enc, err)
		}
		if n != len(enc) {
			t.Errorf("DecodeCompactUint(%x) consumed %d of %d bytes", enc, n, len(enc))
		}
		if dec.Cmp(v) != 0 {
			t.Errorf("round trip of %s gave %s", s, dec)
		}
	}
}

func TestDecodeCompactUint_Truncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"two byte mode", []byte{0x15}},
		{"four byte mode", []byte{0xfe, 0xff}},
		{"big int mode", []byte{0x03, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeCompactUint(tt.data); err == nil {
				t.Errorf("expected error for %x", tt.data)
			}
		})
	}
}

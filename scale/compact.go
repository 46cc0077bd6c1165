// Package scale implements the SCALE compact unsigned-integer encoding
// used by Substrate runtimes. Only the compact codec is implemented; it is
// the piece the payment protocol's signing bytes depend on, and it must
// match the chain's native encoding bit for bit.
package scale

import (
	"fmt"
	"math/big"
)

// Mode bits occupy the two least significant bits of the first byte.
const (
	modeSingleByte = 0b00 // value < 2^6, one byte
	modeTwoBytes   = 0b01 // value < 2^14, two bytes little-endian
	modeFourBytes  = 0b10 // value < 2^30, four bytes little-endian
	modeBigInt     = 0b11 // length-prefixed little-endian bytes
)

var (
	maxSingleByte = big.NewInt(1<<6 - 1)
	maxTwoBytes   = big.NewInt(1<<14 - 1)
	maxFourBytes  = big.NewInt(1<<30 - 1)
)

// maxBigIntLen bounds the big-int mode payload: 4 + 63 bytes.
const maxBigIntLen = 67

// CompactUint encodes a non-negative arbitrary-precision integer in SCALE
// compact form.
func CompactUint(v *big.Int) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("scale: cannot encode nil value")
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("scale: cannot encode negative value %s", v)
	}

	switch {
	case v.Cmp(maxSingleByte) <= 0:
		return []byte{byte(v.Uint64() << 2)}, nil

	case v.Cmp(maxTwoBytes) <= 0:
		u := (v.Uint64() << 2) | modeTwoBytes
		return []byte{byte(u), byte(u >> 8)}, nil

	case v.Cmp(maxFourBytes) <= 0:
		u := (v.Uint64() << 2) | modeFourBytes
		return []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}, nil

	default:
		payload := reverseBytes(v.Bytes()) // big.Int.Bytes is big-endian
		if len(payload) > 63 {
			return nil, fmt.Errorf("scale: value %s exceeds compact capacity", v)
		}
		out := make([]byte, 0, 1+len(payload))
		out = append(out, byte((len(payload)-4)<<2)|modeBigInt)
		return append(out, payload...), nil
	}
}

// CompactUint64 encodes a uint64 in SCALE compact form.
func CompactUint64(v uint64) []byte {
	out, _ := CompactUint(new(big.Int).SetUint64(v)) // cannot fail: non-negative
	return out
}

// DecodeCompactUint decodes a SCALE compact unsigned integer from the
// front of data, returning the value and the number of bytes consumed.
func DecodeCompactUint(data []byte) (*big.Int, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("scale: empty input")
	}

	switch data[0] & 0b11 {
	case modeSingleByte:
		return big.NewInt(int64(data[0] >> 2)), 1, nil

	case modeTwoBytes:
		if len(data) < 2 {
			return nil, 0, fmt.Errorf("scale: truncated two-byte compact")
		}
		u := uint64(data[0]) | uint64(data[1])<<8
		return new(big.Int).SetUint64(u >> 2), 2, nil

	case modeFourBytes:
		if len(data) < 4 {
			return nil, 0, fmt.Errorf("scale: truncated four-byte compact")
		}
		u := uint64(data[0]) | uint64(data[1])<<8 | uint64(data[2])<<16 | uint64(data[3])<<24
		return new(big.Int).SetUint64(u >> 2), 4, nil

	default:
		n := int(data[0]>>2) + 4
		if n > maxBigIntLen {
			return nil, 0, fmt.Errorf("scale: compact length %d out of range", n)
		}
		if len(data) < 1+n {
			return nil, 0, fmt.Errorf("scale: truncated big-int compact")
		}
		v := new(big.Int).SetBytes(reverseBytes(data[1 : 1+n]))
		return v, 1 + n, nil
	}
}

func reverseBytes(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[len(in)-1-i] = b
	}
	return out
}

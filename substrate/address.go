// Package substrate implements the chain-facing encodings the payment
// protocol depends on: SS58 address decoding and the exact signing-message
// byte layout an on-chain verifier reconstructs independently.
package substrate

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// GenericPrefix is the network prefix for generic Substrate addresses.
const GenericPrefix uint16 = 42

// ErrInvalidAddress reports a string that is not a well-formed SS58 address.
var ErrInvalidAddress = errors.New("substrate: invalid SS58 address")

// ss58Preamble is prepended before hashing for the address checksum.
var ss58Preamble = []byte("SS58PRE")

const publicKeyLength = 32

// DecodeAddress decodes an SS58 address into its raw 32-byte public key.
// Both one-byte (0..63) and two-byte (64..16383) network prefixes are
// accepted; the prefix itself is discarded since payments compare keys,
// not renderings.
func DecodeAddress(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not base58", ErrInvalidAddress, address)
	}

	var prefixLen int
	switch {
	case len(raw) == 0:
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidAddress)
	case raw[0] < 64:
		prefixLen = 1
	case raw[0] < 128:
		prefixLen = 2
	default:
		return nil, fmt.Errorf("%w: reserved prefix byte %#x", ErrInvalidAddress, raw[0])
	}

	if len(raw) != prefixLen+publicKeyLength+2 {
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddress, len(raw))
	}

	body := raw[:len(raw)-2]
	if want := checksum(body); want[0] != raw[len(raw)-2] || want[1] != raw[len(raw)-1] {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}

	pub := make([]byte, publicKeyLength)
	copy(pub, raw[prefixLen:prefixLen+publicKeyLength])
	return pub, nil
}

// EncodeAddress renders a 32-byte public key as an SS58 address under the
// given network prefix.
func EncodeAddress(pub []byte, network uint16) (string, error) {
	if len(pub) != publicKeyLength {
		return "", fmt.Errorf("%w: public key must be %d bytes, got %d",
			ErrInvalidAddress, publicKeyLength, len(pub))
	}
	if network >= 1<<14 {
		return "", fmt.Errorf("%w: network prefix %d out of range", ErrInvalidAddress, network)
	}

	var body []byte
	if network < 64 {
		body = append(body, byte(network))
	} else {
		// Two-byte prefix layout per the SS58 registry.
		body = append(body,
			byte((network&0b0000_0000_1111_1100)>>2)|0b0100_0000,
			byte(network>>8)|byte((network&0b11)<<6),
		)
	}
	body = append(body, pub...)

	sum := checksum(body)
	return base58.Encode(append(body, sum[0], sum[1])), nil
}

// checksum computes the two SS58 checksum bytes for a prefix+key body.
func checksum(body []byte) [2]byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Preamble)
	h.Write(body)
	var out [2]byte
	copy(out[:], h.Sum(nil)[:2])
	return out
}

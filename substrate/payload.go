package substrate

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"

	"github.com/polkax402/x402-go/scale"
)

// ErrInvalidClaimField reports a claim field the signing message cannot encode.
var ErrInvalidClaimField = errors.New("substrate: invalid claim field")

// SigningMessage builds the exact byte sequence the on-chain verifier
// hashes to check a payment claim's signature:
//
//	decode(from)  32 raw public-key bytes
//	decode(to)    32 raw public-key bytes
//	amount        SCALE compact (u128 on chain)
//	nonce         raw UTF-8 bytes, no length prefix
//	validUntil    SCALE compact (u64 epoch millis)
//
// concatenated with no separators. Any deviation in order, width, or
// framing makes the chain reject the signature, so the layout here is a
// hard external contract.
func SigningMessage(from, to string, amount *big.Int, nonce string, validUntil int64) ([]byte, error) {
	fromPub, err := DecodeAddress(from)
	if err != nil {
		return nil, fmt.Errorf("%w: sender: %v", ErrInvalidClaimField, err)
	}
	toPub, err := DecodeAddress(to)
	if err != nil {
		return nil, fmt.Errorf("%w: recipient: %v", ErrInvalidClaimField, err)
	}

	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: amount must be a non-negative integer", ErrInvalidClaimField)
	}
	amountEnc, err := scale.CompactUint(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrInvalidClaimField, err)
	}

	if validUntil < 0 {
		return nil, fmt.Errorf("%w: validUntil must be non-negative", ErrInvalidClaimField)
	}
	validUntilEnc := scale.CompactUint64(uint64(validUntil))

	msg := make([]byte, 0, len(fromPub)+len(toPub)+len(amountEnc)+len(nonce)+len(validUntilEnc))
	msg = append(msg, fromPub...)
	msg = append(msg, toPub...)
	msg = append(msg, amountEnc...)
	msg = append(msg, nonce...)
	msg = append(msg, validUntilEnc...)
	return msg, nil
}

// SigningHash is the blake2b-256 digest of the signing message; this is
// what the signer actually signs.
func SigningHash(from, to string, amount *big.Int, nonce string, validUntil int64) ([]byte, error) {
	msg, err := SigningMessage(from, to, amount, nonce, validUntil)
	if err != nil {
		return nil, err
	}
	sum := blake2b.Sum256(msg)
	return sum[:], nil
}

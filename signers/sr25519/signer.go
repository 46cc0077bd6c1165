// Package sr25519 provides an in-process sr25519 keypair implementing the
// x402 Signer interface. It signs with the "substrate" signing context,
// matching what wallet extensions produce for the same bytes.
package sr25519

import (
	"context"
	"fmt"

	"github.com/ChainSafe/go-schnorrkel"

	x402 "github.com/polkax402/x402-go"
	"github.com/polkax402/x402-go/substrate"
)

var signingContext = []byte("substrate")

// SeedLength is the mini secret key length in bytes.
const SeedLength = 32

// Signer is an in-process sr25519 keypair.
type Signer struct {
	secret  *schnorrkel.SecretKey
	public  *schnorrkel.PublicKey
	address string
}

var _ x402.Signer = (*Signer)(nil)

// Generate creates a signer with a fresh random keypair, rendered under
// the given SS58 network prefix.
func Generate(network uint16) (*Signer, error) {
	mini, err := schnorrkel.GenerateMiniSecretKey()
	if err != nil {
		return nil, fmt.Errorf("sr25519: key generation failed: %w", err)
	}
	return fromMiniSecret(mini, network)
}

// FromSeed creates a signer from a 32-byte mini secret seed.
func FromSeed(seed []byte, network uint16) (*Signer, error) {
	if len(seed) != SeedLength {
		return nil, fmt.Errorf("sr25519: seed must be %d bytes, got %d", SeedLength, len(seed))
	}
	var raw [SeedLength]byte
	copy(raw[:], seed)

	mini, err := schnorrkel.NewMiniSecretKeyFromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("sr25519: invalid seed: %w", err)
	}
	return fromMiniSecret(mini, network)
}

func fromMiniSecret(mini *schnorrkel.MiniSecretKey, network uint16) (*Signer, error) {
	public := mini.Public()
	pubBytes := public.Encode()

	address, err := substrate.EncodeAddress(pubBytes[:], network)
	if err != nil {
		return nil, fmt.Errorf("sr25519: %w", err)
	}

	return &Signer{
		secret:  mini.ExpandEd25519(),
		public:  public,
		address: address,
	}, nil
}

// Address returns the keypair's SS58 address.
func (s *Signer) Address() string {
	return s.address
}

// Sign signs the message under the substrate signing context and returns
// the 64-byte signature.
func (s *Signer) Sign(_ context.Context, message []byte) ([]byte, error) {
	t := schnorrkel.NewSigningContext(signingContext, message)
	sig, err := s.secret.Sign(t)
	if err != nil {
		return nil, fmt.Errorf("sr25519: signing failed: %w", err)
	}
	enc := sig.Encode()
	return enc[:], nil
}

// Verify checks a signature produced by Sign over the same message.
func (s *Signer) Verify(message, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}
	var raw [64]byte
	copy(raw[:], signature)

	sig := new(schnorrkel.Signature)
	if err := sig.Decode(raw); err != nil {
		return false
	}

	t := schnorrkel.NewSigningContext(signingContext, message)
	ok, err := s.public.Verify(sig, t)
	return err == nil && ok
}

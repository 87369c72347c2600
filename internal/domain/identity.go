package domain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Identity is a 32-byte key naming a caller, an account or the program authority.
type Identity = solana.PublicKey

const IdentitySize = solana.PublicKeyLength

// ParseIdentity decodes a base58 identity.
func ParseIdentity(s string) (Identity, error) {
	id, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	return id, nil
}

// Package address implements Solana public keys and program derived addresses.
package address

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Sizes and limits of the Solana address scheme.
const (
	PublicKeyLength = 32
	MaxSeedLength   = 32
	MaxSeeds        = 16
)

const pdaMarker = "ProgramDerivedAddress"

// Address errors.
var (
	// ErrInvalidAddress is returned when a string is not a base58 32-byte key.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidSeeds is returned when seeds exceed the count or length limits.
	ErrInvalidSeeds = errors.New("invalid seeds")

	// ErrOnCurve is returned when a candidate program address lies on the ed25519 curve.
	ErrOnCurve = errors.New("program address is on curve")

	// ErrNoViableBump is returned when no bump seed yields an off-curve address.
	ErrNoViableBump = errors.New("unable to find a viable program address bump seed")
)

// PublicKey is a raw 32-byte Solana address.
type PublicKey [PublicKeyLength]byte

// Parse decodes a base58 address.
func Parse(s string) (PublicKey, error) {
	var k PublicKey
	if s == "" {
		return k, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return k, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	if len(raw) != PublicKeyLength {
		return k, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, s, len(raw))
	}
	copy(k[:], raw)
	return k, nil
}

// MustParse is Parse for package-level constants. It panics on error.
func MustParse(s string) PublicKey {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Validate reports whether s is a well-formed address.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

// String returns the base58 encoding.
func (k PublicKey) String() string {
	return base58.Encode(k[:])
}

// Bytes returns a copy of the key bytes.
func (k PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeyLength)
	copy(b, k[:])
	return b
}

// NewRandom returns the public half of a fresh ed25519 keypair,
// the same kind of address a wallet generates for a new account.
func NewRandom() string {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(fmt.Sprintf("generate ed25519 key: %v", err))
	}
	return base58.Encode(pub)
}

// IsOnCurve reports whether b decodes to a point on the ed25519 curve.
func IsOnCurve(b []byte) bool {
	if len(b) != PublicKeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateProgramAddress hashes seeds || programID || "ProgramDerivedAddress".
// The seeds must already include the bump. Fails with ErrOnCurve when the
// result is a valid ed25519 point.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	var k PublicKey
	if len(seeds) > MaxSeeds {
		return k, fmt.Errorf("%w: %d seeds, max %d", ErrInvalidSeeds, len(seeds), MaxSeeds)
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return k, fmt.Errorf("%w: seed of %d bytes, max %d", ErrInvalidSeeds, len(seed), MaxSeedLength)
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	sum := h.Sum(nil)
	if IsOnCurve(sum) {
		return k, ErrOnCurve
	}
	copy(k[:], sum)
	return k, nil
}

// FindProgramAddress searches bumps from 255 down to 1 and returns the first
// off-curve address with its bump.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return PublicKey{}, 0, fmt.Errorf("%w: %d seeds leaves no room for bump", ErrInvalidSeeds, len(seeds))
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump > 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		k, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return k, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return PublicKey{}, 0, err
		}
	}
	return PublicKey{}, 0, ErrNoViableBump
}

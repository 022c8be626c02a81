package wallet

import (
	"fmt"

	"github.com/stellar/go/keypair"
)

// ValidateEnrollment checks an (address, secret, destination) tuple:
// all three must be well-formed and the secret must derive to the
// address. Returns ErrAuthMismatch when the derivation fails.
func ValidateEnrollment(address, secret, destination string) error {
	if _, err := keypair.ParseAddress(address); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, MaskAddress(address))
	}

	if _, err := keypair.ParseAddress(destination); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDestination, MaskAddress(destination))
	}

	kp, err := keypair.ParseFull(secret)
	if err != nil {
		return ErrInvalidSecret
	}

	if kp.Address() != address {
		return ErrAuthMismatch
	}

	return nil
}

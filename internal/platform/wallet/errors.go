package wallet

import "errors"

var (
	// ErrWalletNotFound indicates the wallet does not exist in the registry
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrDuplicateAddress indicates a wallet with this address is already enrolled
	ErrDuplicateAddress = errors.New("wallet with this address is already enrolled")

	// ErrAuthMismatch indicates the supplied secret does not derive to the
	// supplied address
	ErrAuthMismatch = errors.New("secret does not derive to the supplied address")

	// ErrInvalidAddress indicates a malformed ledger address
	ErrInvalidAddress = errors.New("invalid ledger address")

	// ErrInvalidSecret indicates a malformed signing key
	ErrInvalidSecret = errors.New("invalid signing key")

	// ErrInvalidDestination indicates a malformed destination address
	ErrInvalidDestination = errors.New("invalid destination address")
)

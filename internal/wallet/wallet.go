package wallet

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/radar-music/radar/internal/model"
)

// Permission is a capability a wallet grants to the application.
type Permission string

const (
	PermissionAccessAddress   Permission = "ACCESS_ADDRESS"
	PermissionAccessPublicKey Permission = "ACCESS_PUBLIC_KEY"
	PermissionSignTransaction Permission = "SIGN_TRANSACTION"
	PermissionSignature       Permission = "SIGNATURE"
)

// AllPermissions lists every permission the pipeline uses.
var AllPermissions = []Permission{
	PermissionAccessAddress,
	PermissionAccessPublicKey,
	PermissionSignTransaction,
	PermissionSignature,
}

// ErrPermissionDenied is returned when the wallet has not granted the
// permission an operation needs.
var ErrPermissionDenied = errors.New("wallet permission denied")

// PermissionError names the missing permission.
type PermissionError struct {
	Permission Permission
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPermissionDenied, e.Permission)
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}

// SaltLengthNone requests an RSA-PSS signature with an empty salt.
const SaltLengthNone = -1

// SignatureOptions configures a raw message signature.
type SignatureOptions struct {
	// SaltLength is the RSA-PSS salt length in bytes. Zero selects the
	// hash length; SaltLengthNone selects an empty salt.
	SaltLength int
}

// Wallet is the signing capability.
type Wallet interface {
	// ActiveAddress returns the address uploads are attributed to.
	ActiveAddress(ctx context.Context) (string, error)

	// PublicKey returns the base64url-encoded public key modulus.
	PublicKey(ctx context.Context) (string, error)

	// Permissions returns the permissions granted to the application.
	Permissions(ctx context.Context) ([]Permission, error)

	// SignDataItem wraps data and tags in a signed data item and
	// returns its encoded bytes.
	SignDataItem(ctx context.Context, data []byte, tags []model.Tag) ([]byte, error)

	// Signature signs an arbitrary message.
	Signature(ctx context.Context, message []byte, opts SignatureOptions) ([]byte, error)
}

// Require returns a *PermissionError for the first permission in want
// that w has not granted.
func Require(ctx context.Context, w Wallet, want ...Permission) error {
	granted, err := w.Permissions(ctx)
	if err != nil {
		return fmt.Errorf("get permissions: %w", err)
	}
	for _, p := range want {
		if !slices.Contains(granted, p) {
			return &PermissionError{Permission: p}
		}
	}
	return nil
}

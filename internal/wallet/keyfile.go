package wallet

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"slices"
	"sync"

	"github.com/radar-music/radar/internal/dataitem"
	"github.com/radar-music/radar/internal/model"
)

// KeySize is the RSA modulus size of arweave wallets, in bits.
const KeySize = 4096

// dataItemSaltLength is the PSS salt length used for data item
// signatures.
const dataItemSaltLength = 32

// KeyFile is a Wallet backed by an in-memory RSA key.
type KeyFile struct {
	key         *rsa.PrivateKey
	owner       []byte
	permissions []Permission

	// rand is the entropy source for salts and anchors.
	rand io.Reader

	mu sync.Mutex
}

// KeyFileOption configures a KeyFile.
type KeyFileOption func(*KeyFile)

// WithPermissions restricts the granted permissions.
func WithPermissions(perms ...Permission) KeyFileOption {
	return func(k *KeyFile) { k.permissions = perms }
}

// WithRand sets the entropy source.
func WithRand(r io.Reader) KeyFileOption {
	return func(k *KeyFile) { k.rand = r }
}

// NewKeyFile wraps key. The modulus must be KeySize bits.
func NewKeyFile(key *rsa.PrivateKey, opts ...KeyFileOption) (*KeyFile, error) {
	if key.N.BitLen() != KeySize {
		return nil, fmt.Errorf("key must be %d bits, got %d", KeySize, key.N.BitLen())
	}

	k := &KeyFile{
		key:         key,
		owner:       key.N.FillBytes(make([]byte, KeySize/8)),
		permissions: AllPermissions,
		rand:        rand.Reader,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Generate creates a new random wallet.
func Generate(opts ...KeyFileOption) (*KeyFile, error) {
	key, err := rsa.GenerateKey(rand.Reader, KeySize)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return NewKeyFile(key, opts...)
}

// Load reads a JWK wallet file.
func Load(path string, opts ...KeyFileOption) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	key, err := ParseJWK(data)
	if err != nil {
		return nil, fmt.Errorf("parse wallet %s: %w", path, err)
	}
	return NewKeyFile(key, opts...)
}

// Save writes the key as a JWK file readable only by the owner.
func (k *KeyFile) Save(path string) error {
	data, err := MarshalJWK(k.key)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Address returns the wallet address: base64url SHA-256 of the modulus.
func (k *KeyFile) Address() string {
	return AddressOf(k.owner)
}

// AddressOf derives the address of a raw owner key.
func AddressOf(owner []byte) string {
	sum := sha256.Sum256(owner)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (k *KeyFile) ActiveAddress(ctx context.Context) (string, error) {
	if err := k.require(PermissionAccessAddress); err != nil {
		return "", err
	}
	return k.Address(), nil
}

func (k *KeyFile) PublicKey(ctx context.Context) (string, error) {
	if err := k.require(PermissionAccessPublicKey); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(k.owner), nil
}

func (k *KeyFile) Permissions(ctx context.Context) ([]Permission, error) {
	return slices.Clone(k.permissions), nil
}

func (k *KeyFile) SignDataItem(ctx context.Context, data []byte, tags []model.Tag) ([]byte, error) {
	if err := k.require(PermissionSignTransaction); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	anchor := make([]byte, dataitem.AnchorLength)
	if _, err := io.ReadFull(k.rand, anchor); err != nil {
		return nil, fmt.Errorf("generate anchor: %w", err)
	}

	item, err := dataitem.New(data, tags, k.owner, dataitem.WithAnchor(anchor))
	if err != nil {
		return nil, err
	}
	if err := item.Sign(signer{k}); err != nil {
		return nil, err
	}
	return item.Bytes()
}

func (k *KeyFile) Signature(ctx context.Context, message []byte, opts SignatureOptions) ([]byte, error) {
	if err := k.require(PermissionSignature); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	return k.sign(message, opts.SaltLength)
}

// sign produces an RSA-PSS SHA-256 signature. A zero saltLength uses
// the hash length and SaltLengthNone an empty salt.
func (k *KeyFile) sign(message []byte, saltLength int) ([]byte, error) {
	digest := sha256.Sum256(message)
	switch {
	case saltLength == SaltLengthNone:
		return signPSSNoSalt(k.key, digest[:])
	case saltLength <= 0:
		saltLength = rsa.PSSSaltLengthEqualsHash
	}
	return rsa.SignPSS(k.rand, k.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: saltLength,
		Hash:       crypto.SHA256,
	})
}

func (k *KeyFile) require(p Permission) error {
	if !slices.Contains(k.permissions, p) {
		return &PermissionError{Permission: p}
	}
	return nil
}

// signer adapts a locked KeyFile to dataitem.Signer.
type signer struct {
	k *KeyFile
}

func (s signer) SignatureType() uint16 { return dataitem.SignatureArweave }
func (s signer) Owner() []byte         { return s.k.owner }

func (s signer) Sign(message []byte) ([]byte, error) {
	return s.k.sign(message, dataItemSaltLength)
}

// Verify checks an RSA-PSS signature made by the owner key.
func Verify(owner, message, signature []byte) error {
	pub := &rsa.PublicKey{N: new(big.Int).SetBytes(owner), E: 65537}
	digest := sha256.Sum256(message)
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], signature, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
		Hash:       crypto.SHA256,
	})
}

// VerifyDataItem parses raw and checks its signature.
func VerifyDataItem(raw []byte) (*dataitem.DataItem, error) {
	item, err := dataitem.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := Verify(item.Owner, item.SigningMessage(), item.Signature); err != nil {
		return nil, fmt.Errorf("verify data item: %w", err)
	}
	return item, nil
}

type jwk struct {
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
	D   string `json:"d,omitempty"`
	P   string `json:"p,omitempty"`
	Q   string `json:"q,omitempty"`
	Dp  string `json:"dp,omitempty"`
	Dq  string `json:"dq,omitempty"`
	Qi  string `json:"qi,omitempty"`
}

// ParseJWK decodes an RSA private key in JSON Web Key form.
func ParseJWK(data []byte) (*rsa.PrivateKey, error) {
	var k jwk
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("decode jwk: %w", err)
	}
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
	if k.N == "" || k.E == "" {
		return nil, errors.New("jwk has no public key")
	}
	if k.D == "" || k.P == "" || k.Q == "" {
		return nil, errors.New("jwk has no private key")
	}

	var fields [8]*big.Int
	for i, s := range []string{k.N, k.E, k.D, k.P, k.Q, k.Dp, k.Dq, k.Qi} {
		if s == "" {
			continue
		}
		b, err := base64.RawURLEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("decode jwk field %d: %w", i, err)
		}
		fields[i] = new(big.Int).SetBytes(b)
	}
	if !fields[1].IsInt64() {
		return nil, errors.New("jwk exponent out of range")
	}

	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: fields[0], E: int(fields[1].Int64())},
		D:         fields[2],
		Primes:    []*big.Int{fields[3], fields[4]},
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("invalid jwk: %w", err)
	}
	key.Precompute()
	return key, nil
}

// MarshalJWK encodes key as a JSON Web Key.
func MarshalJWK(key *rsa.PrivateKey) ([]byte, error) {
	if len(key.Primes) != 2 {
		return nil, errors.New("only two-prime keys are supported")
	}
	key.Precompute()

	enc := func(n *big.Int) string {
		return base64.RawURLEncoding.EncodeToString(n.Bytes())
	}
	return json.Marshal(jwk{
		Kty: "RSA",
		N:   enc(key.N),
		E:   enc(big.NewInt(int64(key.E))),
		D:   enc(key.D),
		P:   enc(key.Primes[0]),
		Q:   enc(key.Primes[1]),
		Dp:  enc(key.Precomputed.Dp),
		Dq:  enc(key.Precomputed.Dq),
		Qi:  enc(key.Precomputed.Qinv),
	})
}

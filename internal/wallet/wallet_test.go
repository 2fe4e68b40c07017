package wallet

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/radar-music/radar/internal/model"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

// sharedKey generates one 4096-bit key for the whole test binary.
func sharedKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, KeySize)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

func newTestKeyFile(t *testing.T, opts ...KeyFileOption) *KeyFile {
	t.Helper()
	k, err := NewKeyFile(sharedKey(t), opts...)
	if err != nil {
		t.Fatalf("NewKeyFile() error = %v", err)
	}
	return k
}

func TestKeyFile_Address(t *testing.T) {
	k := newTestKeyFile(t)
	ctx := context.Background()

	addr, err := k.ActiveAddress(ctx)
	if err != nil {
		t.Fatalf("ActiveAddress() error = %v", err)
	}
	if len(addr) != 43 {
		t.Errorf("address length = %d, want 43", len(addr))
	}

	pub, err := k.PublicKey(ctx)
	if err != nil {
		t.Fatalf("PublicKey() error = %v", err)
	}
	owner, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("public key is not base64url: %v", err)
	}
	if AddressOf(owner) != addr {
		t.Errorf("AddressOf(public key) = %q, want %q", AddressOf(owner), addr)
	}
}

func TestKeyFile_SignDataItem(t *testing.T) {
	k := newTestKeyFile(t)
	tags := []model.Tag{{Name: "Content-Type", Value: "audio/mpeg"}}

	raw, err := k.SignDataItem(context.Background(), []byte("payload"), tags)
	if err != nil {
		t.Fatalf("SignDataItem() error = %v", err)
	}

	item, err := VerifyDataItem(raw)
	if err != nil {
		t.Fatalf("VerifyDataItem() error = %v", err)
	}
	if !reflect.DeepEqual(item.Tags, tags) {
		t.Errorf("tags = %v, want %v", item.Tags, tags)
	}
	if string(item.Data) != "payload" {
		t.Errorf("data = %q, want %q", item.Data, "payload")
	}
	if AddressOf(item.Owner) != k.Address() {
		t.Error("item owner does not match wallet")
	}

	// Tampering with the payload invalidates the signature.
	raw[len(raw)-1] ^= 0xff
	if _, err := VerifyDataItem(raw); err == nil {
		t.Error("expected verification failure for tampered item")
	}
}

func TestKeyFile_SignDataItemUniqueIDs(t *testing.T) {
	k := newTestKeyFile(t)
	ctx := context.Background()

	a, err := k.SignDataItem(ctx, []byte("same"), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := k.SignDataItem(ctx, []byte("same"), nil)
	if err != nil {
		t.Fatal(err)
	}

	itemA, _ := VerifyDataItem(a)
	itemB, _ := VerifyDataItem(b)
	idA, _ := itemA.ID()
	idB, _ := itemB.ID()
	if idA == idB {
		t.Error("identical payloads should get distinct ids through random anchors")
	}
}

func TestKeyFile_Signature(t *testing.T) {
	k := newTestKeyFile(t)
	msg := []byte("0b7a9c2e-nonce")

	sig, err := k.Signature(context.Background(), msg, SignatureOptions{})
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	if err := Verify(k.owner, msg, sig); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
	if err := Verify(k.owner, []byte("other"), sig); err == nil {
		t.Error("expected verification failure for a different message")
	}
}

func TestKeyFile_SignatureWithoutSalt(t *testing.T) {
	k := newTestKeyFile(t)
	ctx := context.Background()
	msg := []byte("0b7a9c2e-nonce")

	first, err := k.Signature(ctx, msg, SignatureOptions{SaltLength: SaltLengthNone})
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	if len(first) != KeySize/8 {
		t.Errorf("signature length = %d, want %d", len(first), KeySize/8)
	}
	if err := Verify(k.owner, msg, first); err != nil {
		t.Errorf("Verify() error = %v", err)
	}

	// Without a salt the signature is deterministic.
	second, err := k.Signature(ctx, msg, SignatureOptions{SaltLength: SaltLengthNone})
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("unsalted signatures of the same message differ")
	}

	salted, err := k.Signature(ctx, msg, SignatureOptions{})
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	if bytes.Equal(first, salted) {
		t.Error("default options should use a salt")
	}
}

func TestKeyFile_PermissionDenied(t *testing.T) {
	k := newTestKeyFile(t, WithPermissions(PermissionAccessAddress))
	ctx := context.Background()

	if _, err := k.ActiveAddress(ctx); err != nil {
		t.Errorf("ActiveAddress() error = %v", err)
	}

	tests := []struct {
		name string
		call func() error
		want Permission
	}{
		{
			name: "sign data item",
			call: func() error { _, err := k.SignDataItem(ctx, nil, nil); return err },
			want: PermissionSignTransaction,
		},
		{
			name: "signature",
			call: func() error { _, err := k.Signature(ctx, nil, SignatureOptions{}); return err },
			want: PermissionSignature,
		},
		{
			name: "public key",
			call: func() error { _, err := k.PublicKey(ctx); return err },
			want: PermissionAccessPublicKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, ErrPermissionDenied) {
				t.Fatalf("error = %v, want ErrPermissionDenied", err)
			}
			var perr *PermissionError
			if !errors.As(err, &perr) || perr.Permission != tt.want {
				t.Errorf("missing permission = %v, want %s", perr, tt.want)
			}
		})
	}

	if err := Require(ctx, k, PermissionAccessAddress, PermissionSignature); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Require() = %v, want ErrPermissionDenied", err)
	}
}

func TestKeyFile_SaveLoad(t *testing.T) {
	k := newTestKeyFile(t)
	path := filepath.Join(t.TempDir(), "wallet.json")

	if err := k.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Address() != k.Address() {
		t.Errorf("loaded address = %q, want %q", loaded.Address(), k.Address())
	}
}

func TestParseJWK_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "nope"},
		{name: "wrong key type", data: `{"kty":"EC"}`},
		{name: "public only", data: `{"kty":"RSA","n":"AQAB","e":"AQAB"}`},
		{name: "bad base64", data: `{"kty":"RSA","n":"***","e":"AQAB","d":"AQ","p":"AQ","q":"AQ"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJWK([]byte(tt.data)); err == nil {
				t.Error("expected error but got none")
			}
		})
	}
}

func TestNewKeyFile_WrongSize(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewKeyFile(key); err == nil {
		t.Error("expected error for 1024-bit key")
	}
}

package dataitem

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/radar-music/radar/internal/model"
)

// SignatureArweave is the signature type of RSA-PSS 4096 keys.
const SignatureArweave uint16 = 1

// Field sizes for SignatureArweave items.
const (
	SignatureLength = 512
	OwnerLength     = 512
	TargetLength    = 32
	AnchorLength    = 32
)

var (
	// ErrUnsigned is returned when an operation needs a signature that
	// has not been set.
	ErrUnsigned = errors.New("data item is not signed")

	// ErrTruncated is returned by Parse for input shorter than its
	// declared fields.
	ErrTruncated = errors.New("data item truncated")
)

// Signer produces signatures over data item messages.
type Signer interface {
	// SignatureType returns the data item signature type.
	SignatureType() uint16

	// Owner returns the raw public key embedded in the item.
	Owner() []byte

	// Sign signs message and returns a SignatureLength signature.
	Sign(message []byte) ([]byte, error)
}

// DataItem is a single bundled data item.
type DataItem struct {
	SignatureType uint16
	Signature     []byte
	Owner         []byte

	// Target and Anchor are optional. When set they must be exactly
	// TargetLength and AnchorLength bytes.
	Target []byte
	Anchor []byte

	Tags []model.Tag
	Data []byte

	rawTags []byte
}

// Option configures a DataItem built by New.
type Option func(*DataItem)

// WithTarget sets the target address.
func WithTarget(target []byte) Option {
	return func(d *DataItem) { d.Target = target }
}

// WithAnchor sets the anchor.
func WithAnchor(anchor []byte) Option {
	return func(d *DataItem) { d.Anchor = anchor }
}

// New builds an unsigned data item for an arweave owner key.
func New(data []byte, tags []model.Tag, owner []byte, opts ...Option) (*DataItem, error) {
	d := &DataItem{
		SignatureType: SignatureArweave,
		Owner:         owner,
		Tags:          tags,
		Data:          data,
	}
	for _, opt := range opts {
		opt(d)
	}

	if len(d.Owner) != OwnerLength {
		return nil, fmt.Errorf("owner must be %d bytes, got %d", OwnerLength, len(d.Owner))
	}
	if d.Target != nil && len(d.Target) != TargetLength {
		return nil, fmt.Errorf("target must be %d bytes, got %d", TargetLength, len(d.Target))
	}
	if d.Anchor != nil && len(d.Anchor) != AnchorLength {
		return nil, fmt.Errorf("anchor must be %d bytes, got %d", AnchorLength, len(d.Anchor))
	}

	raw, err := EncodeTags(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	d.rawTags = raw

	return d, nil
}

// SigningMessage returns the deep hash the signature covers.
func (d *DataItem) SigningMessage() []byte {
	return DeepHash([][]byte{
		[]byte("dataitem"),
		[]byte("1"),
		[]byte(fmt.Sprint(d.SignatureType)),
		d.Owner,
		d.Target,
		d.Anchor,
		d.rawTags,
		d.Data,
	})
}

// Sign signs the item with s. The signer's owner must match the item's.
func (d *DataItem) Sign(s Signer) error {
	if s.SignatureType() != d.SignatureType {
		return fmt.Errorf("signature type %d does not match item type %d", s.SignatureType(), d.SignatureType)
	}
	if !bytes.Equal(s.Owner(), d.Owner) {
		return errors.New("signer owner does not match item owner")
	}

	sig, err := s.Sign(d.SigningMessage())
	if err != nil {
		return fmt.Errorf("sign data item: %w", err)
	}
	if len(sig) != SignatureLength {
		return fmt.Errorf("signature must be %d bytes, got %d", SignatureLength, len(sig))
	}
	d.Signature = sig
	return nil
}

// ID returns the content id: base64url SHA-256 of the signature.
func (d *DataItem) ID() (string, error) {
	if len(d.Signature) == 0 {
		return "", ErrUnsigned
	}
	sum := sha256.Sum256(d.Signature)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// Size returns the encoded length in bytes.
func (d *DataItem) Size() int {
	size := 2 + SignatureLength + OwnerLength + 2 + 16 + len(d.rawTags) + len(d.Data)
	if d.Target != nil {
		size += TargetLength
	}
	if d.Anchor != nil {
		size += AnchorLength
	}
	return size
}

// Bytes encodes a signed item.
func (d *DataItem) Bytes() ([]byte, error) {
	if len(d.Signature) == 0 {
		return nil, ErrUnsigned
	}

	buf := make([]byte, 0, d.Size())
	buf = binary.LittleEndian.AppendUint16(buf, d.SignatureType)
	buf = append(buf, d.Signature...)
	buf = append(buf, d.Owner...)
	buf = appendOptional(buf, d.Target)
	buf = appendOptional(buf, d.Anchor)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(d.Tags)))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(d.rawTags)))
	buf = append(buf, d.rawTags...)
	buf = append(buf, d.Data...)
	return buf, nil
}

func appendOptional(buf, field []byte) []byte {
	if field == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return append(buf, field...)
}

// Parse decodes an encoded data item. The signature is not verified.
func Parse(raw []byte) (*DataItem, error) {
	r := reader{buf: raw}

	d := &DataItem{}
	d.SignatureType = binary.LittleEndian.Uint16(r.next(2))
	if r.err == nil && d.SignatureType != SignatureArweave {
		return nil, fmt.Errorf("unsupported signature type %d", d.SignatureType)
	}
	d.Signature = r.next(SignatureLength)
	d.Owner = r.next(OwnerLength)
	d.Target = r.optional(TargetLength)
	d.Anchor = r.optional(AnchorLength)

	count := binary.LittleEndian.Uint64(r.next(8))
	length := binary.LittleEndian.Uint64(r.next(8))
	if r.err != nil {
		return nil, r.err
	}
	if count > MaxTags || length > maxTagBytesLen {
		return nil, ErrMalformedTags
	}
	d.rawTags = r.next(int(length))
	if r.err != nil {
		return nil, r.err
	}

	tags, err := DecodeTags(d.rawTags)
	if err != nil {
		return nil, err
	}
	if uint64(len(tags)) != count {
		return nil, fmt.Errorf("%w: header declares %d tags, decoded %d", ErrMalformedTags, count, len(tags))
	}
	d.Tags = tags
	d.Data = r.rest()

	return d, nil
}

type reader struct {
	buf []byte
	err error
}

// next returns the following n bytes, or a zeroed slice once the input
// is exhausted so callers can decode unconditionally and check err once.
func (r *reader) next(n int) []byte {
	if r.err != nil || len(r.buf) < n {
		r.err = ErrTruncated
		return make([]byte, n)
	}
	out := r.buf[:n]
	r.buf = r.buf[n:]
	return out
}

func (r *reader) optional(n int) []byte {
	flag := r.next(1)
	if r.err != nil || flag[0] == 0 {
		return nil
	}
	return r.next(n)
}

func (r *reader) rest() []byte {
	return r.buf
}

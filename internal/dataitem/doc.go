// Package dataitem encodes, signs and parses bundled data items.
//
// A data item is the unit both upload services accept: a binary
// envelope carrying the owner's public key, a signature, optional
// target and anchor, an ordered tag list and the payload. The layout
// is little-endian:
//
//	sig type   2 bytes
//	signature  512 bytes
//	owner      512 bytes
//	target     1 byte flag (+32 bytes)
//	anchor     1 byte flag (+32 bytes)
//	tag count  8 bytes
//	tag bytes  8 bytes
//	tags       Avro-encoded array of {name, value}
//	data       remaining bytes
//
// The signature covers the deep hash of every field except the
// signature itself. The content id is the base64url SHA-256 of the
// signature.
//
// Example:
//
//	item, err := dataitem.New(payload, tags, signer.Owner())
//	if err != nil {
//	    return err
//	}
//	if err := item.Sign(signer); err != nil {
//	    return err
//	}
//	raw, err := item.Bytes()
package dataitem

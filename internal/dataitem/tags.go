package dataitem

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/radar-music/radar/internal/model"
)

// Tag limits enforced by bundling nodes.
const (
	MaxTags        = 128
	MaxTagName     = 1024
	MaxTagValue    = 3072
	maxTagBytesLen = 4096 * MaxTags
)

// ErrMalformedTags is returned when encoded tags cannot be decoded.
var ErrMalformedTags = errors.New("malformed tag bytes")

// EncodeTags serializes tags as an Avro array of {name: bytes,
// value: bytes} records. An empty list encodes to zero bytes.
func EncodeTags(tags []model.Tag) ([]byte, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	if len(tags) > MaxTags {
		return nil, fmt.Errorf("too many tags: %d > %d", len(tags), MaxTags)
	}

	buf := binary.AppendVarint(nil, int64(len(tags)))
	for i, tag := range tags {
		if tag.Name == "" {
			return nil, fmt.Errorf("tag %d: empty name", i)
		}
		if len(tag.Name) > MaxTagName {
			return nil, fmt.Errorf("tag %d: name longer than %d bytes", i, MaxTagName)
		}
		if len(tag.Value) > MaxTagValue {
			return nil, fmt.Errorf("tag %d (%s): value longer than %d bytes", i, tag.Name, MaxTagValue)
		}
		buf = appendAvroBytes(buf, tag.Name)
		buf = appendAvroBytes(buf, tag.Value)
	}
	return binary.AppendVarint(buf, 0), nil
}

// DecodeTags parses the output of EncodeTags.
func DecodeTags(data []byte) ([]model.Tag, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var tags []model.Tag
	for {
		count, n := binary.Varint(data)
		if n <= 0 {
			return nil, ErrMalformedTags
		}
		data = data[n:]
		if count == 0 {
			break
		}
		// A negative block count is followed by the block size in bytes.
		if count < 0 {
			count = -count
			if _, n = binary.Varint(data); n <= 0 {
				return nil, ErrMalformedTags
			}
			data = data[n:]
		}
		for i := int64(0); i < count; i++ {
			var name, value string
			var err error
			if name, data, err = readAvroBytes(data); err != nil {
				return nil, err
			}
			if value, data, err = readAvroBytes(data); err != nil {
				return nil, err
			}
			tags = append(tags, model.Tag{Name: name, Value: value})
		}
	}
	if len(data) != 0 {
		return nil, ErrMalformedTags
	}
	return tags, nil
}

func appendAvroBytes(buf []byte, s string) []byte {
	buf = binary.AppendVarint(buf, int64(len(s)))
	return append(buf, s...)
}

func readAvroBytes(data []byte) (string, []byte, error) {
	length, n := binary.Varint(data)
	if n <= 0 || length < 0 || int64(len(data)-n) < length {
		return "", nil, ErrMalformedTags
	}
	data = data[n:]
	return string(data[:length]), data[length:], nil
}

package dataitem

import (
	"crypto/sha512"
	"strconv"
)

// DeepHash hashes a list of byte blobs with SHA-384, the way bundling
// nodes derive the message a data item signature covers.
func DeepHash(chunks [][]byte) []byte {
	acc := sha384([]byte("list" + strconv.Itoa(len(chunks))))
	for _, chunk := range chunks {
		acc = sha384(append(acc, hashBlob(chunk)...))
	}
	return acc
}

func hashBlob(data []byte) []byte {
	tag := sha384([]byte("blob" + strconv.Itoa(len(data))))
	return sha384(append(tag, sha384(data)...))
}

func sha384(data []byte) []byte {
	sum := sha512.Sum384(data)
	return sum[:]
}

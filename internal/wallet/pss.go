package wallet

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"
)

// signPSSNoSalt signs digest with RSA-PSS, SHA-256, MGF1-SHA-256 and an
// empty salt (RFC 8017 section 9.1.1). rsa.SignPSS reads a zero salt
// length as "auto", so the encoding is built here.
func signPSSNoSalt(key *rsa.PrivateKey, digest []byte) ([]byte, error) {
	emBits := key.N.BitLen() - 1
	emLen := (emBits + 7) / 8
	hLen := sha256.Size
	if emLen < hLen+2 {
		return nil, errors.New("pss: key too small")
	}

	// H = Hash(0x00*8 || mHash)
	var prefix [8]byte
	h := sha256.New()
	h.Write(prefix[:])
	h.Write(digest)
	hash := h.Sum(nil)

	// DB = PS || 0x01, masked with MGF1(H).
	db := make([]byte, emLen-hLen-1)
	db[len(db)-1] = 0x01
	mgf1XOR(db, hash)
	db[0] &= 0xff >> (8*emLen - emBits)

	em := make([]byte, 0, emLen)
	em = append(em, db...)
	em = append(em, hash...)
	em = append(em, 0xbc)

	m := new(big.Int).SetBytes(em)
	s := new(big.Int).Exp(m, key.D, key.N)

	sig := make([]byte, (key.N.BitLen()+7)/8)
	return s.FillBytes(sig), nil
}

// mgf1XOR XORs out with MGF1-SHA-256 of seed.
func mgf1XOR(out, seed []byte) {
	var counter [4]byte
	done := 0
	for done < len(out) {
		h := sha256.New()
		h.Write(seed)
		h.Write(counter[:])
		for _, b := range h.Sum(nil) {
			if done == len(out) {
				break
			}
			out[done] ^= b
			done++
		}
		binary.BigEndian.PutUint32(counter[:], binary.BigEndian.Uint32(counter[:])+1)
	}
}

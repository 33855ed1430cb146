package random

import (
	crypto_rand "crypto/rand"
	"math/big"
	"math/rand"
)

func NewSeed() int64 {
	const MaxUint = ^uint(0)
	const MaxInt = int(MaxUint >> 1)
	nBig, err := crypto_rand.Int(crypto_rand.Reader, big.NewInt(int64(MaxInt)))
	if err != nil {
		panic("cannot seed math/rand package with cryptographically secure random number generator")
	}

	return nBig.Int64()
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// SessionCode generates a human-friendly code used to address a session
// in addition to its UUID.
func SessionCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(code)
}

package util

import (
	"crypto/rand"
	"math/big"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode returns a random uppercase code of the given length,
// skipping look-alike characters. Used for coupon and gift card codes.
func GenerateCode(length int) string {
	code := make([]byte, length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			code[i] = codeAlphabet[0]
			continue
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}

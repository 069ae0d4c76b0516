package referral

import (
	"crypto/rand"
	"math/big"
)

// CodeAlphabet leaves out characters that are easy to misread (0/O, 1/I).
const CodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const CodeLength = 8

// GenerateCode returns a random referral code. Uniqueness is enforced by the
// store, callers retry on conflict.
func GenerateCode() (string, error) {
	buf := make([]byte, CodeLength)
	max := big.NewInt(int64(len(CodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = CodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

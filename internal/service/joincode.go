package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	joinCodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	joinCodeLength   = 6
)

// newJoinCode draws a code uniformly from the alphabet.
func newJoinCode() (string, error) {
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	var b strings.Builder
	b.Grow(joinCodeLength)
	for i := 0; i < joinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		b.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func normalizeJoinCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

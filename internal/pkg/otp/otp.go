package otp

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

const (
	// codeMin and codeMax bound the 6-digit code space (inclusive)
	codeMin = 100000
	codeMax = 999999

	// hashCost is deliberately below the bcrypt default; codes expire in
	// minutes and verification sits on the login hot path
	hashCost = 10
)

// CryptoGenerator produces single-use numeric codes from crypto/rand
type CryptoGenerator struct{}

// NewCryptoGenerator creates a new generator
func NewCryptoGenerator() *CryptoGenerator {
	return &CryptoGenerator{}
}

// Generate returns a 6-digit code drawn uniformly from 100000..999999
func (g *CryptoGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// Hash hashes a code for storage at rest
func Hash(code string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), hashCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a supplied code with a stored hash. The supplied code is
// compared exactly as given, no trimming or normalization.
func Verify(code, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
	return err == nil
}

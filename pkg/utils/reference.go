package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// ReferencePrefix starts every system-generated transaction
	// reference. The full reference is always 28 characters.
	ReferencePrefix = "TXN"
	referenceLen    = 25

	refAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digitAlphabet = "0123456789"
	slugAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

func randomString(alphabet string, length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

// GenerateReference returns a 28-character transaction reference:
// the fixed prefix plus 25 random uppercase alphanumerics.
func GenerateReference() (string, error) {
	suffix, err := randomString(refAlphabet, referenceLen)
	if err != nil {
		return "", err
	}
	return ReferencePrefix + suffix, nil
}

// GenerateAccountNumber returns a 10-digit numeric account number.
// The first digit is never zero. Callers retry on collision.
func GenerateAccountNumber() (string, error) {
	first, err := randomString("123456789", 1)
	if err != nil {
		return "", err
	}
	rest, err := randomString(digitAlphabet, 9)
	if err != nil {
		return "", err
	}
	return first + rest, nil
}

// GenerateSlug returns a short lowercase token for payment links
func GenerateSlug(length int) (string, error) {
	return randomString(slugAlphabet, length)
}

// GenerateInvoiceNumber returns an INV-prefixed invoice number
func GenerateInvoiceNumber() (string, error) {
	suffix, err := randomString(refAlphabet, 10)
	if err != nil {
		return "", err
	}
	return "INV-" + suffix, nil
}

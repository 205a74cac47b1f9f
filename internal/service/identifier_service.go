package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"terminal-bank/internal/core/domain"
)

var ten = big.NewInt(10)

// RandomIdentifierGenerator implements ports.IdentifierGenerator on top of a
// cryptographically strong random source.
type RandomIdentifierGenerator struct {
	random io.Reader
}

// NewIdentifierGenerator creates a generator reading from crypto/rand.
func NewIdentifierGenerator() *RandomIdentifierGenerator {
	return &RandomIdentifierGenerator{random: rand.Reader}
}

// GenerateAccountNumber returns "8" followed by 15 random digits.
// Uniqueness is the caller's concern.
func (g *RandomIdentifierGenerator) GenerateAccountNumber() (string, error) {
	digits, err := g.digits(domain.AccountNumberLength - 1)
	if err != nil {
		return "", fmt.Errorf("generating account number: %w", err)
	}
	return string(domain.AccountNumberPrefix) + digits, nil
}

// GenerateCredential returns a 6-digit PIN.
func (g *RandomIdentifierGenerator) GenerateCredential() (string, error) {
	digits, err := g.digits(domain.CredentialLength)
	if err != nil {
		return "", fmt.Errorf("generating credential: %w", err)
	}
	return digits, nil
}

func (g *RandomIdentifierGenerator) digits(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		d, err := rand.Int(g.random, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidAccessCode = errors.New("invalid access code")

// AccessGate verifies the group's shared access code using bcrypt. The group
// has no per-member passwords; whoever knows the code picks their member and
// gets a session token.
type AccessGate struct {
	codeHash []byte
}

// NewAccessGate creates a gate from a bcrypt hash of the access code.
func NewAccessGate(codeHash string) *AccessGate {
	return &AccessGate{codeHash: []byte(codeHash)}
}

// HashAccessCode hashes a plaintext access code for configuration.
func HashAccessCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash access code: %w", err)
	}
	return string(hash), nil
}

// Verify checks a plaintext access code against the configured hash.
func (g *AccessGate) Verify(code string) error {
	if len(g.codeHash) == 0 {
		// No code configured: the deployment is open.
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(g.codeHash, []byte(code)); err != nil {
		return ErrInvalidAccessCode
	}
	return nil
}

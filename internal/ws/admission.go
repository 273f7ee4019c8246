package ws

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrAdmission = errors.New("admission rejected")

// ClaimVerifier decodes a signed identity claim into its subject.
type ClaimVerifier interface {
	Verify(token string) (string, error)
}

// Gate validates the claim presented on upgrade. It has no side effects.
type Gate struct {
	verifier ClaimVerifier
}

func NewGate(v ClaimVerifier) *Gate { return &Gate{verifier: v} }

func (g *Gate) Admit(claim string) (string, error) {
	if claim == "" {
		return "", fmt.Errorf("%w: missing token", ErrAdmission)
	}
	identity, err := g.verifier.Verify(claim)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAdmission, err)
	}
	if identity == "" {
		return "", fmt.Errorf("%w: empty subject", ErrAdmission)
	}
	if !validIdentity(identity) {
		return "", fmt.Errorf("%w: malformed subject", ErrAdmission)
	}
	return identity, nil
}

// validIdentity keeps chat lines distinguishable from system lines: the
// subject must be printable UTF-8 and must not open with a system marker.
func validIdentity(identity string) bool {
	if !utf8.ValidString(identity) {
		return false
	}
	if strings.HasPrefix(identity, joinMarker) || strings.HasPrefix(identity, leaveMarker) {
		return false
	}
	return strings.IndexFunc(identity, func(r rune) bool {
		return !unicode.IsPrint(r)
	}) < 0
}

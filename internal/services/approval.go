package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"melostore/internal/models"
)

// ApprovalGate issues and verifies the short-lived tokens a controlled node
// demands before accepting an addition from an untrusted submitter. With no
// secret configured the gate is open.
type ApprovalGate struct {
	secret []byte
	ttl    time.Duration
}

// NewApprovalGate creates a gate. An empty secret disables it.
func NewApprovalGate(secret string, ttl time.Duration) *ApprovalGate {
	return &ApprovalGate{secret: []byte(secret), ttl: ttl}
}

// Enabled reports whether approvals are enforced.
func (g *ApprovalGate) Enabled() bool {
	return len(g.secret) > 0
}

// Token issues an approval token bound to one song title.
func (g *ApprovalGate) Token(title string) (string, error) {
	if !g.Enabled() {
		return "", nil
	}
	claims := jwt.MapClaims{
		"sub": title,
		"exp": time.Now().Add(g.ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// Verify checks a token against the title it must be bound to.
func (g *ApprovalGate) Verify(token, title string) error {
	if !g.Enabled() {
		return nil
	}
	if token == "" {
		return models.NewDomainError(models.ErrCodeApprovalRequired, "approval token required")
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !parsed.Valid {
		return models.NewDomainError(models.ErrCodeApprovalRequired, "invalid approval token")
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub != title {
		return models.NewDomainError(models.ErrCodeApprovalRequired, "approval token does not match the song")
	}
	return nil
}

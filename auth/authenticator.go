package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator decides whether a credential may perform write operations.
type Authenticator interface {
	Authorize(credential string) bool
}

// CredentialFromHeader extracts the credential from an Authorization header.
// Both "Bearer {token}" and the bare token are accepted.
func CredentialFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// StaticTokenAuthenticator accepts exactly one shared secret.
type StaticTokenAuthenticator struct {
	token []byte
}

func NewStaticTokenAuthenticator(token string) *StaticTokenAuthenticator {
	return &StaticTokenAuthenticator{token: []byte(token)}
}

func (a *StaticTokenAuthenticator) Authorize(credential string) bool {
	if len(a.token) == 0 || credential == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(credential), a.token) == 1
}

// BcryptTokenAuthenticator accepts a secret whose bcrypt hash is configured,
// so the plain token never has to live in the environment.
type BcryptTokenAuthenticator struct {
	hash []byte
}

func NewBcryptTokenAuthenticator(hash string) (*BcryptTokenAuthenticator, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &BcryptTokenAuthenticator{hash: []byte(hash)}, nil
}

func (a *BcryptTokenAuthenticator) Authorize(credential string) bool {
	if credential == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(credential)) == nil
}

// JWTAuthenticator accepts HS256 tokens signed with the configured secret.
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

func (a *JWTAuthenticator) Authorize(credential string) bool {
	if len(a.secret) == 0 || credential == "" {
		return false
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && token.Valid
}

// IssueToken signs a token for subject that expires after ttl.
func (a *JWTAuthenticator) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// AnyAuthenticator accepts a credential when one of its members does.
// An empty AnyAuthenticator denies everything.
type AnyAuthenticator []Authenticator

func (a AnyAuthenticator) Authorize(credential string) bool {
	for _, member := range a {
		if member != nil && member.Authorize(credential) {
			return true
		}
	}
	return false
}

// Options lists the configured write credentials.
type Options struct {
	Token     string
	TokenHash string
	JWTSecret string
}

// New builds the authenticator chain from whatever credentials are configured.
func New(opts Options) (Authenticator, error) {
	var chain AnyAuthenticator
	if opts.Token != "" {
		chain = append(chain, NewStaticTokenAuthenticator(opts.Token))
	}
	if opts.TokenHash != "" {
		bcryptAuth, err := NewBcryptTokenAuthenticator(opts.TokenHash)
		if err != nil {
			return nil, err
		}
		chain = append(chain, bcryptAuth)
	}
	if opts.JWTSecret != "" {
		chain = append(chain, NewJWTAuthenticator(opts.JWTSecret))
	}
	return chain, nil
}

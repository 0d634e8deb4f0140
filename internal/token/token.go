// Package token issues and verifies the RS256 signed JWTs handed out at sign-in.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/CameronXie/user-session-api/internal/keyfetcher"
)

const (
	DefaultTTL                = time.Hour
	DefaultClockSkewTolerance = 5 * time.Minute
)

var signingMethod = jwt.SigningMethodRS256

// ErrKeyUnavailable is returned by Verify when the public key cannot be loaded.
var ErrKeyUnavailable = errors.New("public key unavailable")

// IssuerConfig holds configuration for token issuance.
type IssuerConfig struct {
	KeyFetcher keyfetcher.PrivateKeyFetcher
	Issuer     string
	Audience   string
	TTL        time.Duration // Optional: defaults to DefaultTTL
}

// Issuer signs tokens for authenticated users.
type Issuer struct {
	keyFetcher keyfetcher.PrivateKeyFetcher
	issuer     string
	audience   string
	ttl        time.Duration
	now        func() time.Time
}

// NewIssuer creates a new token issuer.
func NewIssuer(config IssuerConfig) *Issuer {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Issuer{
		keyFetcher: config.KeyFetcher,
		issuer:     config.Issuer,
		audience:   config.Audience,
		ttl:        ttl,
		now:        time.Now,
	}
}

// IssueToken returns a signed token whose subject is the given user ID.
func (i *Issuer) IssueToken(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("subject cannot be empty")
	}

	privateKey, err := i.keyFetcher.FetchPrivateKey()
	if err != nil {
		return "", fmt.Errorf("failed to fetch private key: %w", err)
	}

	now := i.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    i.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	if i.audience != "" {
		claims.Audience = jwt.ClaimStrings{i.audience}
	}

	tokenString, err := jwt.NewWithClaims(signingMethod, claims).SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifierConfig holds configuration for token verification.
type VerifierConfig struct {
	KeyFetcher keyfetcher.PublicKeyFetcher
	Issuer     string
	Audience   string
	ClockSkew  time.Duration // Optional: defaults to DefaultClockSkewTolerance
}

// Verifier validates tokens produced by Issuer.
type Verifier struct {
	keyFetcher keyfetcher.PublicKeyFetcher
	parser     *jwt.Parser
}

// NewVerifier creates a new token verifier.
func NewVerifier(config VerifierConfig) *Verifier {
	clockSkew := config.ClockSkew
	if clockSkew <= 0 {
		clockSkew = DefaultClockSkewTolerance
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &Verifier{
		keyFetcher: config.KeyFetcher,
		parser:     jwt.NewParser(opts...),
	}
}

// Verify validates tokenString and returns its subject.
func (v *Verifier) Verify(tokenString string) (string, error) {
	publicKey, err := v.keyFetcher.FetchPublicKey()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrKeyUnavailable, err)
	}

	claims := new(jwt.RegisteredClaims)
	_, err = v.parser.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.Subject == "" {
		return "", errors.New("missing subject claim")
	}

	return claims.Subject, nil
}

package token

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKeyFetcher struct {
	privateKey *rsa.PrivateKey
	err        error
}

func (f *staticKeyFetcher) FetchPrivateKey() (*rsa.PrivateKey, error) {
	return f.privateKey, f.err
}

func (f *staticKeyFetcher) FetchPublicKey() (*rsa.PublicKey, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &f.privateKey.PublicKey, nil
}

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestNewIssuer_Defaults(t *testing.T) {
	issuer := NewIssuer(IssuerConfig{Issuer: "test-issuer"})
	assert.Equal(t, DefaultTTL, issuer.ttl)

	issuer = NewIssuer(IssuerConfig{TTL: time.Minute})
	assert.Equal(t, time.Minute, issuer.ttl)
}

func TestIssuer_IssueToken(t *testing.T) {
	key := generateTestKey(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	issuer := NewIssuer(IssuerConfig{
		KeyFetcher: &staticKeyFetcher{privateKey: key},
		Issuer:     "test-issuer",
		Audience:   "test-audience",
		TTL:        30 * time.Minute,
	})
	issuer.now = func() time.Time { return now }

	tokenString, err := issuer.IssueToken("user-1")
	require.NoError(t, err)

	claims := new(jwt.RegisteredClaims)
	_, _, err = jwt.NewParser().ParseUnverified(tokenString, claims)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"test-audience"}, claims.Audience)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestIssuer_IssueToken_Errors(t *testing.T) {
	cases := map[string]struct {
		subject     string
		keyError    error
		expectedErr string
	}{
		"should reject empty subject": {
			subject:     "",
			expectedErr: "subject cannot be empty",
		},
		"should return key fetch error": {
			subject:     "user-1",
			keyError:    errors.New("key fetch failed"),
			expectedErr: "failed to fetch private key: key fetch failed",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			issuer := NewIssuer(IssuerConfig{KeyFetcher: &staticKeyFetcher{err: tc.keyError}})
			token, err := issuer.IssueToken(tc.subject)
			assert.Empty(t, token)
			assert.EqualError(t, err, tc.expectedErr)
		})
	}
}

func TestVerifier_Verify(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	fetcher := &staticKeyFetcher{privateKey: key}

	newIssuer := func(issuerName, audience string, now time.Time, signingKey *rsa.PrivateKey) *Issuer {
		i := NewIssuer(IssuerConfig{
			KeyFetcher: &staticKeyFetcher{privateKey: signingKey},
			Issuer:     issuerName,
			Audience:   audience,
			TTL:        time.Hour,
		})
		i.now = func() time.Time { return now }
		return i
	}

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "test-issuer",
		Audience:  jwt.ClaimStrings{"test-audience"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]struct {
		token         func() string
		keyError      error
		expectedSub   string
		expectedError error
		expectError   bool
	}{
		"should accept valid token": {
			token: func() string {
				s, err := newIssuer("test-issuer", "test-audience", time.Now(), key).IssueToken("user-1")
				require.NoError(t, err)
				return s
			},
			expectedSub: "user-1",
		},
		"should accept token within clock skew": {
			token: func() string {
				s, err := newIssuer("test-issuer", "test-audience", time.Now().Add(2*time.Minute), key).IssueToken("user-1")
				require.NoError(t, err)
				return s
			},
			expectedSub: "user-1",
		},
		"should reject expired token": {
			token: func() string {
				s, err := newIssuer("test-issuer", "test-audience", time.Now().Add(-2*time.Hour), key).IssueToken("user-1")
				require.NoError(t, err)
				return s
			},
			expectedError: jwt.ErrTokenExpired,
			expectError:   true,
		},
		"should reject wrong issuer": {
			token: func() string {
				s, err := newIssuer("other-issuer", "test-audience", time.Now(), key).IssueToken("user-1")
				require.NoError(t, err)
				return s
			},
			expectedError: jwt.ErrTokenInvalidIssuer,
			expectError:   true,
		},
		"should reject wrong audience": {
			token: func() string {
				s, err := newIssuer("test-issuer", "other-audience", time.Now(), key).IssueToken("user-1")
				require.NoError(t, err)
				return s
			},
			expectedError: jwt.ErrTokenInvalidAudience,
			expectError:   true,
		},
		"should reject token signed by another key": {
			token: func() string {
				s, err := newIssuer("test-issuer", "test-audience", time.Now(), otherKey).IssueToken("user-1")
				require.NoError(t, err)
				return s
			},
			expectedError: jwt.ErrTokenSignatureInvalid,
			expectError:   true,
		},
		"should reject HMAC signed token": {
			token:         func() string { return hmacToken },
			expectedError: jwt.ErrTokenSignatureInvalid,
			expectError:   true,
		},
		"should reject malformed token": {
			token:         func() string { return "invalidtoken" },
			expectedError: jwt.ErrTokenMalformed,
			expectError:   true,
		},
		"should report unavailable key": {
			token:         func() string { return "invalidtoken" },
			keyError:      errors.New("key fetch failed"),
			expectedError: ErrKeyUnavailable,
			expectError:   true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := fetcher
			if tc.keyError != nil {
				f = &staticKeyFetcher{err: tc.keyError}
			}

			verifier := NewVerifier(VerifierConfig{
				KeyFetcher: f,
				Issuer:     "test-issuer",
				Audience:   "test-audience",
			})

			sub, err := verifier.Verify(tc.token())
			if tc.expectError {
				assert.Empty(t, sub)
				assert.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedSub, sub)
		})
	}
}

// Package auth issues and verifies access tokens, mints opaque refresh tokens
// and hashes passwords.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/conductor/internal/model"
)

var (
	// ErrTokenExpired is returned for a well-formed token past its exp.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenMalformed covers bad signatures, wrong algorithms and garbage input.
	ErrTokenMalformed = errors.New("token is invalid")
)

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string
	ID    string
	Exp   time.Time
}

// RefreshToken is an opaque random credential. Only Hash is persisted; Raw
// goes to the client in a cookie.
type RefreshToken struct {
	Raw  string
	Hash string
	Exp  time.Time
}

// Claims carried by every access token. Subject holds the user id and ID
// holds a fresh uuid per token.
type Claims struct {
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject.
func (c *Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// Config is everything the issuer needs. It is built from the application
// config at startup and injected; the issuer never reads the environment.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Issuer creates and verifies tokens.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer panics on an empty secret; a process without a signing key must
// not start.
func NewIssuer(cfg Config) *Issuer {
	if cfg.Secret == "" {
		panic("auth: empty signing secret")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        now,
	}
}

// RefreshTTL is the configured refresh lifetime, used for the cookie MaxAge.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccess builds and signs an HS256 JWT for u.
func (i *Issuer) IssueAccess(u model.User) (AccessToken, error) {
	now := i.now().UTC()
	exp := now.Add(i.accessTTL)
	jti := uuid.NewString()
	claims := Claims{
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatUint(u.ID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ID: jti, Exp: exp}, nil
}

// ParseAccess verifies signature and expiry. No storage lookup happens here.
func (i *Issuer) ParseAccess(raw string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !tok.Valid {
		return nil, ErrTokenMalformed
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// NewRefresh returns a random 96-char hex token and its expiry.
func (i *Issuer) NewRefresh() (RefreshToken, error) {
	raw, err := randomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw:  raw,
		Hash: HashRefreshRaw(raw),
		Exp:  i.now().UTC().Add(i.refreshTTL),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hex digest stored in place of the raw
// refresh token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

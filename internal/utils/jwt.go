package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prperemyshlev/risk-auth/internal/domain"
	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest process secret the codec accepts
const MinSecretLength = 32

const (
	signingKeyInfo    = "risk-auth/session/hs256"
	encryptionKeyInfo = "risk-auth/session/aes-256-gcm"
)

// sessionClaims is the JWT payload carried inside the encrypted cookie
type sessionClaims struct {
	UserID       int64           `json:"id"`
	Username     string          `json:"user"`
	Platform     domain.Platform `json:"platform"`
	AccessToken  string          `json:"token"`
	RefreshToken *string         `json:"refresh_token,omitempty"`
	jwt.RegisteredClaims
}

// ClaimsCodec turns session claims into a self-contained token and back.
// The token is an HS256 JWT sealed with AES-256-GCM, so it is both
// tamper-evident and opaque to the client. Both keys are derived from the
// single process secret.
type ClaimsCodec struct {
	signingKey []byte
	aead       cipher.AEAD
	now        func() time.Time
}

// NewClaimsCodec creates a codec keyed by the process secret
func NewClaimsCodec(secret string) (*ClaimsCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d characters long", MinSecretLength)
	}

	signingKey, err := deriveKey(secret, signingKeyInfo)
	if err != nil {
		return nil, err
	}

	encKey, err := deriveKey(secret, encryptionKeyInfo)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &ClaimsCodec{
		signingKey: signingKey,
		aead:       aead,
		now:        time.Now,
	}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return key, nil
}

// SetNow overrides the clock used for iat and expiry checks (for testing)
func (c *ClaimsCodec) SetNow(fn func() time.Time) {
	c.now = fn
}

// Encode signs and encrypts claims into a base64url token
func (c *ClaimsCodec) Encode(claims domain.Claims) (string, error) {
	if claims.ExpiresAt.IsZero() {
		return "", errors.New("claims must carry an expiry")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID:       claims.UserID,
		Username:     claims.Username,
		Platform:     claims.Platform,
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(c.now()),
		},
	})

	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// nonce || ciphertext+tag
	sealed := c.aead.Seal(nonce, nonce, []byte(signed), nil)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode decrypts and verifies a token. It returns domain.ErrClaimsExpired
// only for authentic tokens past their expiry; every other failure is
// domain.ErrClaimsInvalid.
func (c *ClaimsCodec) Decode(tokenString string) (*domain.Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(tokenString)
	if err != nil || len(raw) < c.aead.NonceSize() {
		return nil, domain.ErrClaimsInvalid
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, domain.ErrClaimsInvalid
	}

	var sc sessionClaims
	_, err = jwt.ParseWithClaims(string(plaintext), &sc,
		func(token *jwt.Token) (interface{}, error) {
			return c.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrClaimsExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrClaimsInvalid, err)
	}

	if sc.Username == "" {
		return nil, fmt.Errorf("%w: missing username", domain.ErrClaimsInvalid)
	}

	return &domain.Claims{
		UserID:       sc.UserID,
		Username:     sc.Username,
		Platform:     sc.Platform,
		AccessToken:  sc.AccessToken,
		RefreshToken: sc.RefreshToken,
		ExpiresAt:    sc.ExpiresAt.Time.UTC(),
	}, nil
}

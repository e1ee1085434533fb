// AngelaMos | 2026
// jwt.go

package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/webuzz/internal/config"
	"github.com/carterperez-dev/webuzz/internal/core"
)

// Token purposes. A token verifies only for the purpose it was issued for.
const (
	PurposeSession     = "session"
	PurposeConfirm     = "confirm"
	PurposeReset       = "reset"
	PurposeChangeEmail = "change_email"
)

type JWTManager struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	config     config.JWTConfig
	now        func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	privateKeyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return newJWTManager(privateKey, cfg)
}

// NewJWTManagerFromKey builds a manager around an in-memory key.
func NewJWTManagerFromKey(key *ecdsa.PrivateKey, cfg config.JWTConfig) (*JWTManager, error) {
	privateKey, err := jwk.Import(key)
	if err != nil {
		return nil, fmt.Errorf("import private key: %w", err)
	}
	return newJWTManager(privateKey, cfg)
}

func newJWTManager(privateKey jwk.Key, cfg config.JWTConfig) (*JWTManager, error) {
	if setErr := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	keyID := uuid.New().String()[:8]
	if setErr := privateKey.Set(jwk.KeyIDKey, keyID); setErr != nil {
		return nil, fmt.Errorf("set key id: %w", setErr)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	return &JWTManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		config:     cfg,
		now:        time.Now,
	}, nil
}

// GenerateKeyPair writes a fresh P-256 key pair as PEM files, creating the
// parent directories as needed.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	jwkPrivate, err := jwk.Import(privateKey)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	privatePEM, err := jwk.Pem(jwkPrivate)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}

	jwkPublic, err := jwkPrivate.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	publicPEM, err := jwk.Pem(jwkPublic)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	for _, p := range []string{privateKeyPath, publicKeyPath} {
		if mkErr := os.MkdirAll(filepath.Dir(p), 0o700); mkErr != nil {
			return fmt.Errorf("create key directory: %w", mkErr)
		}
	}

	if writeErr := os.WriteFile(privateKeyPath, privatePEM, 0o600); writeErr != nil {
		return fmt.Errorf("write private key: %w", writeErr)
	}

	//nolint:gosec // G306: public key is intentionally world-readable
	if writeErr := os.WriteFile(publicKeyPath, publicPEM, 0o644); writeErr != nil {
		return fmt.Errorf("write public key: %w", writeErr)
	}

	return nil
}

type SessionClaims struct {
	ID           string
	UserID       int64
	TokenVersion int
	Remember     bool
	ExpiresAt    time.Time
}

// IssueSession signs a session token. Remembered sessions live for
// remember_expire, others for session_expire.
func (m *JWTManager) IssueSession(userID int64, tokenVersion int, remember bool) (string, SessionClaims, error) {
	ttl := m.config.SessionExpire
	if remember {
		ttl = m.config.RememberExpire
	}

	claims := SessionClaims{
		ID:           uuid.New().String(),
		UserID:       userID,
		TokenVersion: tokenVersion,
		Remember:     remember,
		ExpiresAt:    m.now().Add(ttl).Truncate(time.Second),
	}

	signed, err := m.sign(PurposeSession, claims.ID, userID, claims.ExpiresAt, map[string]any{
		"token_version": tokenVersion,
		"remember":      remember,
	})
	if err != nil {
		return "", SessionClaims{}, err
	}

	return signed, claims, nil
}

func (m *JWTManager) VerifySession(tokenString string) (*SessionClaims, error) {
	token, userID, err := m.verify(tokenString, PurposeSession)
	if err != nil {
		return nil, err
	}

	var versionFloat float64
	if err := token.Get("token_version", &versionFloat); err != nil {
		return nil, fmt.Errorf(
			"verify session: missing token_version claim: %w",
			core.ErrTokenInvalid,
		)
	}

	jti, ok := token.JwtID()
	if !ok || jti == "" {
		return nil, fmt.Errorf("verify session: missing jti: %w", core.ErrTokenInvalid)
	}

	var remember bool
	//nolint:errcheck // absent means a browser-session cookie
	_ = token.Get("remember", &remember)

	exp, _ := token.Expiration()

	return &SessionClaims{
		ID:           jti,
		UserID:       userID,
		TokenVersion: int(versionFloat),
		Remember:     remember,
		ExpiresAt:    exp,
	}, nil
}

type ActionClaims struct {
	Purpose  string
	UserID   int64
	NewEmail string
}

// IssueAction signs a single-purpose account token such as an email
// confirmation link.
func (m *JWTManager) IssueAction(claims ActionClaims) (string, error) {
	extra := map[string]any{}
	if claims.NewEmail != "" {
		extra["new_email"] = claims.NewEmail
	}

	exp := m.now().Add(m.config.TokenExpire)
	return m.sign(claims.Purpose, uuid.New().String(), claims.UserID, exp, extra)
}

func (m *JWTManager) VerifyAction(tokenString, purpose string) (*ActionClaims, error) {
	token, userID, err := m.verify(tokenString, purpose)
	if err != nil {
		return nil, err
	}

	claims := &ActionClaims{Purpose: purpose, UserID: userID}
	if purpose == PurposeChangeEmail {
		if err := token.Get("new_email", &claims.NewEmail); err != nil || claims.NewEmail == "" {
			return nil, fmt.Errorf("verify token: missing new_email: %w", core.ErrTokenInvalid)
		}
	}

	return claims, nil
}

func (m *JWTManager) sign(
	purpose, jti string,
	userID int64,
	exp time.Time,
	extra map[string]any,
) (string, error) {
	now := m.now()

	builder := jwt.NewBuilder().
		JwtID(jti).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(strconv.FormatInt(userID, 10)).
		IssuedAt(now).
		Expiration(exp).
		NotBefore(now).
		Claim("type", purpose)
	for k, v := range extra {
		builder = builder.Claim(k, v)
	}

	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.privateKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

func (m *JWTManager) verify(tokenString, purpose string) (jwt.Token, int64, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, 0, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, 0, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil || tokenType != purpose {
		return nil, 0, fmt.Errorf(
			"verify token: invalid token type: %w",
			core.ErrTokenInvalid,
		)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, 0, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID < 1 {
		return nil, 0, fmt.Errorf("verify token: bad subject: %w", core.ErrTokenInvalid)
	}

	return token, userID, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, jwt.TokenExpiredError()) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}

func (m *JWTManager) GetKeyID() string {
	var kid string
	//nolint:errcheck // key ID always set during construction
	_ = m.privateKey.Get(jwk.KeyIDKey, &kid)
	return kid
}

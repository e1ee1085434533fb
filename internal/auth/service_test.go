// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/webuzz/internal/config"
	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

const userPerms = role.Follow | role.Comment | role.Write

type memUsers struct {
	mu     sync.Mutex
	byID   map[int64]*UserInfo
	nextID int64
	pings  int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]*UserInfo{}, nextID: 1}
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, core.ErrNotFound
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memUsers) Register(_ context.Context, email, username, hash string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &UserInfo{
		ID:           m.nextID,
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		RoleName:     role.NameUser,
		Permissions:  userPerms,
	}
	m.byID[u.ID] = u
	m.nextID++
	cp := *u
	return &cp, nil
}

func (m *memUsers) update(id int64, fn func(*UserInfo)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *memUsers) Confirm(_ context.Context, id int64) error {
	return m.update(id, func(u *UserInfo) { u.Confirmed = true })
}

func (m *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	return m.update(id, func(u *UserInfo) { u.PasswordHash = hash })
}

func (m *memUsers) IncrementTokenVersion(_ context.Context, id int64) error {
	return m.update(id, func(u *UserInfo) { u.TokenVersion++ })
}

func (m *memUsers) ChangeEmail(ctx context.Context, id int64, email string) error {
	if taken, _ := m.EmailExists(ctx, email); taken {
		return core.ErrEmailTaken
	}
	return m.update(id, func(u *UserInfo) { u.Email = email })
}

func (m *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

func (m *memUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Ping(_ context.Context, id int64) error {
	m.pings++
	return m.update(id, func(u *UserInfo) { u.LastSeen = time.Now() })
}

type memBlacklist struct {
	revoked map[string]time.Time
}

func (b *memBlacklist) Revoke(_ context.Context, jti string, until time.Time) error {
	b.revoked[jti] = until
	return nil
}

func (b *memBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := b.revoked[jti]
	return ok, nil
}

type sentMail struct {
	To, Subject, Template string
	Data                  map[string]any
}

type memMailer struct {
	sent []sentMail
}

func (m *memMailer) Send(to, subject, template string, data map[string]any) {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Template: template, Data: data})
}

func (m *memMailer) last(t *testing.T) sentMail {
	t.Helper()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

// token pulls the token out of the last mailed link.
func (m *memMailer) token(t *testing.T, prefix string) string {
	t.Helper()
	link, ok := m.last(t).Data["Link"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(link, prefix), link)
	return strings.TrimPrefix(link, prefix)
}

const origin = "http://blog.test"

type harness struct {
	svc       *Service
	jwt       *JWTManager
	users     *memUsers
	blacklist *memBlacklist
	mail      *memMailer
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SessionExpire:  time.Hour,
		RememberExpire: 365 * 24 * time.Hour,
		TokenExpire:    time.Hour,
		Issuer:         "webuzz",
		Audience:       "webuzz",
	}
}

func newJWT(t *testing.T) *JWTManager {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	m, err := NewJWTManagerFromKey(key, testJWTConfig())
	require.NoError(t, err)
	return m
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		jwt:       newJWT(t),
		users:     newMemUsers(),
		blacklist: &memBlacklist{revoked: map[string]time.Time{}},
		mail:      &memMailer{},
	}
	h.svc = NewService(h.jwt, h.users, h.blacklist, h.mail, "Webuzz")
	h.svc.passwords = core.NewPasswords(core.ArgonParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8})
	return h
}

func (h *harness) register(t *testing.T, email, username, password string) *UserInfo {
	t.Helper()
	u, err := h.svc.Register(context.Background(), RegisterInput{
		Email: email, Username: username, Password: password,
	}, origin)
	require.NoError(t, err)
	return u
}

func (h *harness) login(t *testing.T, email, password string, remember bool) (*Session, *role.Principal) {
	t.Helper()
	ctx := context.Background()
	sess, err := h.svc.Login(ctx, email, password, remember)
	require.NoError(t, err)
	p, err := h.svc.ResolveSession(ctx, sess.Token)
	require.NoError(t, err)
	return sess, p
}

func TestRegisterQueuesConfirmation(t *testing.T) {
	h := newHarness(t)

	u := h.register(t, "Alice@Example.com", "alice", "Secr3t!")
	assert.False(t, u.Confirmed)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "Secr3t!", u.PasswordHash)

	mail := h.mail.last(t)
	assert.Equal(t, "alice@example.com", mail.To)
	assert.Equal(t, "confirm", mail.Template)
	assert.Equal(t, "alice", mail.Data["Username"])
}

func TestRegisterDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice@example.com", "alice", "Secr3t!")

	_, err := h.svc.Register(ctx, RegisterInput{Email: "ALICE@example.com", Username: "other", Password: "x"}, origin)
	assert.ErrorIs(t, err, core.ErrEmailTaken)

	_, err = h.svc.Register(ctx, RegisterInput{Email: "new@example.com", Username: "alice", Password: "x"}, origin)
	assert.ErrorIs(t, err, core.ErrUsernameTaken)
}

func TestConfirmWithOwnToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice@example.com", "alice", "Secr3t!")
	token := h.mail.token(t, origin+"/auth/confirm/")

	_, p := h.login(t, "alice@example.com", "Secr3t!", false)
	ok, err := h.svc.Confirm(ctx, p, token)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := h.users.FindByID(ctx, p.UserID)
	require.NoError(t, err)
	assert.True(t, stored.Confirmed)
}

func TestConfirmRejectsOtherUsersToken(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "Secr3t!")
	aliceToken := h.mail.token(t, origin+"/auth/confirm/")
	h.register(t, "bob@example.com", "bob", "Secr3t!")

	_, bob := h.login(t, "bob@example.com", "Secr3t!", false)
	ok, err := h.svc.Confirm(context.Background(), bob, aliceToken)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.svc.Confirm(context.Background(), bob, "garbage")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice@example.com", "alice", "Secr3t!")

	_, err := h.svc.Login(ctx, "alice@example.com", "wrong", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = h.svc.Login(ctx, "nobody@example.com", "Secr3t!", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSessionLifetimes(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "Secr3t!")

	short, p := h.login(t, "alice@example.com", "Secr3t!", false)
	assert.False(t, p.Remember)
	assert.WithinDuration(t, time.Now().Add(time.Hour), short.ExpiresAt, time.Minute)

	long, p := h.login(t, "ALICE@example.com", "Secr3t!", true)
	assert.True(t, p.Remember)
	assert.True(t, long.ExpiresAt.After(time.Now().Add(300*24*time.Hour)))
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice@example.com", "alice", "Secr3t!")
	sess, p := h.login(t, "alice@example.com", "Secr3t!", false)

	require.NoError(t, h.svc.Logout(ctx, p))

	_, err := h.svc.ResolveSession(ctx, sess.Token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	assert.NoError(t, h.svc.Logout(ctx, nil))
}

func TestChangePasswordInvalidatesOtherSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice@example.com", "alice", "Secr3t!")

	other, _ := h.login(t, "alice@example.com", "Secr3t!", false)
	_, current := h.login(t, "alice@example.com", "Secr3t!", true)

	_, err := h.svc.ChangePassword(ctx, current, "wrong", "newpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	fresh, err := h.svc.ChangePassword(ctx, current, "Secr3t!", "newpass")
	require.NoError(t, err)
	assert.True(t, fresh.Remember)

	_, err = h.svc.ResolveSession(ctx, other.Token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	p, err := h.svc.ResolveSession(ctx, fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, current.UserID, p.UserID)

	_, err = h.svc.Login(ctx, "alice@example.com", "newpass", false)
	assert.NoError(t, err)
}

func TestPasswordReset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice@example.com", "alice", "Secr3t!")
	before := len(h.mail.sent)

	require.NoError(t, h.svc.RequestPasswordReset(ctx, "nobody@example.com", origin))
	assert.Len(t, h.mail.sent, before)

	require.NoError(t, h.svc.RequestPasswordReset(ctx, "alice@example.com", origin))
	assert.Equal(t, "reset_password", h.mail.last(t).Template)
	token := h.mail.token(t, origin+"/auth/reset/")

	assert.ErrorIs(t, h.svc.ResetPassword(ctx, "garbage", "newpass"), ErrInvalidLink)
	require.NoError(t, h.svc.ResetPassword(ctx, token, "newpass"))

	_, err := h.svc.Login(ctx, "alice@example.com", "newpass", false)
	assert.NoError(t, err)
}

func TestTokenPurposesDoNotMix(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "Secr3t!")
	confirmToken := h.mail.token(t, origin+"/auth/confirm/")

	assert.ErrorIs(t, h.svc.ResetPassword(context.Background(), confirmToken, "newpass"), ErrInvalidLink)

	_, err := h.svc.ResolveSession(context.Background(), confirmToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestEmailChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice@example.com", "alice", "Secr3t!")
	h.register(t, "bob@example.com", "bob", "Secr3t!")
	_, p := h.login(t, "alice@example.com", "Secr3t!", false)

	err := h.svc.RequestEmailChange(ctx, p, "new@example.com", "wrong", origin)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = h.svc.RequestEmailChange(ctx, p, "BOB@example.com", "Secr3t!", origin)
	assert.ErrorIs(t, err, core.ErrEmailTaken)

	require.NoError(t, h.svc.RequestEmailChange(ctx, p, "New@Example.com", "Secr3t!", origin))
	mail := h.mail.last(t)
	assert.Equal(t, "new@example.com", mail.To)
	token := h.mail.token(t, origin+"/auth/change_email/")

	_, bob := h.login(t, "bob@example.com", "Secr3t!", false)
	assert.ErrorIs(t, h.svc.ChangeEmail(ctx, bob, token), ErrInvalidLink)

	require.NoError(t, h.svc.ChangeEmail(ctx, p, token))
	stored, err := h.users.FindByID(ctx, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", stored.Email)
}

func TestResolveSessionPingsOncePerInterval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice@example.com", "alice", "Secr3t!")
	sess, _ := h.login(t, "alice@example.com", "Secr3t!", false)
	assert.Equal(t, 1, h.users.pings)

	_, err := h.svc.ResolveSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, h.users.pings)
}

func TestExpiredSession(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "Secr3t!")
	sess, err := h.svc.Login(context.Background(), "alice@example.com", "Secr3t!", false)
	require.NoError(t, err)

	h.jwt.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = h.svc.ResolveSession(context.Background(), sess.Token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrTokenRevoked)
}

package authcore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "authcore-test-secret-0123456789abcdef"
	testPassword = "CorrectHorse1!"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	engine *authcore.Engine
	users  *memory.UserStore
	roles  *memory.RoleStore
	clock  *testClock
}

type harnessOption func(*authcore.Config, *authcore.Builder)

func withConfig(mutate func(*authcore.Config)) harnessOption {
	return func(cfg *authcore.Config, _ *authcore.Builder) { mutate(cfg) }
}

func withLogger(logger *zap.Logger) harnessOption {
	return func(_ *authcore.Config, b *authcore.Builder) { b.WithLogger(logger) }
}

func withAuditSink(sink authcore.AuditSink) harnessOption {
	return func(cfg *authcore.Config, b *authcore.Builder) {
		cfg.Audit.Enabled = true
		b.WithAuditSink(sink)
	}
}

func withUserStore(store authcore.UserStore) harnessOption {
	return func(_ *authcore.Config, b *authcore.Builder) { b.WithUserStore(store) }
}

func withHasher(hasher authcore.Hasher) harnessOption {
	return func(_ *authcore.Config, b *authcore.Builder) { b.WithHasher(hasher) }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		users: memory.NewUserStore(),
		roles: memory.NewRoleStore(
			authcore.Role{Code: "ROLE_USER", Name: "User"},
			authcore.Role{Code: "ROLE_ADMIN", Name: "Administrator"},
		),
		clock: newTestClock(),
	}

	hasher, err := password.NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)

	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte(testSecret)

	b := authcore.New().
		WithUserStore(h.users).
		WithRoleStore(h.roles).
		WithHasher(hasher).
		WithClock(h.clock.Now)
	for _, opt := range opts {
		opt(&cfg, b)
	}
	b.WithConfig(cfg)

	h.engine, err = b.Build()
	require.NoError(t, err)
	t.Cleanup(h.engine.Close)
	return h
}

func (h *harness) register(t *testing.T, username string) authcore.TokenPair {
	t.Helper()
	pair, err := h.engine.Register(context.Background(), authcore.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	return pair
}

func (h *harness) user(t *testing.T, username string) authcore.User {
	t.Helper()
	u, err := h.users.FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return u
}

// wrongSecret returns a secret of the same length that differs from s.
func wrongSecret(s string) string {
	b := []byte(s)
	last := len(b) - 1
	if b[last] == '9' {
		b[last] = '0'
	} else {
		b[last]++
	}
	return string(b)
}

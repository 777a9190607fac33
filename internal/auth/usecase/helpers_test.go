package usecase

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gramconnect/gramconnect/internal/auth/entity"
	"github.com/gramconnect/gramconnect/internal/pkg/config"
	"github.com/gramconnect/gramconnect/internal/pkg/goerror"
	"github.com/gramconnect/gramconnect/internal/pkg/goroutine"
	"github.com/gramconnect/gramconnect/internal/pkg/instrument"
	"github.com/gramconnect/gramconnect/internal/pkg/jwt"
	"github.com/gramconnect/gramconnect/internal/pkg/mail"
	"github.com/gramconnect/gramconnect/internal/pkg/validator"
)

const testConfigYAML = `
modules:
  auth:
    otp_ttl_minutes: 5
    otp_max_attempts: 3
    otp_block_minutes: 15
    otp_resend_limit: 3
    expose_code: true
    sweep_retention_minutes: 60
`

type memDB struct {
	mu         sync.Mutex
	challenges map[string]entity.OtpChallenge
	byEmail    map[string]entity.User
	byPhone    map[string]entity.User
}

func newMemDB() *memDB {
	return &memDB{
		challenges: map[string]entity.OtpChallenge{},
		byEmail:    map[string]entity.User{},
		byPhone:    map[string]entity.User{},
	}
}

func lineageKey(identifier string, purpose entity.OtpPurpose) string {
	return identifier + "|" + purpose.String()
}

func (m *memDB) GetOtpChallenge(_ context.Context, identifier string, purpose entity.OtpPurpose) (*entity.OtpChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.challenges[lineageKey(identifier, purpose)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	out := ch
	return &out, nil
}

func (m *memDB) SaveOtpChallenge(_ context.Context, ch entity.OtpChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := lineageKey(ch.Identifier, ch.Purpose)
	cur, exists := m.challenges[key]

	if ch.Version == 1 {
		if exists {
			return goerror.ErrConflict
		}
		m.challenges[key] = ch
		return nil
	}

	if !exists || cur.Version != ch.Version-1 {
		return goerror.ErrConflict
	}
	m.challenges[key] = ch
	return nil
}

func (m *memDB) ConsumeOtpChallenge(_ context.Context, ch entity.OtpChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := lineageKey(ch.Identifier, ch.Purpose)
	cur, exists := m.challenges[key]
	if !exists || cur.Version != ch.Version {
		return goerror.ErrConflict
	}
	delete(m.challenges, key)
	return nil
}

func (m *memDB) PurgeExpiredOtpChallenges(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for key, ch := range m.challenges {
		if !ch.ExpiresAt.Before(before) {
			continue
		}
		if ch.BlockedUntil != nil && !ch.BlockedUntil.Before(before) {
			continue
		}
		delete(m.challenges, key)
		deleted++
	}
	return deleted, nil
}

func (m *memDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byEmail[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (m *memDB) GetUserByPhone(_ context.Context, phone string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byPhone[phone]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (m *memDB) addUser(u entity.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.Email != "" {
		m.byEmail[u.Email] = u
	}
	if u.Phone != "" {
		m.byPhone[u.Phone] = u
	}
}

type stubPublisher struct {
	mu     sync.Mutex
	events []VerifiedLoginEvent
}

func (p *stubPublisher) PublishVerifiedLogin(_ context.Context, msg VerifiedLoginEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, msg)
	return nil
}

func (p *stubPublisher) published() []VerifiedLoginEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]VerifiedLoginEvent(nil), p.events...)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	fail error
}

func (r *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingMailer) Close() error { return nil }

func (r *recordingMailer) messages() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]mail.Message(nil), r.sent...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type fakeCodes struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func (f *fakeCodes) Generate() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.next < len(f.codes) {
		code := f.codes[f.next]
		f.next++
		return code
	}
	return "000000"
}

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++
	return "id-" + strconv.Itoa(s.n)
}

type fakeJWT struct {
	err error
}

func (f *fakeJWT) Generate(subjectID string, role string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + subjectID + "-" + role, nil
}

func (f *fakeJWT) Verify(string) (jwt.Claims, error) {
	return jwt.Claims{}, nil
}

type testEnv struct {
	uc        *Usecase
	db        *memDB
	publisher *stubPublisher
	mailer    *recordingMailer
	clock     *fakeClock
	codes     *fakeCodes
	goroutine *goroutine.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("failed to build test config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	env := &testEnv{
		db:        newMemDB(),
		publisher: &stubPublisher{},
		mailer:    &recordingMailer{},
		clock:     &fakeClock{now: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)},
		codes:     &fakeCodes{codes: []string{"111111", "222222", "333333", "444444", "555555"}},
		goroutine: goroutine.NewManager(8),
	}

	env.uc = New(Dependency{
		RepoDB:        env.db,
		RepoMessaging: env.publisher,
		Mailer:        env.mailer,
		Validator:     v10,
		Config:        cfg,
		Codes:         env.codes,
		OID:           &seqID{},
		Clock:         env.clock,
		JWT:           &fakeJWT{},
		Instrument:    instrument.NewNoop(),
		Goroutine:     env.goroutine,
	})

	return env
}

// waitAsync drains the fire-and-forget work scheduled so far.
func (e *testEnv) waitAsync() {
	e.goroutine.Wait()
}

package loginguard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexb007/munaz-backend/internal/app/system/status"
	"github.com/alexb007/munaz-backend/internal/app/system/tokens"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// clock is a settable time source shared by the guard and the fake ledger.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeAccounts struct {
	mu      sync.Mutex
	users   map[primitive.ObjectID]*models.User
	findErr error
	// staleReads makes FindByUsername report every account as active, like a
	// lookup that ran before a concurrent lockout committed.
	staleReads bool
}

func (f *fakeAccounts) add(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeAccounts) get(id primitive.ObjectID) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[id]
}

func (f *fakeAccounts) FindByUsername(_ context.Context, username string) (*models.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, false, f.findErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			if f.staleReads {
				cp.Status = status.Active
			}
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeAccounts) SetStatus(_ context.Context, id primitive.ObjectID, st string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.Status = st
	return nil
}

func (f *fakeAccounts) LockIfActive(_ context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.Status != status.Active {
		return false, nil
	}
	u.Status = status.Disabled
	return true, nil
}

func (f *fakeAccounts) TouchFailedLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.LastFailedLoginAt = &at
	}
	return nil
}

type fakeLedger struct {
	mu        sync.Mutex
	clock     *clock
	records   []models.LoginAttempt
	recordErr error
	purgeErr  error
}

func (f *fakeLedger) add(rec models.LoginAttempt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
}

func (f *fakeLedger) all() []models.LoginAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LoginAttempt(nil), f.records...)
}

func (f *fakeLedger) Record(_ context.Context, userID *primitive.ObjectID, ip, ua string, successful bool) (models.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return models.LoginAttempt{}, f.recordErr
	}
	rec := models.LoginAttempt{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		IPAddress:  ip,
		UserAgent:  ua,
		Timestamp:  f.clock.Now(),
		Successful: successful,
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeLedger) count(userID primitive.ObjectID, match func(models.LoginAttempt) bool) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.records {
		if r.UserID != nil && *r.UserID == userID && match(r) {
			n++
		}
	}
	return n
}

func (f *fakeLedger) CountFailedSince(_ context.Context, userID primitive.ObjectID, since time.Time) (int64, error) {
	return f.count(userID, func(r models.LoginAttempt) bool {
		return !r.Successful && !r.Timestamp.Before(since)
	}), nil
}

func (f *fakeLedger) CountSince(_ context.Context, userID primitive.ObjectID, successful bool, since time.Time) (int64, error) {
	return f.count(userID, func(r models.LoginAttempt) bool {
		return r.Successful == successful && !r.Timestamp.Before(since)
	}), nil
}

func (f *fakeLedger) CountByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	return f.count(userID, func(models.LoginAttempt) bool { return true }), nil
}

func (f *fakeLedger) MostRecentSuccessful(_ context.Context, userID primitive.ObjectID) (*models.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.LoginAttempt
	for i := range f.records {
		r := f.records[i]
		if r.UserID == nil || *r.UserID != userID || !r.Successful {
			continue
		}
		if best == nil || r.Timestamp.After(best.Timestamp) {
			best = &r
		}
	}
	return best, nil
}

func (f *fakeLedger) PurgeFailedBefore(_ context.Context, userID primitive.ObjectID, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	kept := f.records[:0]
	var n int64
	for _, r := range f.records {
		if r.UserID != nil && *r.UserID == userID && !r.Successful && r.Timestamp.Before(before) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.records = kept
	return n, nil
}

// serialTx runs units of work one at a time, standing in for the write
// conflict that serializes concurrent Mongo transactions on one account.
type serialTx struct {
	mu    sync.Mutex
	calls int
}

func (s *serialTx) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return fn(ctx)
}

type faultVerifier struct{}

func (faultVerifier) Verify(*http.Request) (*models.User, string, error) {
	return nil, "", errors.New("user store unreachable")
}

const testPassword = "correct-horse-battery"

type harness struct {
	guard    *Guard
	accounts *fakeAccounts
	ledger   *fakeLedger
	tx       *serialTx
	clock    *clock
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	clk := &clock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	accounts := &fakeAccounts{users: map[primitive.ObjectID]*models.User{}}
	ledger := &fakeLedger{clock: clk}
	tx := &serialTx{}

	issuer := tokens.NewIssuer(tokens.Config{Secret: "guard-test-secret"})
	g := New(cfg, tokens.NewPasswordVerifier(issuer, accounts), accounts, ledger, tx, zap.NewNop())
	g.now = clk.Now

	return &harness{guard: g, accounts: accounts, ledger: ledger, tx: tx, clock: clk}
}

func (h *harness) addUser(t *testing.T, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleInspector,
		Status:       status.Active,
	}
	h.accounts.add(u)
	return u
}

func loginRequest(username, password, ip string) *http.Request {
	body := `{"username":"` + username + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/token/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "guard-test")
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	return req
}

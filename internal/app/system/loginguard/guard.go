// Package loginguard wraps a credential verifier with brute-force protection.
//
// Every attempt is written to the login attempt ledger. When an account
// collects Threshold failures inside the trailing Window (the current one
// included) it is disabled. A Guard holds no mutable state: lockout decisions
// are made from the ledger on each call, so one Guard is shared by all
// requests and any number of processes.
//
// A successful login does not clear earlier failures. They leave the trailing
// window on their own.
package loginguard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexb007/munaz-backend/internal/app/system/metrics"
	"github.com/alexb007/munaz-backend/internal/app/system/network"
	"github.com/alexb007/munaz-backend/internal/app/system/tokens"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Verifier is the underlying credential mechanism. A rejection is reported
// as a *tokens.VerificationError; any other error is treated as a fault.
type Verifier interface {
	Verify(r *http.Request) (*models.User, string, error)
}

// Accounts is the subset of the user store the guard needs.
type Accounts interface {
	FindByUsername(ctx context.Context, username string) (*models.User, bool, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, st string) error
	// LockIfActive disables the account only if it is active and reports
	// whether this call made the change.
	LockIfActive(ctx context.Context, id primitive.ObjectID) (bool, error)
	TouchFailedLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// Ledger is the subset of the login attempt store the guard needs.
type Ledger interface {
	Record(ctx context.Context, userID *primitive.ObjectID, ip, userAgent string, successful bool) (models.LoginAttempt, error)
	CountFailedSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (int64, error)
	CountSince(ctx context.Context, userID primitive.ObjectID, successful bool, since time.Time) (int64, error)
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MostRecentSuccessful(ctx context.Context, userID primitive.ObjectID) (*models.LoginAttempt, error)
	PurgeFailedBefore(ctx context.Context, userID primitive.ObjectID, before time.Time) (int64, error)
}

// Transactor runs fn atomically when the store supports it. fn may be
// re-run on transient conflicts.
type Transactor interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Auditor receives lockout transitions. *auditlog.Logger satisfies it.
type Auditor interface {
	AccountLocked(ctx context.Context, userID primitive.ObjectID, ip, userAgent string, failures int64)
}

// Result is a successful authentication.
type Result struct {
	User  *models.User
	Token string
}

// Guard authenticates requests through a Verifier and enforces lockout.
type Guard struct {
	cfg      Config
	verifier Verifier
	accounts Accounts
	ledger   Ledger
	tx       Transactor
	audit    Auditor
	log      *zap.Logger
	now      func() time.Time
}

// New builds a Guard. tx may be nil, in which case the failure path runs
// without a transaction (ledger append before the status update).
func New(cfg Config, v Verifier, accounts Accounts, ledger Ledger, tx Transactor, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{
		cfg:      cfg.withDefaults(),
		verifier: v,
		accounts: accounts,
		ledger:   ledger,
		tx:       tx,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetAuditor installs a receiver for lockout events. Call it before With so
// derived guards share it.
func (g *Guard) SetAuditor(a Auditor) {
	g.audit = a
}

// With returns a Guard sharing g's stores and config but verifying with v.
func (g *Guard) With(v Verifier) *Guard {
	cp := *g
	cp.verifier = v
	return &cp
}

// Config returns the effective configuration.
func (g *Guard) Config() Config { return g.cfg }

// Authenticate verifies r and records the attempt.
//
// It returns ErrInvalidCredentials or ErrAccountLocked on rejection and an
// error matching ErrPersistence when the stores fail.
func (g *Guard) Authenticate(r *http.Request) (*Result, error) {
	ctx := r.Context()
	ip := network.ClientIP(r)
	ua := r.UserAgent()
	claimed := ExtractUsername(r)

	user, token, err := g.verifier.Verify(r)
	if err == nil {
		if _, err := g.ledger.Record(ctx, &user.ID, ip, ua, true); err != nil {
			g.log.Error("failed to record successful login", zap.String("user_id", user.ID.Hex()), zap.String("ip", ip), zap.Error(err))
			metrics.ObserveLogin(metrics.OutcomeError)
			return nil, persistence("record success", err)
		}
		metrics.ObserveLogin(metrics.OutcomeSuccess)
		return &Result{User: user, Token: token}, nil
	}

	if !tokens.IsVerificationError(err) {
		g.log.Error("credential verification fault", zap.String("ip", ip), zap.Error(err))
		metrics.ObserveLogin(metrics.OutcomeError)
		return nil, persistence("verify", err)
	}

	if !claimed.Available() {
		g.log.Debug("authentication failed without username", zap.String("ip", ip), zap.Error(err))
		metrics.ObserveLogin(metrics.OutcomeNoUsername)
		return nil, ErrInvalidCredentials
	}

	return nil, g.fail(ctx, claimed, ip, ua, err)
}

// fail handles a rejected attempt with a claimed username.
func (g *Guard) fail(ctx context.Context, claimed ClaimedUsername, ip, ua string, cause error) error {
	u, found, err := g.accounts.FindByUsername(ctx, claimed.Name)
	if err != nil {
		g.log.Error("failed to resolve login username", zap.String("username", claimed.Name), zap.Error(err))
		metrics.ObserveLogin(metrics.OutcomeError)
		return persistence("find account", err)
	}

	if !found {
		g.log.Warn("failed login for unknown username",
			zap.String("username", claimed.Name),
			zap.String("ip", ip),
			zap.Stringer("source", claimed.Source))
		if g.cfg.RecordUnknownUsers {
			if _, err := g.ledger.Record(ctx, nil, ip, ua, false); err != nil {
				g.log.Error("failed to record account-less attempt", zap.String("ip", ip), zap.Error(err))
				metrics.ObserveLogin(metrics.OutcomeError)
				return persistence("record unknown", err)
			}
		}
		metrics.ObserveLogin(metrics.OutcomeUnknownUser)
		return ErrInvalidCredentials
	}

	var failures int64
	var locked, lockedNow bool
	err = g.runTx(ctx, func(ctx context.Context) error {
		failures, locked, lockedNow = 0, false, false
		at := g.now()
		if err := g.accounts.TouchFailedLogin(ctx, u.ID, at); err != nil {
			return err
		}
		if _, err := g.ledger.Record(ctx, &u.ID, ip, ua, false); err != nil {
			return err
		}
		n, err := g.ledger.CountFailedSince(ctx, u.ID, at.Add(-g.cfg.Window))
		if err != nil {
			return err
		}
		failures = n
		if n < int64(g.cfg.Threshold) {
			return nil
		}
		changed, err := g.accounts.LockIfActive(ctx, u.ID)
		if err != nil {
			return err
		}
		locked, lockedNow = true, changed
		return nil
	})
	if err != nil {
		g.log.Error("failed to record failed login", zap.String("username", u.Username), zap.String("ip", ip), zap.Error(err))
		metrics.ObserveLogin(metrics.OutcomeError)
		return persistence("record failure", err)
	}

	if locked {
		if lockedNow {
			metrics.AccountLockoutsTotal.Inc()
			if g.audit != nil {
				g.audit.AccountLocked(ctx, u.ID, ip, ua, failures)
			}
		}
		g.log.Warn("account locked after repeated failed logins",
			zap.String("username", u.Username),
			zap.String("user_id", u.ID.Hex()),
			zap.String("ip", ip),
			zap.Int64("failures", failures),
			zap.Duration("window", g.cfg.Window))
		metrics.ObserveLogin(metrics.OutcomeLocked)
		return ErrAccountLocked
	}

	g.log.Info("failed login",
		zap.String("username", u.Username),
		zap.String("ip", ip),
		zap.Int64("failures", failures),
		zap.String("reason", reason(cause)))
	metrics.ObserveLogin(metrics.OutcomeFailed)
	return ErrInvalidCredentials
}

func (g *Guard) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.tx == nil {
		return fn(ctx)
	}
	return g.tx.Run(ctx, fn)
}

func reason(err error) string {
	var ve *tokens.VerificationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return err.Error()
}

// Package txn runs multi-document MongoDB work atomically where the server
// allows it.
//
// Standalone servers (no replica set) reject transactions. In that case the
// work runs without one, which callers must be prepared to tolerate: the
// login guard, for example, relies on append-then-flag ordering as its
// fallback.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is the unit of work. ctx is a mongo.SessionContext when running in a
// transaction and must be passed to every collection call.
type Func func(ctx context.Context) error

// Runner binds a database and logger so callers can depend on a single Run method.
type Runner struct {
	db  *mongo.Database
	log *zap.Logger
}

// NewRunner returns a Runner for db. log may be nil.
func NewRunner(db *mongo.Database, log *zap.Logger) *Runner {
	return &Runner{db: db, log: log}
}

// Run executes fn in a transaction, falling back to a plain call when
// transactions are unsupported.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.db, r.log, fn)
}

// Run executes fn within a MongoDB transaction if possible.
// WithTransaction retries fn on transient errors such as write conflicts, so
// fn must be safe to re-run.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	session, err := db.Client().StartSession()
	if err != nil {
		if log != nil {
			log.Warn("failed to start session, running without transaction", zap.Error(err))
		}
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Warn("transactions not supported, running without transaction", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// IsNotSupported checks if an error indicates that transactions are not supported.
//
// Known error codes:
//   - 20: "Transaction numbers are only allowed on a replica set member or mongos"
//   - 51: IllegalOperation
//   - 263: operation not allowed in a multi-document transaction
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	keywords := []string{
		"transaction",
		"replica set",
		"session",
		"not supported",
		"illegal operation",
	}

	matches := 0
	for _, kw := range keywords {
		if strings.Contains(errStr, kw) {
			matches++
		}
	}

	// Two keywords keep unrelated errors that mention "session" from matching.
	return matches >= 2
}

// Package db provides PostgreSQL-backed repository implementations for the
// CourseHub backend. All repositories accept a DBTX interface that is
// satisfied by both *pgxpool.Pool (for normal queries) and pgx.Tx (for
// transactional execution), enabling clean transaction support.
//
// Schema summary:
//
//	users       (id TEXT PK, email TEXT, name TEXT, image_url TEXT,
//	             created_at, updated_at)
//	courses     (id TEXT PK, title, description, price_cents BIGINT,
//	             discount_percent INT, published BOOL, sections JSONB,
//	             created_at, updated_at)
//	purchases   (id UUID PK, user_id TEXT, course_id TEXT,
//	             amount_cents BIGINT, status TEXT, created_at, updated_at)
//	enrollments (course_id TEXT, user_id TEXT, enrolled_at,
//	             PRIMARY KEY (course_id, user_id))
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursehub/internal/config"
	"coursehub/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept this so the same code works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool creates a pgx connection pool from the database configuration and
// verifies connectivity with a ping. The caller owns the pool and must close
// it on shutdown.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// Registry is the pgx-backed implementation of types.RepositoryRegistry and
// types.TransactionManager. A pool-backed Registry executes queries directly
// on the pool; RunInTx produces a transaction-bound Registry whose
// repositories all share one pgx.Tx.
type Registry struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewRegistry creates a Registry backed by the given pool.
func NewRegistry(pool *pgxpool.Pool) *Registry {
	return &Registry{db: pool, pool: pool}
}

// Users returns the user repository bound to this registry's executor.
func (r *Registry) Users() types.UserRepository {
	return NewUserRepository(r.db)
}

// Courses returns the course repository bound to this registry's executor.
func (r *Registry) Courses() types.CourseRepository {
	return NewCourseRepository(r.db)
}

// Purchases returns the purchase repository bound to this registry's executor.
func (r *Registry) Purchases() types.PurchaseRepository {
	return NewPurchaseRepository(r.db)
}

// Enrollments returns the enrollment repository bound to this registry's executor.
func (r *Registry) Enrollments() types.EnrollmentRepository {
	return NewEnrollmentRepository(r.db)
}

// RunInTx executes fn inside a single database transaction. The registry
// passed to fn is bound to that transaction; returning an error rolls the
// whole transaction back.
//
// RunInTx must be called on a pool-backed registry; nesting transactions is
// not supported.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context, repos types.RepositoryRegistry) error) error {
	if r.pool == nil {
		return types.NewAppError(
			types.ErrCodeInternalDB,
			"RunInTx called on a transaction-bound registry",
			nil,
		)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to begin transaction", err)
	}
	// Rollback is a no-op after a successful commit.
	defer func() { _ = tx.Rollback(ctx) }()

	txRegistry := &Registry{db: tx}
	if err := fn(ctx, txRegistry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to commit transaction", err)
	}
	return nil
}

// Close releases the underlying connection pool. Satisfies the optional
// closer interface checked by core.Server.Shutdown.
func (r *Registry) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// Probe is the database health probe registered with the /health endpoint.
type Probe struct {
	pool *pgxpool.Pool
}

// NewProbe creates a health probe for the given pool.
func NewProbe(pool *pgxpool.Pool) *Probe {
	return &Probe{pool: pool}
}

// Name identifies the probe in health responses.
func (p *Probe) Name() string { return "database" }

// Check pings the database, respecting the context deadline.
func (p *Probe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

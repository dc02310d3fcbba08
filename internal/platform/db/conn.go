package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the part of pgx shared by pools and connections.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn returns the tenant connection bound to ctx by TenantMiddleware, or
// pool when the request did not pass through it.
func Conn(ctx context.Context, pool *pgxpool.Pool) Querier {
	if c := ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// Package db is the boundary to the database under test.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"
)

// Interactor executes statements on one connection.
type Interactor interface {
	// ExecuteUpdate runs a statement and returns the number of affected rows.
	// Driver failures are returned as *ExecutionError.
	ExecuteUpdate(ctx context.Context, sql string) (int64, error)
	// Duplicate returns an interactor bound to an independent connection.
	Duplicate(ctx context.Context) (Interactor, error)
	Close() error
}

// ExecutionError wraps a driver error raised by a statement.
type ExecutionError struct {
	SQL  string
	Code int
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %q: %v", e.SQL, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the vendor error number, or -1 when none is known.
func ErrorCode(err error) int {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Code
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return int(mysqlErr.Number)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return int(liteErr.ExtendedCode)
	}
	return -1
}

// Registry of supported database kinds mapped to database/sql driver names.
var drivers = map[string]string{
	"mysql":  "mysql",
	"tidb":   "mysql",
	"sqlite": "sqlite3",
}

// Kinds lists the registered database kinds.
func Kinds() []string {
	out := make([]string, 0, len(drivers))
	for k := range drivers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DB is an Interactor over a connection pool.
type DB struct {
	kind    string
	pool    *sql.DB
	timeout time.Duration
}

// Option configures a DB.
type Option func(*DB)

// WithStatementTimeout bounds every statement.
func WithStatementTimeout(d time.Duration) Option {
	return func(db *DB) {
		db.timeout = d
	}
}

// Open connects to a database of a registered kind.
func Open(kind string, dsn string, opts ...Option) (*DB, error) {
	driver, ok := drivers[strings.ToLower(kind)]
	if !ok {
		return nil, pkgerrors.Errorf("unsupported database kind %q (known: %s)", kind, strings.Join(Kinds(), ", "))
	}
	pool, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open %s", kind)
	}
	out := &DB{kind: strings.ToLower(kind), pool: pool}
	for _, opt := range opts {
		opt(out)
	}
	return out, nil
}

// Kind returns the registered kind.
func (d *DB) Kind() string {
	return d.kind
}

// Ping verifies the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}

// ExecuteUpdate runs a statement on any pooled connection.
func (d *DB) ExecuteUpdate(ctx context.Context, sqlText string) (int64, error) {
	qctx, cancel := d.withTimeout(ctx)
	defer cancel()
	res, err := d.pool.ExecContext(qctx, sqlText)
	return affected(sqlText, res, err)
}

// Duplicate pins a fresh connection from the pool.
func (d *DB) Duplicate(ctx context.Context) (Interactor, error) {
	conn, err := d.pool.Conn(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "duplicate connection")
	}
	return &Conn{parent: d, conn: conn}, nil
}

// Close closes the pool.
func (d *DB) Close() error {
	return d.pool.Close()
}

func (d *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

// Conn is an Interactor bound to one connection.
type Conn struct {
	parent *DB
	conn   *sql.Conn
}

// ExecuteUpdate runs a statement on the pinned connection.
func (c *Conn) ExecuteUpdate(ctx context.Context, sqlText string) (int64, error) {
	qctx, cancel := c.parent.withTimeout(ctx)
	defer cancel()
	res, err := c.conn.ExecContext(qctx, sqlText)
	return affected(sqlText, res, err)
}

// Duplicate pins another connection from the same pool.
func (c *Conn) Duplicate(ctx context.Context) (Interactor, error) {
	return c.parent.Duplicate(ctx)
}

// Close returns the connection to the pool.
func (c *Conn) Close() error {
	return c.conn.Close()
}

func affected(sqlText string, res sql.Result, err error) (int64, error) {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return 0, err
		}
		return 0, &ExecutionError{SQL: sqlText, Code: ErrorCode(err), Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "rows affected")
	}
	return n, nil
}

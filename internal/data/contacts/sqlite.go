package contacts

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `CREATE TABLE IF NOT EXISTS contacts (
	name    TEXT PRIMARY KEY,
	phone   TEXT NOT NULL UNIQUE,
	address TEXT NOT NULL
)`

// OpenDatabase opens the SQLite file at path. Write transactions take the
// database lock up front so concurrent writers wait on busyTimeout instead of
// failing mid-transaction.
func OpenDatabase(path string, busyTimeout time.Duration) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}

	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	params.Add("_txlock", "immediate")
	if path != ":memory:" {
		params.Add("_pragma", "journal_mode(WAL)")
	}

	db, err := sql.Open("sqlite", "file:"+path+"?"+params.Encode())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}
	// a single connection keeps ":memory:" databases coherent and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to connect to database %s", path)
	}
	return db, nil
}

// SQLiteRepository persists contacts using a SQLite database file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wires a SQLite-backed implementation of Repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db: db,
	}
}

// Bootstrap creates the contacts table when absent.
func (r *SQLiteRepository) Bootstrap(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return databaseError("bootstrap", "failed to create contacts table", err)
	}
	return nil
}

// List returns contacts whose fields contain filter as a case-sensitive substring.
func (r *SQLiteRepository) List(ctx context.Context, filter string) ([]Contact, error) {
	if filter == "" {
		return r.All(ctx)
	}
	// instr is case-sensitive and treats % and _ literally, unlike LIKE
	const query = `SELECT name, phone, address FROM contacts
		WHERE instr(name, ?) > 0 OR instr(phone, ?) > 0 OR instr(address, ?) > 0
		ORDER BY rowid`
	return r.query(ctx, "list", query, filter, filter, filter)
}

// All returns every contact in insertion order.
func (r *SQLiteRepository) All(ctx context.Context) ([]Contact, error) {
	return r.query(ctx, "all", `SELECT name, phone, address FROM contacts ORDER BY rowid`)
}

func (r *SQLiteRepository) query(ctx context.Context, op, query string, args ...interface{}) ([]Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, databaseError(op, "failed to query contacts", err)
	}
	defer rows.Close()

	result := make([]Contact, 0)
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.Name, &c.Phone, &c.Address); err != nil {
			return nil, databaseError(op, "failed to scan contact", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, databaseError(op, "failed to iterate contacts", err)
	}
	return result, nil
}

// Insert stores c. A phone collision is reported before a name collision.
func (r *SQLiteRepository) Insert(ctx context.Context, c Contact) error {
	const op = "insert"
	return r.inTx(ctx, op, func(tx *sql.Tx) error {
		taken, err := exists(ctx, tx, `SELECT 1 FROM contacts WHERE phone = ?`, c.Phone)
		if err != nil {
			return databaseError(op, "failed to check phone", err)
		}
		if taken {
			return duplicatePhoneError(op, c.Phone)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO contacts (name, phone, address) VALUES (?, ?, ?)`,
			c.Name, c.Phone, c.Address)
		if err != nil {
			return translateConstraint(op, err, c.Name, c.Phone)
		}
		return nil
	})
}

// Update changes the supplied fields of the contact called name.
func (r *SQLiteRepository) Update(ctx context.Context, name string, in UpdateInput) error {
	const op = "update"
	if in.Empty() {
		return noFieldsError(op, name)
	}

	return r.inTx(ctx, op, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM contacts WHERE name = ?`, name)
		if err != nil {
			return databaseError(op, "failed to look up contact", err)
		}
		if !found {
			return notFoundError(op, name)
		}

		var (
			sets []string
			args []interface{}
		)
		if in.Phone != "" {
			taken, err := exists(ctx, tx, `SELECT 1 FROM contacts WHERE phone = ? AND name != ?`, in.Phone, name)
			if err != nil {
				return databaseError(op, "failed to check phone", err)
			}
			if taken {
				return duplicatePhoneError(op, in.Phone)
			}
			sets = append(sets, "phone = ?")
			args = append(args, in.Phone)
		}
		if in.Address != "" {
			sets = append(sets, "address = ?")
			args = append(args, in.Address)
		}
		args = append(args, name)

		stmt := "UPDATE contacts SET " + strings.Join(sets, ", ") + " WHERE name = ?"
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return translateConstraint(op, err, name, in.Phone)
		}
		return nil
	})
}

// Delete removes the contact called name.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	const op = "delete"
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE name = ?`, name)
	if err != nil {
		return databaseError(op, "failed to delete contact", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return databaseError(op, "failed to read affected rows", err)
	}
	if n == 0 {
		return notFoundError(op, name)
	}
	return nil
}

// Count returns the number of stored contacts.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, databaseError("count", "failed to count contacts", err)
	}
	return n, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return databaseError(op, "failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return databaseError(op, "failed to commit transaction", err)
	}
	return nil
}

func exists(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// translateConstraint maps a storage-engine uniqueness violation onto the
// matching conflict error.
func translateConstraint(op string, err error, name, phone string) error {
	var sqliteErr *sqlite.Error
	if stderrors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "contacts.phone"):
			return duplicatePhoneError(op, phone)
		case strings.Contains(msg, "contacts.name"):
			return duplicateNameError(op, name)
		}
	}
	return databaseError(op, "failed to write contact", err)
}

var _ Repository = (*SQLiteRepository)(nil)

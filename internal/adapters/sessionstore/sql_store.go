package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/obs"
)

type queries struct {
	load   string
	upsert string
	delete string
	clear  string
}

var sqliteQueries = queries{
	load: `
	SELECT key, value
	FROM client_state
	WHERE namespace = ? AND key IN ('token', 'user');
	`,
	upsert: `
	INSERT OR REPLACE INTO client_state (namespace, key, value, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP);
	`,
	delete: `DELETE FROM client_state WHERE namespace = ? AND key = ?;`,
	clear:  `DELETE FROM client_state WHERE namespace = ? AND key IN ('token', 'user');`,
}

var postgresQueries = queries{
	load: `
	SELECT key, value
	FROM client_state
	WHERE namespace = $1 AND key IN ('token', 'user');
	`,
	upsert: `
	INSERT INTO client_state (namespace, key, value, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (namespace, key) DO UPDATE
	SET value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at;
	`,
	delete: `DELETE FROM client_state WHERE namespace = $1 AND key = $2;`,
	clear:  `DELETE FROM client_state WHERE namespace = $1 AND key IN ('token', 'user');`,
}

// SQLStore keeps the session in the client_state table.
type SQLStore struct {
	DB        *sql.DB
	Namespace string
	name      string
	q         queries
}

func NewSqliteStore(db *sql.DB, namespace string) *SQLStore {
	return &SQLStore{DB: db, Namespace: namespace, name: "sqlite", q: sqliteQueries}
}

func NewPostgresStore(db *sql.DB, namespace string) *SQLStore {
	return &SQLStore{DB: db, Namespace: namespace, name: "postgres", q: postgresQueries}
}

func (s *SQLStore) Load(ctx context.Context) (_ domain.Session, err error) {
	defer obs.Time(ctx, "session.store."+s.name+".Load")(&err)

	if s.DB == nil {
		return domain.Session{}, errors.New("session store: db is nil")
	}

	rows, err := s.DB.QueryContext(ctx, s.q.load, s.Namespace)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: query client_state table: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return domain.Session{}, fmt.Errorf("load session: scan rows: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return domain.Session{}, fmt.Errorf("load session: row iteration: %w", err)
	}

	return decodeSession(ctx, values[keyToken], values[keyUser]), nil
}

// Save writes both keys in one transaction. An empty token clears the session.
func (s *SQLStore) Save(ctx context.Context, sess domain.Session) (err error) {
	defer obs.Time(ctx, "session.store."+s.name+".Save")(&err)

	if s.DB == nil {
		return errors.New("session store: db is nil")
	}
	if sess.Token == "" {
		return s.Clear(ctx)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save session: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.q.upsert, s.Namespace, keyToken, sess.Token); err != nil {
		return fmt.Errorf("save session: write token: %w", err)
	}

	if sess.User != nil {
		userJSON, err := encodeUser(sess.User)
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q.upsert, s.Namespace, keyUser, userJSON); err != nil {
			return fmt.Errorf("save session: write user: %w", err)
		}
	} else if _, err := tx.ExecContext(ctx, s.q.delete, s.Namespace, keyUser); err != nil {
		return fmt.Errorf("save session: drop user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save session commit: %w", err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) (err error) {
	defer obs.Time(ctx, "session.store."+s.name+".Clear")(&err)

	if s.DB == nil {
		return errors.New("session store: db is nil")
	}
	if _, err := s.DB.ExecContext(ctx, s.q.clear, s.Namespace); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

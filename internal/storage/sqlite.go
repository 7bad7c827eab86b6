package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // registers the sqlite driver.

	"github.com/Sumatoshi-tech/prism/internal/record"
)

// Blob keys for store singletons.
const (
	blobCompanies = "companies"
	blobReleases  = "releases"
	blobRepos     = "repos"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS blobs (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		primary_key TEXT PRIMARY KEY,
		doc         BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		doc BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_keys (
		key TEXT PRIMARY KEY,
		seq INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_user_keys_seq ON user_keys(seq);
`

// sqlitePragmas tune the store for a single-writer batch workload. Pragmas
// apply per connection, so they ride on the DSN where every pooled
// connection picks them up.
const sqlitePragmas = "_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=busy_timeout(5000)"

func sqliteDSN(path string) string {
	return path + "?" + sqlitePragmas
}

// SQLiteStore is the production Store backed by a local SQLite database.
type SQLiteStore struct {
	conn   *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens or creates the store database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	_, schemaErr := conn.Exec(sqliteSchema)
	if schemaErr != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("initialize store schema: %w", schemaErr)
	}

	return &SQLiteStore{conn: conn, logger: logger}, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) getBlob(key string, target any) error {
	var value []byte

	row := s.conn.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key)

	err := row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("read blob %s: %w", key, err)
	}

	err = json.Unmarshal(value, target)
	if err != nil {
		return fmt.Errorf("decode blob %s: %w", key, err)
	}

	return nil
}

func (s *SQLiteStore) setBlob(key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode blob %s: %w", key, err)
	}

	_, err = s.conn.Exec(
		`INSERT INTO blobs(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, encoded,
	)
	if err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}

	return nil
}

// CompanyDomains implements Store.
func (s *SQLiteStore) CompanyDomains() (map[string]string, error) {
	domains := make(map[string]string)

	err := s.getBlob(blobCompanies, &domains)
	if err != nil {
		return nil, err
	}

	return domains, nil
}

// SetCompanyDomains implements Store.
func (s *SQLiteStore) SetCompanyDomains(domains map[string]string) error {
	return s.setBlob(blobCompanies, domains)
}

// Releases implements Store.
func (s *SQLiteStore) Releases() ([]record.Release, error) {
	var releases []record.Release

	err := s.getBlob(blobReleases, &releases)
	if err != nil {
		return nil, err
	}

	return releases, nil
}

// SetReleases implements Store.
func (s *SQLiteStore) SetReleases(releases []record.Release) error {
	return s.setBlob(blobReleases, releases)
}

// Repos implements Store.
func (s *SQLiteStore) Repos() ([]record.Repo, error) {
	var repos []record.Repo

	err := s.getBlob(blobRepos, &repos)
	if err != nil {
		return nil, err
	}

	return repos, nil
}

// SetRepos implements Store.
func (s *SQLiteStore) SetRepos(repos []record.Repo) error {
	return s.setBlob(blobRepos, repos)
}

// AllRecords implements Store. Upserts keep the original rowid, so rowid
// order is first-insert order, which pass ordering relies on.
func (s *SQLiteStore) AllRecords() RecordSeq {
	return func(yield func(*record.Record, error) bool) {
		rows, err := s.conn.Query(`SELECT doc FROM records ORDER BY rowid`)
		if err != nil {
			yield(nil, fmt.Errorf("scan records: %w", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var doc []byte

			scanErr := rows.Scan(&doc)
			if scanErr != nil {
				yield(nil, fmt.Errorf("scan record row: %w", scanErr))

				return
			}

			var r record.Record

			decodeErr := json.Unmarshal(doc, &r)
			if decodeErr != nil {
				yield(nil, fmt.Errorf("decode record: %w", decodeErr))

				return
			}

			if !yield(&r, nil) {
				return
			}
		}

		rowsErr := rows.Err()
		if rowsErr != nil {
			yield(nil, fmt.Errorf("scan records: %w", rowsErr))
		}
	}
}

// SetRecords implements Store.
func (s *SQLiteStore) SetRecords(records RecordSeq) error {
	for r, err := range records {
		if err != nil {
			return err
		}

		doc, encodeErr := json.Marshal(r)
		if encodeErr != nil {
			return fmt.Errorf("encode record %s: %w", r.PrimaryKey, encodeErr)
		}

		_, execErr := s.conn.Exec(
			`INSERT INTO records(primary_key, doc) VALUES(?, ?)
			 ON CONFLICT(primary_key) DO UPDATE SET doc = excluded.doc`,
			r.PrimaryKey, doc,
		)
		if execErr != nil {
			return fmt.Errorf("upsert record %s: %w", r.PrimaryKey, execErr)
		}
	}

	return nil
}

// AllUsers implements Store.
func (s *SQLiteStore) AllUsers() UserSeq {
	return func(yield func(*record.User, error) bool) {
		rows, err := s.conn.Query(`SELECT doc FROM users ORDER BY seq`)
		if err != nil {
			yield(nil, fmt.Errorf("scan users: %w", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var doc []byte

			scanErr := rows.Scan(&doc)
			if scanErr != nil {
				yield(nil, fmt.Errorf("scan user row: %w", scanErr))

				return
			}

			var u record.User

			decodeErr := json.Unmarshal(doc, &u)
			if decodeErr != nil {
				yield(nil, fmt.Errorf("decode user: %w", decodeErr))

				return
			}

			if !yield(&u, nil) {
				return
			}
		}

		rowsErr := rows.Err()
		if rowsErr != nil {
			yield(nil, fmt.Errorf("scan users: %w", rowsErr))
		}
	}
}

// LoadUser implements Store.
func (s *SQLiteStore) LoadUser(key string) (*record.User, error) {
	if key == "" {
		return nil, nil
	}

	var doc []byte

	row := s.conn.QueryRow(
		`SELECT users.doc FROM user_keys JOIN users ON users.seq = user_keys.seq
		 WHERE user_keys.key = ?`, key,
	)

	err := row.Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", key, err)
	}

	var u record.User

	decodeErr := json.Unmarshal(doc, &u)
	if decodeErr != nil {
		return nil, fmt.Errorf("decode user %s: %w", key, decodeErr)
	}

	return &u, nil
}

// StoreUser implements Store.
func (s *SQLiteStore) StoreUser(user *record.User) error {
	if user.Seq == 0 {
		seq, err := s.insertUser(user)
		if err != nil {
			return err
		}

		user.Seq = seq
	} else {
		err := s.updateUser(user)
		if err != nil {
			return err
		}
	}

	return s.indexUser(user)
}

func (s *SQLiteStore) insertUser(user *record.User) (int, error) {
	// Seq must be in the persisted document, so encode after a probe insert
	// assigns it.
	res, err := s.conn.Exec(`INSERT INTO users(doc) VALUES(x'')`)
	if err != nil {
		return 0, fmt.Errorf("insert user %s: %w", user.UserID, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert user %s: %w", user.UserID, err)
	}

	user.Seq = int(seq)

	doc, encodeErr := json.Marshal(user)
	if encodeErr != nil {
		return 0, fmt.Errorf("encode user %s: %w", user.UserID, encodeErr)
	}

	_, execErr := s.conn.Exec(`UPDATE users SET doc = ? WHERE seq = ?`, doc, seq)
	if execErr != nil {
		return 0, fmt.Errorf("store user %s: %w", user.UserID, execErr)
	}

	return int(seq), nil
}

func (s *SQLiteStore) updateUser(user *record.User) error {
	doc, encodeErr := json.Marshal(user)
	if encodeErr != nil {
		return fmt.Errorf("encode user %s: %w", user.UserID, encodeErr)
	}

	_, execErr := s.conn.Exec(
		`INSERT INTO users(seq, doc) VALUES(?, ?)
		 ON CONFLICT(seq) DO UPDATE SET doc = excluded.doc`,
		user.Seq, doc,
	)
	if execErr != nil {
		return fmt.Errorf("store user %s: %w", user.UserID, execErr)
	}

	return nil
}

func (s *SQLiteStore) indexUser(user *record.User) error {
	keys := make([]string, 0, len(user.Emails)+2)

	if user.UserID != "" {
		keys = append(keys, user.UserID)
	}

	if user.LdapID != "" {
		keys = append(keys, user.LdapID)
	}

	keys = append(keys, user.Emails...)

	for _, key := range keys {
		_, err := s.conn.Exec(
			`INSERT INTO user_keys(key, seq) VALUES(?, ?)
			 ON CONFLICT(key) DO UPDATE SET seq = excluded.seq`,
			key, user.Seq,
		)
		if err != nil {
			return fmt.Errorf("index user %s: %w", user.UserID, err)
		}
	}

	return nil
}

// DeleteUser implements Store.
func (s *SQLiteStore) DeleteUser(user *record.User) error {
	_, err := s.conn.Exec(`DELETE FROM user_keys WHERE seq = ?`, user.Seq)
	if err != nil {
		return fmt.Errorf("delete user keys %s: %w", user.UserID, err)
	}

	_, err = s.conn.Exec(`DELETE FROM users WHERE seq = ?`, user.Seq)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", user.UserID, err)
	}

	return nil
}

package cookiebridge

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go).
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cookies (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	value       TEXT NOT NULL,
	domain      TEXT NOT NULL,
	path        TEXT NOT NULL,
	expires_utc INTEGER NOT NULL DEFAULT 0,
	max_age     INTEGER,
	is_secure   INTEGER NOT NULL DEFAULT 0,
	is_httponly INTEGER NOT NULL DEFAULT 0,
	samesite    TEXT NOT NULL,
	UNIQUE (name, domain, path)
);
CREATE INDEX IF NOT EXISTS cookies_domain_path ON cookies (domain, path);
`

// SQLiteStore is a persistent, domain/path-indexed cookie jar backed by
// SQLite. It implements Store and is safe for concurrent use by multiple
// in-flight requests. Writes are last-write-wins per (name, domain, path);
// enumeration order is first-insertion order and survives value updates.
//
// The store owns browser-style admission only; it does no eviction or
// expiry sweeping.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) a jar database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := "file:" + filepath.ToSlash(path) + "?mode=rwc&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cookiebridge: open jar DB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cookiebridge: open jar DB: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cookiebridge: init jar schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// GetAllCookies enumerates the whole jar in insertion order.
func (s *SQLiteStore) GetAllCookies(ctx context.Context) ([]Cookie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value, domain, path, expires_utc, max_age, is_secure, is_httponly, samesite
		FROM cookies ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Cookie
	for rows.Next() {
		var c Cookie
		var expires int64
		var maxAge sql.NullInt64
		var secure, httpOnly int64
		var sameSite string
		if err := rows.Scan(&c.Name, &c.Value, &c.Domain, &c.Path, &expires, &maxAge, &secure, &httpOnly, &sameSite); err != nil {
			return nil, err
		}
		if expires != 0 {
			t := time.Unix(expires, 0).UTC()
			c.Expires = &t
		}
		if maxAge.Valid {
			v := maxAge.Int64
			c.MaxAge = &v
		}
		c.Secure = secure == 1
		c.HTTPOnly = httpOnly == 1
		c.SameSite = SameSite(sameSite)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetCookie parses raw and admits it for u under ssc, mirroring how a
// browser gates Set-Cookie from a response in that cross-origin context:
// a cross-site sub-resource context only admits SameSite=None cookies, and
// a Domain attribute must cover the request host. Refusals wrap
// ErrStoreWrite.
func (s *SQLiteStore) SetCookie(ctx context.Context, raw string, u *url.URL, ssc SameSiteContext) error {
	c, ok := parseSetCookie(raw)
	if !ok {
		return fmt.Errorf("%w: malformed cookie string", ErrStoreWrite)
	}

	host := normalizeHost(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: request URL has no host", ErrStoreWrite)
	}
	if c.Domain != "" && !hostMatchesCookieDomain(host, c.Domain) {
		return fmt.Errorf("%w: domain %q does not cover host %q", ErrStoreWrite, c.Domain, host)
	}
	if ssc == ContextNone && c.SameSite != SameSiteNone {
		return fmt.Errorf("%w: SameSite=%s cookie in a cross-site sub-resource context", ErrStoreWrite, c.SameSite)
	}

	// Domain is never empty at storage time.
	domain := c.Domain
	if domain == "" {
		domain = host
	}
	path := normalizePath(c.Path)

	var expires int64
	if c.Expires != nil {
		expires = c.Expires.Unix()
	}
	var maxAge sql.NullInt64
	if c.MaxAge != nil {
		maxAge = sql.NullInt64{Int64: *c.MaxAge, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cookies (name, value, domain, path, expires_utc, max_age, is_secure, is_httponly, samesite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name, domain, path) DO UPDATE SET
			value = excluded.value,
			expires_utc = excluded.expires_utc,
			max_age = excluded.max_age,
			is_secure = excluded.is_secure,
			is_httponly = excluded.is_httponly,
			samesite = excluded.samesite`,
		c.Name, c.Value, domain, path, expires, maxAge, boolToInt(c.Secure), boolToInt(c.HTTPOnly), string(c.SameSite))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

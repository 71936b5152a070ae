package cookiebridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

// envSafeStoragePassword overrides keyring lookup for deterministic
// tooling/CI runs.
const envSafeStoragePassword = "COOKIEBRIDGE_SAFE_STORAGE_PASSWORD"

// ImportOptions configures seeding the jar from a Chromium-family profile.
type ImportOptions struct {
	// CookiesDB is the path to the profile's Cookies SQLite database.
	// Required; profile discovery belongs to the caller.
	CookiesDB string

	// Hosts limits the import to cookies covering these hosts (plus their
	// registrable parent domains). Empty imports everything.
	Hosts []string

	// SafeStoragePassword skips keyring lookup when set. The
	// COOKIEBRIDGE_SAFE_STORAGE_PASSWORD environment variable takes
	// precedence over both.
	SafeStoragePassword string

	// KeyringService and KeyringAccount locate the Safe Storage entry.
	// Defaults: "Chrome Safe Storage" / "Chrome".
	KeyringService string
	KeyringAccount string

	// AESKey is an optional raw 32-byte key tried for AES-256-GCM v10
	// values (databases keyed on Windows).
	AESKey []byte
}

// ImportResult reports what a profile import did.
type ImportResult struct {
	Imported int
	Skipped  int
	Warnings []string
}

// ImportChromiumCookies reads a Chromium profile's cookie database and
// replays every row into store through the normal admission pipeline, under
// a strict context (the browser's own jar is trusted as same-site). The
// source database is snapshot-copied first so a running browser is never
// touched. Per-row failures are warnings; only an unreadable database is an
// error.
func ImportChromiumCookies(ctx context.Context, store Store, opts ImportOptions) (ImportResult, error) {
	var res ImportResult
	if opts.CookiesDB == "" {
		return res, errors.New("cookiebridge: ImportOptions.CookiesDB is required")
	}

	snap, cleanup, err := snapshotCookiesDB(opts.CookiesDB)
	if err != nil {
		return res, fmt.Errorf("cookiebridge: snapshot %s: %w", opts.CookiesDB, err)
	}
	defer cleanup()

	db, err := openSQLiteReadOnly(ctx, snap)
	if err != nil {
		return res, fmt.Errorf("cookiebridge: open %s: %w", opts.CookiesDB, err)
	}
	defer func() { _ = db.Close() }()

	metaVersion := chromiumMetaVersion(ctx, db)
	rows, err := chromiumReadRows(ctx, db, opts.Hosts)
	if err != nil {
		return res, fmt.Errorf("cookiebridge: read %s: %w", opts.CookiesDB, err)
	}

	password, warnings := safeStoragePassword(opts)
	res.Warnings = append(res.Warnings, warnings...)
	decrypt := newChromiumDecryptor(password, opts.AESKey)

	for _, row := range rows {
		c, ok := chromiumRowToCookie(row, metaVersion, decrypt)
		if !ok {
			res.Skipped++
			continue
		}
		host := normalizeHost(c.Domain)
		u := &url.URL{Scheme: "https", Host: host}
		if err := store.SetCookie(ctx, setCookieString(c), u, ContextStrict); err != nil {
			res.Skipped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("cookiebridge: import %q for %s: %v", c.Name, host, err))
			continue
		}
		res.Imported++
	}
	return res, nil
}

func safeStoragePassword(opts ImportOptions) (string, []string) {
	if override := strings.TrimSpace(os.Getenv(envSafeStoragePassword)); override != "" {
		return override, nil
	}
	if opts.SafeStoragePassword != "" {
		return opts.SafeStoragePassword, nil
	}

	service := opts.KeyringService
	if service == "" {
		service = "Chrome Safe Storage"
	}
	account := opts.KeyringAccount
	if account == "" {
		account = "Chrome"
	}
	pw, err := keyring.Get(service, account)
	if err != nil {
		return "", []string{fmt.Sprintf("cookiebridge: Safe Storage password unavailable (%v); v11 values may stay encrypted", err)}
	}
	return strings.TrimSpace(pw), nil
}

type chromiumRow struct {
	hostKey        string
	name           string
	path           string
	value          string
	encryptedValue []byte
	expiresUTC     int64
	isSecure       bool
	isHTTPOnly     bool
	sameSite       int64
}

func chromiumMetaVersion(ctx context.Context, db *sql.DB) int64 {
	var value string
	if err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&value); err != nil {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func chromiumReadRows(ctx context.Context, db *sql.DB, hosts []string) ([]chromiumRow, error) {
	where, args := chromiumHostWhereClause(hosts)
	query := `SELECT host_key, name, path, value, encrypted_value, expires_utc, is_secure, is_httponly, samesite
		FROM cookies WHERE (` + where + `) ORDER BY creation_utc`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []chromiumRow
	for rows.Next() {
		var r chromiumRow
		var expires, secure, httpOnly, sameSite sql.NullInt64
		if err := rows.Scan(&r.hostKey, &r.name, &r.path, &r.value, &r.encryptedValue, &expires, &secure, &httpOnly, &sameSite); err != nil {
			return nil, err
		}
		r.expiresUTC = expires.Int64
		r.isSecure = secure.Valid && secure.Int64 == 1
		r.isHTTPOnly = httpOnly.Valid && httpOnly.Int64 == 1
		r.sameSite = sameSite.Int64
		out = append(out, r)
	}
	return out, rows.Err()
}

func chromiumHostWhereClause(hosts []string) (string, []any) {
	if len(hosts) == 0 {
		return "1=1", nil
	}
	var clauses []string
	var args []any
	for _, host := range hosts {
		host = normalizeHost(host)
		if host == "" {
			continue
		}
		clauses = append(clauses, "host_key = ?", "host_key = ?", "host_key LIKE ?")
		args = append(args, host, "."+host, "%."+host)
	}
	if len(clauses) == 0 {
		return "1=0", nil
	}
	return strings.Join(clauses, " OR "), args
}

func chromiumRowToCookie(row chromiumRow, metaVersion int64, decrypt chromiumValueDecryptor) (Cookie, bool) {
	if row.name == "" || row.hostKey == "" {
		return Cookie{}, false
	}

	value := row.value
	if value == "" && len(row.encryptedValue) > 0 {
		plain, ok := decrypt(row.encryptedValue, metaVersion)
		if !ok {
			return Cookie{}, false
		}
		if decoded, ok := chromiumDecodeValue(plain); ok {
			value = decoded
		}
	}
	if value == "" {
		return Cookie{}, false
	}

	c := Cookie{
		Name:     row.name,
		Value:    value,
		Domain:   normalizeHost(row.hostKey),
		Path:     normalizePath(row.path),
		Secure:   row.isSecure,
		HTTPOnly: row.isHTTPOnly,
		SameSite: chromiumSameSiteFromInt(row.sameSite),
	}
	if t, ok := chromiumExpiresToTime(row.expiresUTC); ok {
		c.Expires = &t
	}
	return c, true
}

// Chromium's samesite column: -1 unspecified, 0 none, 1 lax, 2 strict.
// Unspecified maps to Lax, the same correction parseSetCookie applies.
func chromiumSameSiteFromInt(v int64) SameSite {
	switch v {
	case 2:
		return SameSiteStrict
	case 0:
		return SameSiteNone
	default:
		return SameSiteLax
	}
}

func chromiumExpiresToTime(expiresUTC int64) (time.Time, bool) {
	// Chromium stores times as microseconds since 1601-01-01 UTC.
	const unixEpochDiffMicros = int64(11644473600000000)
	unixMicros := expiresUTC - unixEpochDiffMicros
	if unixMicros <= 0 {
		return time.Time{}, false
	}
	return time.Unix(0, unixMicros*1000).UTC(), true
}

// snapshotCookiesDB copies the database (and WAL/SHM sidecars, which may
// hold recent writes) into a temp dir so the live browser's store is read
// without locking it.
func snapshotCookiesDB(dbPath string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "cookiebridge-chromium-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	target := filepath.Join(dir, "Cookies")
	if err := copyFile(dbPath, target); err != nil {
		cleanup()
		return "", nil, err
	}
	_ = copyFileIfExists(dbPath+"-wal", target+"-wal")
	_ = copyFileIfExists(dbPath+"-shm", target+"-shm")

	return target, cleanup, nil
}

func openSQLiteReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path)+"?mode=ro")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func copyFileIfExists(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return copyFile(src, dst)
}

package cookiebridge

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"database/sql"
	"net/url"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "jar.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// fakeStore is an in-memory Store with injectable failures and call counts.
type fakeStore struct {
	cookies  []Cookie
	readErr  error
	writeErr error
	reads    int
	writes   int
}

func (f *fakeStore) GetAllCookies(_ context.Context) ([]Cookie, error) {
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]Cookie, len(f.cookies))
	copy(out, f.cookies)
	return out, nil
}

func (f *fakeStore) SetCookie(_ context.Context, raw string, u *url.URL, _ SameSiteContext) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	c, ok := parseSetCookie(raw)
	if !ok {
		return ErrStoreWrite
	}
	if c.Domain == "" {
		c.Domain = normalizeHost(u.Hostname())
	}
	c.Path = normalizePath(c.Path)
	f.cookies = append(f.cookies, c)
	return nil
}

func openTestSQLite(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path)+"?mode=rwc")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func pkcs7Pad(t *testing.T, b []byte) []byte {
	t.Helper()
	paddingLen := aes.BlockSize - (len(b) % aes.BlockSize)
	if paddingLen == 0 {
		paddingLen = aes.BlockSize
	}
	out := make([]byte, 0, len(b)+paddingLen)
	out = append(out, b...)
	for i := 0; i < paddingLen; i++ {
		out = append(out, byte(paddingLen))
	}
	return out
}

func encryptAESCBCForTest(t *testing.T, prefix string, key []byte, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	padded := pkcs7Pad(t, plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, []byte(chromiumAESCBCIV)).CryptBlocks(ciphertext, padded)
	return append([]byte(prefix), ciphertext...)
}

func encryptAESGCMForTest(t *testing.T, prefix string, key []byte, nonce []byte, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		t.Fatal(err)
	}
	sealed := aesgcm.Seal(nil, nonce, plaintext, nil)
	out := append([]byte(prefix), nonce...)
	return append(out, sealed...)
}

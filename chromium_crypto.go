package cookiebridge

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1" //nolint:gosec // Chromium Safe Storage uses PBKDF2-SHA1 ("saltysalt").
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

const (
	chromiumAESCBCSalt       = "saltysalt"
	chromiumAESCBCIV         = "                " // 16 spaces
	chromiumAESCBCKeyLen     = 16
	chromiumIterationsLinux  = 1
	chromiumIterationsDarwin = 1003
)

// chromiumValueDecryptor decrypts one encrypted_value column entry.
// metaVersion controls hash-prefix stripping for newer schema versions.
type chromiumValueDecryptor func(encrypted []byte, metaVersion int64) ([]byte, bool)

// newChromiumDecryptor builds a decryptor for v10/v11 encrypted values.
// password is the Safe Storage password (empty is valid: some setups encrypt
// with an empty password). aesKey, when non-nil, is a raw 32-byte key tried
// for AES-256-GCM v10 payloads (Windows-keyed databases).
func newChromiumDecryptor(password string, aesKey []byte) chromiumValueDecryptor {
	// Iteration count differs per OS; try both rather than guessing the
	// platform the profile came from.
	v10Keys := [][]byte{
		chromiumDeriveKey("peanuts", chromiumIterationsLinux),
		chromiumDeriveKey("peanuts", chromiumIterationsDarwin),
		chromiumDeriveKey("", chromiumIterationsLinux),
	}
	v11Keys := [][]byte{
		chromiumDeriveKey(password, chromiumIterationsLinux),
		chromiumDeriveKey(password, chromiumIterationsDarwin),
		chromiumDeriveKey("", chromiumIterationsLinux),
	}

	return func(encrypted []byte, metaVersion int64) ([]byte, bool) {
		if len(encrypted) < 3 {
			return nil, false
		}
		switch string(encrypted[:3]) {
		case "v10":
			if len(aesKey) > 0 {
				if plain, err := chromiumDecryptAES256GCM(encrypted, aesKey, metaVersion); err == nil {
					return plain, true
				}
			}
			return tryChromiumCBCKeys(encrypted, v10Keys, metaVersion)
		case "v11":
			return tryChromiumCBCKeys(encrypted, v11Keys, metaVersion)
		default:
			return nil, false
		}
	}
}

func tryChromiumCBCKeys(encrypted []byte, keys [][]byte, metaVersion int64) ([]byte, bool) {
	for _, key := range keys {
		if plain, err := chromiumDecryptAESCBC(encrypted, key, metaVersion); err == nil {
			return plain, true
		}
	}
	return nil, false
}

func chromiumDeriveKey(password string, iterations int) []byte {
	return pbkdf2.Key([]byte(password), []byte(chromiumAESCBCSalt), iterations, chromiumAESCBCKeyLen, sha1.New)
}

func chromiumDecryptAESCBC(encrypted []byte, key []byte, metaVersion int64) ([]byte, error) {
	if len(encrypted) <= 3 {
		return nil, fmt.Errorf("encrypted value too short (%d<=3)", len(encrypted))
	}
	ciphertext := encrypted[3:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("cipher input not full blocks")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, []byte(chromiumAESCBCIV)).CryptBlocks(out, ciphertext)

	out, err = removePKCS7Padding(out)
	if err != nil {
		return nil, err
	}
	return chromiumStripHashPrefix(out, metaVersion), nil
}

func chromiumDecryptAES256GCM(encrypted []byte, key []byte, metaVersion int64) ([]byte, error) {
	if len(encrypted) < 3+12+16 {
		return nil, errors.New("encrypted value too short")
	}
	payload := encrypted[3:]
	nonce := payload[:12]
	ciphertextAndTag := payload[12:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	plain, err := aesgcm.Open(nil, nonce, ciphertextAndTag, nil)
	if err != nil {
		return nil, err
	}
	return chromiumStripHashPrefix(plain, metaVersion), nil
}

// Schema 24+ prefixes the plaintext with a 32-byte SHA-256 of the host key.
func chromiumStripHashPrefix(plain []byte, metaVersion int64) []byte {
	if metaVersion >= 24 && len(plain) >= 32 {
		return plain[32:]
	}
	return plain
}

func removePKCS7Padding(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return b, nil
	}
	paddingLen := int(b[len(b)-1])
	if paddingLen <= 0 || paddingLen > aes.BlockSize || paddingLen > len(b) {
		return nil, fmt.Errorf("invalid padding length: %d", paddingLen)
	}
	for _, p := range b[len(b)-paddingLen:] {
		if int(p) != paddingLen {
			return nil, errors.New("invalid padding bytes")
		}
	}
	return b[:len(b)-paddingLen], nil
}

func chromiumDecodeValue(b []byte) (string, bool) {
	i := 0
	for i < len(b) && b[i] < 0x20 {
		i++
	}
	b = bytes.Clone(b[i:])
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

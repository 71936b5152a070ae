package cookiebridge

import (
	"fmt"
	"os"

	"github.com/go-ini/ini"
)

// Config holds harness settings read from an INI file:
//
//	[jar]
//	path = /var/lib/proxy/cookies.db
//
//	[chromium]
//	cookies_db = /home/me/.config/chromium/Default/Cookies
//	safe_storage_password = peanuts
//
//	[debug]
//	enabled = true
type Config struct {
	JarPath             string
	ChromiumCookiesDB   string
	SafeStoragePassword string
	Debug               bool
}

// DefaultConfig is what LoadConfig returns for a missing file.
func DefaultConfig() Config {
	return Config{JarPath: "cookies.db"}
}

// LoadConfig reads harness configuration from an INI file. A missing file
// yields defaults; a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("cookiebridge: load config %q: %w", path, err)
	}

	jar := f.Section("jar")
	if v := jar.Key("path").String(); v != "" {
		cfg.JarPath = v
	}

	chromium := f.Section("chromium")
	cfg.ChromiumCookiesDB = chromium.Key("cookies_db").String()
	cfg.SafeStoragePassword = chromium.Key("safe_storage_password").String()

	cfg.Debug = f.Section("debug").Key("enabled").MustBool(false)

	return cfg, nil
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/xtding233/gacha-scout/internal/card/remote"
)

// Settings is the scoutctl configuration file.
type Settings struct {
	DefaultBox string `toml:"default_box"`
	CacheDir   string `toml:"cache_dir"`
	DBPath     string `toml:"db_path"`
	APIURL     string `toml:"api_url"`
	RatesDir   string `toml:"rates_dir"`
}

func xdgDir(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// SettingsPath returns $XDG_CONFIG_HOME/gacha-scout/config.toml.
func SettingsPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "gacha-scout", "config.toml")
}

func DefaultSettings() Settings {
	return Settings{
		DefaultBox: "honour",
		CacheDir:   filepath.Join(xdgDir("XDG_CACHE_HOME", ".cache"), "gacha-scout", "thumbnails"),
		DBPath:     filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "gacha-scout", "cards.db"),
		APIURL:     remote.DefaultBaseURL,
	}
}

// LoadSettings reads the settings file, writing the defaults first if it
// does not exist yet. Keys missing from the file keep their defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, writeSettings(path, s)
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}

func writeSettings(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

package misc

import (
	"fmt"
	"os"
	"path/filepath"
)

const APP_NAME = "difubot"

const DefaultPort = "3000"

var dataDir string

// DataDir returns the bot's data directory, resolving it on first use so
// that environment overrides loaded from .env are honoured. Defaults to
// the user config dir (e.g. ~/.config/difubot) and is created on demand.
func DataDir() string {
	if dataDir == "" {
		dataDir = resolveDataDir()
	}
	return dataDir
}

// GetSQLiteAddress returns the DSN for a SQLite database stored inside
// the bot's data directory.
func GetSQLiteAddress(dbName string) string {
	path := filepath.Join(DataDir(), dbName)
	return fmt.Sprintf("file:%s?_foreign_keys=on", path)
}

// Port returns the HTTP listen port, taken from the PORT environment
// variable when set.
func Port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return DefaultPort
}

func resolveDataDir() string {
	if dir := os.Getenv("DIFUBOT_DATA_DIR"); dir != "" {
		mustMkdir(dir)
		return dir
	}
	cdr, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	cdr = filepath.Join(cdr, APP_NAME)
	mustMkdir(cdr)
	return cdr
}

func mustMkdir(name string) {
	if !dirExists(name) {
		if err := os.MkdirAll(name, os.ModePerm); err != nil {
			panic(err)
		}
	}
}

func dirExists(name string) bool {
	_, err := os.ReadDir(name)
	return !os.IsNotExist(err)
}

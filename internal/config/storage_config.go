package config

import (
	"os"
	"path/filepath"
)

type StorageConfig interface {
	GetTokenStore() string
	GetTokenFile() string
	GetTokenPassphrase() string
	GetRedisAddr() string
	GetRedisDB() int
	GetRedisKey() string
}

type Storage struct{ source }

var _ StorageConfig = Storage{}

// GetTokenStore selects the durable token store: file, redis or memory.
func (s Storage) GetTokenStore() string {
	return s.get("TOKEN_STORE", "file")
}

func (s Storage) GetTokenFile() string {
	return s.get("TOKEN_FILE", defaultTokenFile())
}

// GetTokenPassphrase enables at-rest encryption of the token file when set.
func (s Storage) GetTokenPassphrase() string {
	return s.get("TOKEN_PASSPHRASE", "")
}

func (s Storage) GetRedisAddr() string {
	return s.get("REDIS_ADDR", "")
}

func (s Storage) GetRedisDB() int {
	return s.integer("REDIS_DB", 0)
}

func (s Storage) GetRedisKey() string {
	return s.get("REDIS_KEY", "loghealer:tokens")
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "loghealer", "tokens.json")
}

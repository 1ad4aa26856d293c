package config

import (
	"os"
	"strconv"
	"time"
)

const (
	appNameVar  = "APP_NAME"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"
)

// source resolves a setting from the environment, then the config file.
type source struct {
	file map[string]string
}

func (s source) get(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	if value, ok := s.file[name]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s source) duration(name string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s.get(name, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

func (s source) integer(name string, defaultValue int) int {
	n, err := strconv.Atoi(s.get(name, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

type EnvVars struct{ source }

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "LogHealer")
}

func (e EnvVars) GetEnv() string {
	return e.get(envVar, "DEV")
}

func (e EnvVars) GetLogLevel() string {
	return e.get(logLevelVar, "info")
}

// GetEnv returns the environment variable or the default when unset.
func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

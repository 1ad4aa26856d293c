package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/jrsteele09/loghealer-client/internal/errors"
	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	OAuthConfig
	StorageConfig
	APIConfig
	ServerConfig
	Validate() error
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	OAuth
	Storage
	API
	Server
}

// New builds a Config from the environment. A non-empty path names a YAML file
// whose keys are the environment variable names (case-insensitive); values in
// the environment take precedence over the file.
func New(path string) (Config, error) {
	src := source{file: map[string]string{}}
	if path != "" {
		values, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		src.file = values
	}

	c := mainConfig{
		EnvVars: EnvVars{src},
		OAuth:   OAuth{src},
		Storage: Storage{src},
		API:     API{src},
		Server:  Server{src},
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config loadFile] read %s: %w", path, err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("[config loadFile] parse %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

// snapshot is the validated view of the resolved configuration.
type snapshot struct {
	AuthServer     string        `validate:"required,url"`
	LoginURL       string        `validate:"required,url"`
	ClientID       string        `validate:"required"`
	RedirectURI    string        `validate:"required,url"`
	APIURL         string        `validate:"required,url"`
	TokenStore     string        `validate:"oneof=file redis memory"`
	RedisAddr      string        `validate:"required_if=TokenStore redis"`
	RequestTimeout time.Duration `validate:"gt=0"`
	PollInterval   time.Duration `validate:"gt=0"`
}

func (c mainConfig) Validate() error {
	s := snapshot{
		AuthServer:     c.GetAuthServer(),
		LoginURL:       c.GetLoginURL(),
		ClientID:       c.GetClientID(),
		RedirectURI:    c.GetRedirectURI(),
		APIURL:         c.GetAPIURL(),
		TokenStore:     c.GetTokenStore(),
		RedisAddr:      c.GetRedisAddr(),
		RequestTimeout: c.GetRequestTimeout(),
		PollInterval:   c.GetAgentPollInterval(),
	}
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("[config Validate] %w: %v", apperrors.ErrInvalidConfig, err)
	}
	return nil
}

// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv("LARDER_CONFIG_JSON")

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to merge config from environment")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// Defaults applied by validate for unset optional values.
const (
	DefaultUserClaim   = "email"
	DefaultNameClaim   = "name"
	DefaultGroupsClaim = "groups"

	// DefaultTokenExpiry is the access token lifetime in minutes.
	DefaultTokenExpiry = 24 * 60
	// DefaultTokenRememberExpiry is the "remember me" token lifetime in minutes.
	DefaultTokenRememberExpiry = 14 * 24 * 60

	defaultShutdownTime = 5 // seconds
)

// validate checks the minimal settings the service can not run without
// and fills in defaults for the rest.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutdownTime
	}

	if c.Auth.Token.Secret == "" {
		return errors.Wrap(ErrTokenSecretEmpty, invalidErrMessage)
	}

	if c.Auth.Token.Issuer == "" {
		c.Auth.Token.Issuer = "larder"
	}

	if c.Auth.Token.Expiry == 0 {
		c.Auth.Token.Expiry = DefaultTokenExpiry
	}

	if c.Auth.Token.RememberExpiry == 0 {
		c.Auth.Token.RememberExpiry = DefaultTokenRememberExpiry
	}

	// Identity providers rarely agree on claim names, so the lookup
	// claims are configurable with the common defaults.
	if c.Auth.OIDC.UserClaim == "" {
		c.Auth.OIDC.UserClaim = DefaultUserClaim
	}

	if c.Auth.OIDC.NameClaim == "" {
		c.Auth.OIDC.NameClaim = DefaultNameClaim
	}

	if c.Auth.OIDC.GroupsClaim == "" {
		c.Auth.OIDC.GroupsClaim = DefaultGroupsClaim
	}

	if c.Auth.OIDC.Enabled && c.Auth.OIDC.ProviderURL == "" {
		return errors.Wrap(ErrOIDCProviderURLEmpty, invalidErrMessage)
	}

	return nil
}

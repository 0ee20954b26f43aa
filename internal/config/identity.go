package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrMissingConfiguration is returned when the network identity or the
// profile handle has not been provided.
var ErrMissingConfiguration = errors.New("missing configuration")

// Identity holds the target network and the profile handle. It lives in
// secrets.yaml next to settings.json and can be overridden with TIMELINE_*
// environment variables. On a desktop host the network is already managed by
// the OS: any active interface satisfies WifiSSID, and "*" matches anything.
type Identity struct {
	WifiSSID       string `mapstructure:"wifi_ssid"`
	WifiPassword   string `mapstructure:"wifi_password"`
	GitHubUsername string `mapstructure:"github_username"`
}

var identityKeys = []string{"wifi_ssid", "wifi_password", "github_username"}

// GetSecretsPath returns the default secrets file location.
func GetSecretsPath() string {
	return filepath.Join(GetAppDir(), "secrets.yaml")
}

// LoadIdentity reads secrets.yaml from the app dir (or the working directory)
// and applies environment overrides. A missing file is not an error; an
// incomplete identity is reported by Validate.
func LoadIdentity() (*Identity, error) {
	v := viper.New()
	v.SetConfigName("secrets")
	v.SetConfigType("yaml")
	v.AddConfigPath(GetAppDir())
	v.AddConfigPath(".")
	return readIdentity(v)
}

// LoadIdentityFrom reads an explicit secrets file.
func LoadIdentityFrom(path string) (*Identity, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return readIdentity(v)
}

func readIdentity(v *viper.Viper) (*Identity, error) {
	v.SetEnvPrefix("TIMELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range identityKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading secrets file: %w", err)
		}
	}

	id := &Identity{}
	if err := v.Unmarshal(id); err != nil {
		return nil, fmt.Errorf("error parsing secrets: %w", err)
	}
	id.WifiSSID = strings.TrimSpace(id.WifiSSID)
	id.GitHubUsername = strings.TrimSpace(id.GitHubUsername)
	return id, nil
}

// Validate reports ErrMissingConfiguration when the network or handle is unset.
func (id *Identity) Validate() error {
	if id == nil {
		return ErrMissingConfiguration
	}
	if id.WifiSSID == "" {
		return fmt.Errorf("%w: wifi_ssid", ErrMissingConfiguration)
	}
	if id.GitHubUsername == "" {
		return fmt.Errorf("%w: github_username", ErrMissingConfiguration)
	}
	return nil
}

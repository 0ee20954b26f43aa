package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General GeneralSettings `json:"general"`
	Network NetworkSettings `json:"network"`
	Fetch   FetchSettings   `json:"fetch"`
	Display DisplaySettings `json:"display"`
}

// GeneralSettings contains application behavior settings.
type GeneralSettings struct {
	CacheDir string `json:"cache_dir"`
	DebugLog bool   `json:"debug_log"`
	Theme    int    `json:"theme"`
}

const (
	ThemeAdaptive = 0
	ThemeLight    = 1
	ThemeDark     = 2
)

// NetworkSettings contains connectivity and HTTP parameters.
type NetworkSettings struct {
	LinkTimeout         time.Duration `json:"link_timeout"`
	OpenTimeout         time.Duration `json:"open_timeout"`
	ProbeAddress        string        `json:"probe_address"`
	UserAgent           string        `json:"user_agent"`
	ProxyURL            string        `json:"proxy_url"`
	SkipTLSVerification bool          `json:"skip_tls_verification"`
}

// FetchSettings contains the transfer chunk size and the remote locators.
type FetchSettings struct {
	ChunkSize        int    `json:"chunk_size"`
	DetailsURL       string `json:"details_url"`
	ContributionsURL string `json:"contributions_url"`
	AvatarURL        string `json:"avatar_url"`
}

// DisplaySettings contains driver loop and grid parameters.
type DisplaySettings struct {
	Weeks        int           `json:"weeks"`
	TickInterval time.Duration `json:"tick_interval"`
}

// SettingMeta provides metadata for a single setting (for help rendering).
type SettingMeta struct {
	Key         string // JSON key name
	Label       string // Human-readable label
	Description string // Help text
	Type        string // "string", "int", "bool", "duration"
}

// GetSettingsMetadata returns metadata for all settings organized by category.
func GetSettingsMetadata() map[string][]SettingMeta {
	return map[string][]SettingMeta{
		"General": {
			{Key: "cache_dir", Label: "Cache Dir", Description: "Directory holding the fetched profile, contributions and avatar. Leave empty for the default.", Type: "string"},
			{Key: "debug_log", Label: "Debug Log", Description: "Write a debug.log file to the state directory.", Type: "bool"},
			{Key: "theme", Label: "App Theme", Description: "UI Theme (System, Light, Dark).", Type: "int"},
		},
		"Network": {
			{Key: "link_timeout", Label: "Link Timeout", Description: "Give up joining the network after this long (e.g., 60s).", Type: "duration"},
			{Key: "open_timeout", Label: "Open Timeout", Description: "Budget for connecting to a resource and receiving its headers (e.g., 5s).", Type: "duration"},
			{Key: "probe_address", Label: "Probe Address", Description: "host:port dialed to confirm the link is up.", Type: "string"},
			{Key: "user_agent", Label: "User Agent", Description: "Custom User-Agent for HTTP requests. Leave empty for default.", Type: "string"},
			{Key: "proxy_url", Label: "Proxy URL", Description: "HTTP or SOCKS5 proxy URL. Leave empty to use the environment.", Type: "string"},
			{Key: "skip_tls_verification", Label: "Skip TLS Verify", Description: "Disable certificate verification.", Type: "bool"},
		},
		"Fetch": {
			{Key: "chunk_size", Label: "Chunk Size", Description: "Bytes transferred per tick (e.g., 512).", Type: "int"},
			{Key: "details_url", Label: "Details URL", Description: "Profile details locator, {user} is the handle.", Type: "string"},
			{Key: "contributions_url", Label: "Contributions URL", Description: "Activity history locator, {user} is the handle.", Type: "string"},
			{Key: "avatar_url", Label: "Avatar URL", Description: "Avatar image locator, {user} is the handle.", Type: "string"},
		},
		"Display": {
			{Key: "weeks", Label: "Weeks", Description: "Columns of the activity grid.", Type: "int"},
			{Key: "tick_interval", Label: "Tick Interval", Description: "Driver loop period (e.g., 50ms).", Type: "duration"},
		},
	}
}

// CategoryOrder returns the order of categories for help output.
func CategoryOrder() []string {
	return []string{"General", "Network", "Fetch", "Display"}
}

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			CacheDir: "", // Empty means GetDefaultCacheDir
			DebugLog: false,
			Theme:    ThemeAdaptive,
		},
		Network: NetworkSettings{
			LinkTimeout:  60 * time.Second,
			OpenTimeout:  5 * time.Second,
			ProbeAddress: "api.github.com:443",
			UserAgent:    "", // Empty means use default UA
		},
		Fetch: FetchSettings{
			ChunkSize:        512,
			DetailsURL:       "https://api.github.com/users/{user}",
			ContributionsURL: "https://github.com/{user}.contribs",
			AvatarURL:        "https://wsrv.nl/?url=https://github.com/{user}.png&w=75&output=png",
		},
		Display: DisplaySettings{
			Weeks:        53,
			TickInterval: 50 * time.Millisecond,
		},
	}
}

// CacheDir returns the configured cache directory or the default one.
func (s *Settings) CacheDir() string {
	if s.General.CacheDir != "" {
		return s.General.CacheDir
	}
	return GetDefaultCacheDir()
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetAppDir(), "settings.json")
}

// LoadSettings loads settings from disk. Returns defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFrom(GetSettingsPath())
}

// LoadSettingsFrom loads settings from path, filling missing fields with defaults.
func LoadSettingsFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings() // Start with defaults to fill any missing fields
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// SaveSettings saves settings to disk atomically.
func SaveSettings(s *Settings) error {
	return SaveSettingsTo(GetSettingsPath(), s)
}

// SaveSettingsTo writes settings to path via a temp file and rename.
func SaveSettingsTo(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

// RuntimeConfig is the flattened view of Settings handed to the engine.
type RuntimeConfig struct {
	ChunkSize           int
	UserAgent           string
	ProxyURL            string
	SkipTLSVerification bool
	LinkTimeout         time.Duration
	OpenTimeout         time.Duration
	ProbeAddress        string
	Weeks               int
	DetailsURL          string
	ContributionsURL    string
	AvatarURL           string
}

// ToRuntimeConfig creates a RuntimeConfig from user Settings
func (s *Settings) ToRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		ChunkSize:           s.Fetch.ChunkSize,
		UserAgent:           s.Network.UserAgent,
		ProxyURL:            s.Network.ProxyURL,
		SkipTLSVerification: s.Network.SkipTLSVerification,
		LinkTimeout:         s.Network.LinkTimeout,
		OpenTimeout:         s.Network.OpenTimeout,
		ProbeAddress:        s.Network.ProbeAddress,
		Weeks:               s.Display.Weeks,
		DetailsURL:          s.Fetch.DetailsURL,
		ContributionsURL:    s.Fetch.ContributionsURL,
		AvatarURL:           s.Fetch.AvatarURL,
	}
}

package types

import (
	"time"
)

// Size constants
const (
	KB = 1024
	MB = 1024 * KB

	// IncompleteSuffix is appended to cache files while a fetch is in flight
	IncompleteSuffix = ".part"
)

// Transfer constants
const (
	ChunkSize    = 512 // Bytes read per fetch step
	MaxChunkSize = 64 * KB
)

// Connectivity constants
const (
	LinkTimeout       = 60 * time.Second // Overall budget to join the network
	ProbeAddress      = "api.github.com:443"
	ProbeDialTimeout  = 2 * time.Second
	AnyNetwork        = "*" // Wildcard target, also reported by radios that cannot list network names
	DefaultWeeks      = 53
	DaysPerWeek       = 7
	MaxLevel          = 4
	DefaultTickPeriod = 50 * time.Millisecond
)

// HTTP Client Tuning
const (
	DefaultResponseHeaderTimeout = 15 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DialTimeout                  = 10 * time.Second
	DefaultOpenTimeout           = 5 * time.Second // Whole open (dial, TLS, headers) on the tick path
)

// Default remote locators, {user} is replaced by the identity handle
const (
	DefaultDetailsURL       = "https://api.github.com/users/{user}"
	DefaultContributionsURL = "https://github.com/{user}.contribs"
	DefaultAvatarURL        = "https://wsrv.nl/?url=https://github.com/{user}.png&w=75&output=png"
)

// Cache file names, one per resource
const (
	DetailsFile       = "user_data.json"
	ContributionsFile = "contrib_data.json"
	AvatarFile        = "avatar.png"
)

// RuntimeConfig holds dynamic settings that can override defaults
type RuntimeConfig struct {
	ChunkSize           int
	UserAgent           string
	ProxyURL            string
	SkipTLSVerification bool

	LinkTimeout  time.Duration
	OpenTimeout  time.Duration
	ProbeAddress string

	Weeks int

	DetailsURL       string
	ContributionsURL string
	AvatarURL        string
}

// Version is reported in the default User-Agent product token
var Version = "dev"

// UserAgentProduct is the product name of the default User-Agent
const UserAgentProduct = "timeline"

// CustomUserAgent returns the configured user agent, empty for the default
func (r *RuntimeConfig) CustomUserAgent() string {
	if r == nil {
		return ""
	}
	return r.UserAgent
}

// GetChunkSize returns configured value or default, capped at MaxChunkSize
func (r *RuntimeConfig) GetChunkSize() int {
	if r == nil || r.ChunkSize <= 0 {
		return ChunkSize
	}
	if r.ChunkSize > MaxChunkSize {
		return MaxChunkSize
	}
	return r.ChunkSize
}

// GetLinkTimeout returns configured value or default
func (r *RuntimeConfig) GetLinkTimeout() time.Duration {
	if r == nil || r.LinkTimeout <= 0 {
		return LinkTimeout
	}
	return r.LinkTimeout
}

// GetOpenTimeout returns configured value or default
func (r *RuntimeConfig) GetOpenTimeout() time.Duration {
	if r == nil || r.OpenTimeout <= 0 {
		return DefaultOpenTimeout
	}
	return r.OpenTimeout
}

// GetProbeAddress returns configured value or default
func (r *RuntimeConfig) GetProbeAddress() string {
	if r == nil || r.ProbeAddress == "" {
		return ProbeAddress
	}
	return r.ProbeAddress
}

// GetWeeks returns configured value or default
func (r *RuntimeConfig) GetWeeks() int {
	if r == nil || r.Weeks <= 0 {
		return DefaultWeeks
	}
	return r.Weeks
}

func (r *RuntimeConfig) GetDetailsURL() string {
	if r == nil || r.DetailsURL == "" {
		return DefaultDetailsURL
	}
	return r.DetailsURL
}

func (r *RuntimeConfig) GetContributionsURL() string {
	if r == nil || r.ContributionsURL == "" {
		return DefaultContributionsURL
	}
	return r.ContributionsURL
}

func (r *RuntimeConfig) GetAvatarURL() string {
	if r == nil || r.AvatarURL == "" {
		return DefaultAvatarURL
	}
	return r.AvatarURL
}

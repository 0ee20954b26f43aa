package types

import "github.com/timeline-badge/timeline/internal/config"

// ConvertRuntimeConfig converts the app-level RuntimeConfig to the engine-level RuntimeConfig.
func ConvertRuntimeConfig(rc *config.RuntimeConfig) *RuntimeConfig {
	return &RuntimeConfig{
		ChunkSize:           rc.ChunkSize,
		UserAgent:           rc.UserAgent,
		ProxyURL:            rc.ProxyURL,
		SkipTLSVerification: rc.SkipTLSVerification,
		LinkTimeout:         rc.LinkTimeout,
		OpenTimeout:         rc.OpenTimeout,
		ProbeAddress:        rc.ProbeAddress,
		Weeks:               rc.Weeks,
		DetailsURL:          rc.DetailsURL,
		ContributionsURL:    rc.ContributionsURL,
		AvatarURL:           rc.AvatarURL,
	}
}

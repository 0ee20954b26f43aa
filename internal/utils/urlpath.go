package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// UserPlaceholder is substituted with the profile handle in locator templates
const UserPlaceholder = "{user}"

// ExpandLocator fills {user} in a locator template and checks that the result
// is an absolute http(s) URL.
// Example: https://api.github.com/users/{user} -> https://api.github.com/users/octocat
func ExpandLocator(template, handle string) (string, error) {
	if handle == "" {
		return "", fmt.Errorf("empty handle for %s", template)
	}

	expanded := strings.ReplaceAll(template, UserPlaceholder, url.PathEscape(handle))

	parsed, err := url.Parse(expanded)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %s", parsed.Scheme, expanded)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host in %s", expanded)
	}

	return expanded, nil
}

// ProfileURL returns the public profile page for a handle
func ProfileURL(handle string) string {
	return "https://github.com/" + url.PathEscape(handle)
}

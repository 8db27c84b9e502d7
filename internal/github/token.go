package github

import (
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// Environment variables consulted for a token, in order.
const (
	EnvGHToken     = "GH_TOKEN"
	EnvGitHubToken = "GITHUB_TOKEN"
)

// Keyring coordinates for a token stored with the OS keyring.
const (
	KeyringService = "specify"
	KeyringUser    = "github"
)

// Source supplies a fallback token when none was given explicitly.
// Lookup returns false when the source holds nothing usable.
type Source interface {
	Lookup() (string, bool)
}

// EnvSource reads a token from a process environment variable.
type EnvSource struct {
	Name string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Lookup implements Source.
func (s EnvSource) Lookup() (string, bool) {
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return lookup(s.Name)
}

// StaticSource always returns the same value.
type StaticSource string

// Lookup implements Source.
func (s StaticSource) Lookup() (string, bool) {
	return string(s), s != ""
}

// KeyringSource reads a token from the OS keyring.
// A missing entry or an unavailable keyring both count as absence.
type KeyringSource struct {
	Service string
	User    string
}

// Lookup implements Source.
func (s KeyringSource) Lookup() (string, bool) {
	service, user := s.Service, s.User
	if service == "" {
		service = KeyringService
	}
	if user == "" {
		user = KeyringUser
	}
	token, err := keyring.Get(service, user)
	if err != nil {
		logDebug("[github] keyring lookup %s/%s: %v", service, user, err)
		return "", false
	}
	return token, true
}

// DefaultSources returns the environment fallbacks: GH_TOKEN, then GITHUB_TOKEN.
func DefaultSources() []Source {
	return []Source{
		EnvSource{Name: EnvGHToken},
		EnvSource{Name: EnvGitHubToken},
	}
}

// ResolveToken picks the token to authenticate with.
// Priority: explicit value > sources in order (DefaultSources when none given) > no token.
// Values are trimmed; an empty or whitespace-only value never counts.
// The empty string means "no credential".
func ResolveToken(explicit string, sources ...Source) string {
	if token := strings.TrimSpace(explicit); token != "" {
		return token
	}
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		value, ok := src.Lookup()
		if !ok {
			continue
		}
		if token := strings.TrimSpace(value); token != "" {
			return token
		}
	}
	return ""
}

// AuthHeaders returns the Authorization header for the resolved token,
// or an empty map when there is no credential.
func AuthHeaders(token string, sources ...Source) map[string]string {
	headers := map[string]string{}
	if resolved := ResolveToken(token, sources...); resolved != "" {
		headers["Authorization"] = "Bearer " + resolved
	}
	return headers
}

// Package cred supplies the bearer token that gates the bridge session.
// The environment variable wins; a locally stored file is the fallback.
// The full token is never displayed, only a masked preview.
package cred

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lydakis/hostbridge/internal/paths"
)

// EnvVar is the authoritative token source.
const EnvVar = "HOSTBRIDGE_TOKEN"

// Source reports where a token came from.
type Source string

const (
	SourceEnv  Source = "env"
	SourceFile Source = "file"
)

// ErrNoToken is returned when neither source has a token.
var ErrNoToken = fmt.Errorf("no bearer token: set %s or run `hostbridge token set`", EnvVar)

// Token returns the bearer token, checking the environment variable
// first and the stored file second.
func Token() (string, Source, error) {
	return TokenFrom(paths.TokenFile())
}

// TokenFrom is Token with an explicit fallback file path.
func TokenFrom(file string) (string, Source, error) {
	if tok := strings.TrimSpace(os.Getenv(EnvVar)); tok != "" {
		return tok, SourceEnv, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrNoToken
		}
		return "", "", fmt.Errorf("reading token file: %w", err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", "", ErrNoToken
	}
	return tok, SourceFile, nil
}

// Store writes the fallback token file with owner-only permissions.
func Store(token string) error {
	return StoreTo(paths.TokenFile(), token)
}

// StoreTo is Store with an explicit file path.
func StoreTo(file, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("refusing to store an empty token")
	}
	if err := paths.EnsureDir(filepath.Dir(file)); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(file, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// Mask returns a display-safe preview: first and last four runes with
// the middle replaced. Tokens too short to preview are fully masked.
func Mask(token string) string {
	runes := []rune(token)
	if len(runes) <= 8 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:4]) + strings.Repeat("*", len(runes)-8) + string(runes[len(runes)-4:])
}

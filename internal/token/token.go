// Package token resolves the bearer token the daemon requires on every request.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// Source records where the active token came from.
type Source string

const (
	SourceExplicit    Source = "explicit"
	SourceEnvironment Source = "environment"
	SourceGenerated   Source = "generated"
)

// generatedBytes random bytes encode to 32 URL-safe characters.
const generatedBytes = 24

// Resolve picks the token in order explicit > environment > generated.
// Whitespace-only values count as absent.
func Resolve(explicit, env string) (string, Source, error) {
	return resolve(explicit, env, rand.Reader)
}

func resolve(explicit, env string, entropy io.Reader) (string, Source, error) {
	if t := strings.TrimSpace(explicit); t != "" {
		return t, SourceExplicit, nil
	}
	if t := strings.TrimSpace(env); t != "" {
		return t, SourceEnvironment, nil
	}
	t, err := generate(entropy)
	if err != nil {
		return "", "", err
	}
	return t, SourceGenerated, nil
}

func generate(entropy io.Reader) (string, error) {
	b := make([]byte, generatedBytes)
	if _, err := io.ReadFull(entropy, b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

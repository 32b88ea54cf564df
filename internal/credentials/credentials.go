// Package credentials resolves API key pairs from explicit configuration or
// the process environment.
package credentials

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"tradewire/pkg/core"
)

var dotenvOnce sync.Once

// LoadDotenv loads variables from a .env file into the process environment
// when one is present. Missing files are not an error; existing environment
// variables are never overwritten.
func LoadDotenv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Resolve returns the credentials for an exchange. Explicit credentials take
// precedence; otherwise <EXCHANGE>_KEY and <EXCHANGE>_SECRET are read from
// the environment, with a .env file in the working directory loaded first if
// present. The lookup happens once, at session construction. A nil
// result is valid and restricts the session to public operations.
func Resolve(exchange string, explicit *core.Credentials) *core.Credentials {
	if !explicit.IsZero() {
		return &core.Credentials{Key: explicit.Key, Secret: explicit.Secret}
	}

	// A .env in the working directory feeds the environment fallback.
	dotenvOnce.Do(func() { LoadDotenv() })

	prefix := strings.ToUpper(strings.ReplaceAll(exchange, "-", "_"))
	key := os.Getenv(prefix + "_KEY")
	secret := os.Getenv(prefix + "_SECRET")
	if key == "" && secret == "" {
		return nil
	}
	return &core.Credentials{Key: key, Secret: secret}
}

// Mask obscures an API key for log output.
func Mask(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

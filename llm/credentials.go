package llm

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// EnvAPIKey is the primary environment variable consulted when no explicit
// token is given. EnvAPIKeyCompat is accepted as a fallback for setups that
// already export the xAI variable.
const (
	EnvAPIKey       = "LLMKIT_API_KEY"
	EnvAPIKeyCompat = "XAI_API_KEY"

	credentialsFile = ".env"
)

// Credentials holds the opaque bearer token used to authenticate every
// API call. It is constructed once at process start and shared read-only;
// request logic never consults the environment on its own.
//
// The token is masked in String() and JSON output so it cannot leak
// through logs.
type Credentials struct {
	token string
}

// NewCredentials wraps an explicit token.
func NewCredentials(token string) (Credentials, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credentials{}, Validationf("API token is empty")
	}
	return Credentials{token: token}, nil
}

// ResolveCredentials resolves the bearer token from, in priority order:
// the explicit argument, the LLMKIT_API_KEY / XAI_API_KEY environment
// variables, then a .env key-value file in the working directory or its
// parent.
func ResolveCredentials(explicit string) (Credentials, error) {
	if strings.TrimSpace(explicit) != "" {
		return NewCredentials(explicit)
	}
	for _, key := range []string{EnvAPIKey, EnvAPIKeyCompat} {
		if v := os.Getenv(key); strings.TrimSpace(v) != "" {
			return NewCredentials(v)
		}
	}
	for _, dir := range []string{".", ".."} {
		if tok := tokenFromEnvFile(filepath.Join(dir, credentialsFile)); tok != "" {
			return NewCredentials(tok)
		}
	}
	return Credentials{}, Validationf(
		"API token not found: pass it explicitly, set %s, or add it to a .env file",
		EnvAPIKey,
	)
}

// Token returns the raw bearer token.
func (c Credentials) Token() string { return c.token }

// Empty reports whether no token is held.
func (c Credentials) Empty() bool { return c.token == "" }

func (c Credentials) String() string {
	if c.token == "" {
		return "Credentials{}"
	}
	return "Credentials{token:***}"
}

// MarshalJSON always masks the token.
func (c Credentials) MarshalJSON() ([]byte, error) {
	type masked struct {
		Token string `json:"token,omitempty"`
	}
	out := masked{}
	if c.token != "" {
		out.Token = "***"
	}
	return json.Marshal(out)
}

// tokenFromEnvFile scans a KEY=VALUE file for the API key variables.
// Missing or unreadable files simply yield no token. Lines starting with
// # and malformed lines are skipped; surrounding quotes are stripped.
func tokenFromEnvFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		if key != EnvAPIKey && key != EnvAPIKeyCompat {
			continue
		}
		value := strings.TrimSpace(line[i+1:])
		if len(value) >= 2 &&
			(value[0] == '"' && value[len(value)-1] == '"' ||
				value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
		if value != "" {
			return value
		}
	}
	return ""
}

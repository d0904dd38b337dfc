package dothttp

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a ".env" file from the same directory as requestFilePath
// into scopes' env scope, adding only names LoadEnvironment did not already
// set (env-file values win on conflict — .env is the OS-environment-adjacent
// fallback layer). A missing .env file is not an error, grounded on the
// teacher's own loadDotEnvVars in client.go.
func LoadDotEnv(requestFilePath string, scopes *Scopes) error {
	envFilePath := filepath.Join(filepath.Dir(requestFilePath), ".env")
	if _, err := os.Stat(envFilePath); err != nil {
		return nil
	}
	loaded, err := godotenv.Read(envFilePath)
	if err != nil {
		return nil
	}
	for name, value := range loaded {
		if _, exists := scopes.Get(ScopeEnv, name); !exists {
			scopes.Set(ScopeEnv, name, value)
		}
	}
	return nil
}

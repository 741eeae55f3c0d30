package config

import "os"

// LoadFromEnv reads the process environment. Dev builds first merge the
// file named by DOTENV_FILE (default .env) without overriding set keys.
func LoadFromEnv() (Config, error) {
	path := os.Getenv("DOTENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := loadDotEnv(path); err != nil {
		return Config{}, err
	}
	return Load(FromEnviron())
}

package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var loadEnvOnce sync.Once

// Config returns a raw environment value, loading .env on first use.
func Config(key string) string {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Warn().Msg(".env file not found, reading from system environment variables")
		}
	})

	return os.Getenv(key)
}

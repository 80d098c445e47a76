package config

import "os"

func IsDebug() bool {
	return os.Getenv("ARCHIVIST_DEBUG") == "1"
}

func envFallback(key string) string {
	return os.Getenv(key)
}

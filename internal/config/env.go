package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env holds process-level settings: storage DSNs, logging and metrics.
type Env struct {
	PostgresDSN      string
	ClickHouseDSN    string
	LogLevel         string
	Pretty           bool
	MetricsNamespace string
	MetricsAddr      string
	Parallelism      int
}

// LoadEnv reads settings from the environment. Values missing from the
// environment are taken from the given dotenv files (default ".env")
// when they exist. The process environment is not modified.
func LoadEnv(files ...string) (*Env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	dotenv := make(map[string]string)
	for _, name := range files {
		vars, err := godotenv.Read(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for k, v := range vars {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v := dotenv[key]; v != "" {
			return v
		}
		return def
	}

	return &Env{
		PostgresDSN:      get("CASHFLOW_POSTGRES_DSN", ""),
		ClickHouseDSN:    get("CASHFLOW_CLICKHOUSE_DSN", ""),
		LogLevel:         get("CASHFLOW_LOG_LEVEL", "info"),
		Pretty:           getBool(get("CASHFLOW_LOG_PRETTY", ""), false),
		MetricsNamespace: get("CASHFLOW_METRICS_NAMESPACE", "cashflow_lab"),
		MetricsAddr:      get("CASHFLOW_METRICS_ADDR", ""),
		Parallelism:      getInt(get("CASHFLOW_PARALLELISM", ""), 1),
	}, nil
}

func getBool(value string, def bool) bool {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return def
}

func getInt(value string, def int) int {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return def
}

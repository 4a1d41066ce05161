// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/agrefed/dem-harvester/internal/httpclient"
	"github.com/agrefed/dem-harvester/internal/source"
)

type Config struct {
	Addr        string
	LogLevel    string
	ServiceURL  string
	CRS         string
	OutDir      string
	WCSTimeout  time.Duration
	MetricsPath string
}

func FromEnv() Config {
	return Config{
		Addr:        getenv("ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		ServiceURL:  getenv("DEM_WCS_URL", source.DefaultServiceURL),
		CRS:         getenv("DEM_CRS", source.DefaultCRS),
		OutDir:      getenv("DEM_OUT_DIR", "./dem"),
		WCSTimeout:  getduration("WCS_TIMEOUT", httpclient.DefaultTimeout),
		MetricsPath: getenv("METRICS_PATH", "/metrics"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

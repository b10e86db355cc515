package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DBUrl       string
	BaseUrl     string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool
}

// ParseFlags reads configuration from command line flags, falling back to
// WEBSURVEY_* environment variables (a .env file is honored when present).
func ParseFlags() (cfg Config, err error) {
	_ = godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envString("WEBSURVEY_HOST", "0.0.0.0"), "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", envUint("WEBSURVEY_PORT", 80), "listen port number (default 80)")
	flag.StringVar(&cfg.DBUrl, "db-url", envString("WEBSURVEY_DB_URL", "websurvey.sqlite"), "path to SQLite3 DB file (default websurvey.sqlite)")
	flag.StringVar(&cfg.BaseUrl, "base-url", envString("WEBSURVEY_BASE_URL", ""), "public base URL used in shareable channel links")
	flag.StringVar(&cfg.TokenSecret, "token-secret", envString("WEBSURVEY_TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envUint("WEBSURVEY_TOKEN_TTL", 120), "token TTL in seconds (default 120)")
	flag.BoolVar(&cfg.Debug, "debug", envString("WEBSURVEY_DEBUG", "") != "", "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}
	if cfg.BaseUrl == "" {
		cfg.BaseUrl = cfg.Url()
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint) uint {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}

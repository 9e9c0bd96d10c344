package shared

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Config file name and search order; the system dir wins by existing first.
const (
	ConfigFileName  = "grabar.yaml"
	SystemConfigDir = "/etc/grabar"
	LocalConfigDir  = "configs"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	PlayBase    string
	PlayRPS     int
	PageSize    int
	Workers     int
	DateLayout  string // caller-supplied cutoff format
	OutLayout   string // rendered timestamp format
	ResultDir   string
	CacheTTL    time.Duration
	Apps        []string
	Languages   []string
	Since       string // optional cutoff for cmd/grab, in DateLayout
}

func Load() Config {
	yp, err := LoadYAML(ConfigFileName, SystemConfigDir, LocalConfigDir)
	if err != nil {
		log.Warn().Err(err).Msg("config file unreadable, using env and defaults")
		yp = &YAMLProvider{}
	}
	r := NewResolver(EnvProvider{}, yp)

	return Config{
		AppEnv:      r.String("APP_ENV", "prod"),
		HTTPAddr:    r.String("HTTP_ADDR", ":8090"),
		MetricsAddr: r.String("METRICS_ADDR", ":9100"),
		MySQLDSN:    r.String("MYSQL_DSN", "root:root@tcp(localhost:3306)/grabar?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   r.String("REDIS_ADDR", "localhost:6379"),
		RedisDB:     r.Int("REDIS_DB", 0),
		RedisPass:   r.String("REDIS_PASSWORD", ""),
		PlayBase:    r.String("PLAY_BASE_URL", "https://play-feed.googleapis.example/v1"),
		PlayRPS:     r.Int("PLAY_RPS", 5),
		PageSize:    r.Int("PAGE_SIZE", 100),
		Workers:     r.Int("GRAB_WORKERS", 4),
		DateLayout:  r.String("DATE_FORMAT", "2006-01-02"),
		OutLayout:   r.String("OUTPUT_DATE_FORMAT", "02-Jan-2006, 15:04:05"),
		ResultDir:   r.String("RESULT_DIR", "results"),
		CacheTTL:    time.Duration(r.Int("CACHE_TTL_SECONDS", 900)) * time.Second,
		Apps:        r.List("GRAB_APPS", nil),
		Languages:   r.List("GRAB_LANGS", []string{"en"}),
		Since:       r.String("GRAB_SINCE", ""),
	}
}

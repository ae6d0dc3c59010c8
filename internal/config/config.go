package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Sources
	JobSources       []string
	InternSources    []string
	JobMinResults    int
	InternMinResults int
	DefaultPageSize  int

	// HTTP adapters
	HTTPTimeout      time.Duration
	HTTPMaxAttempts  int
	SourceRatePerSec float64

	// Browser adapters
	BrowserHeadless  bool
	PageLoadTimeout  time.Duration
	BrowserUserAgent string

	// Output
	MaxDisplay       int
	JobOutputFile    string
	InternOutputFile string

	// Storage / cache
	DatabaseURL   string
	RedisURL      string
	CacheTTL      time.Duration
	EventsChannel string

	// Server / scheduler
	Port                  int
	ScheduleIntervalHours int
	ScheduledSearches     string

	// SFTP
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPInsecureIgnoreHostKey bool
	SFTPKnownHosts            string
}

// Load reads .env (if any) and then the process environment. Variables
// already set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("WARN: [config] .env: %v", err)
	}

	return Config{
		JobSources:       getenvList("JOB_SOURCES", []string{"liepin", "zhilian"}),
		InternSources:    getenvList("INTERN_SOURCES", []string{"shixiseng", "liepin_intern"}),
		JobMinResults:    getenvInt("JOB_MIN_RESULTS", 5),
		InternMinResults: getenvInt("INTERN_MIN_RESULTS", 0),
		DefaultPageSize:  getenvInt("DEFAULT_PAGE_SIZE", 20),

		HTTPTimeout:      getenvDuration("HTTP_TIMEOUT", 10*time.Second),
		HTTPMaxAttempts:  getenvInt("HTTP_MAX_ATTEMPTS", 3),
		SourceRatePerSec: getenvFloat("SOURCE_RATE_PER_SEC", 1),

		BrowserHeadless:  getenvBool("BROWSER_HEADLESS", true),
		PageLoadTimeout:  getenvDuration("PAGE_LOAD_TIMEOUT", 15*time.Second),
		BrowserUserAgent: os.Getenv("BROWSER_USER_AGENT"),

		MaxDisplay:       getenvInt("MAX_DISPLAY", 10),
		JobOutputFile:    getenv("JOB_OUTPUT_FILE", "jobs_result.json"),
		InternOutputFile: getenv("INTERN_OUTPUT_FILE", "interns_result.json"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		CacheTTL:      getenvDuration("CACHE_TTL", 30*time.Minute),
		EventsChannel: getenv("EVENTS_CHANNEL", "listings:runs"),

		Port:                  getenvInt("MCP_PORT", getenvInt("PORT", 9000)),
		ScheduleIntervalHours: getenvInt("SCHEDULE_INTERVAL_HOURS", 6),
		ScheduledSearches:     os.Getenv("SCHEDULED_SEARCHES"),

		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/inbound"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOSTKEY", true),
		SFTPKnownHosts:            os.Getenv("SFTP_KNOWN_HOSTS"),
	}
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func getenvFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// getenvDuration accepts Go durations ("15s") or bare seconds ("15").
func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

// getenvList splits a comma separated value, dropping blanks.
func getenvList(k string, def []string) []string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

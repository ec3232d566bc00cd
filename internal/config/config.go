package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr              string
	APIBaseURL            string
	RequestTimeout        time.Duration
	JWTSecret             string
	RedisAddr             string
	RedisPassword         string
	FreezeEnabled         bool
	FreezeSchedule        string
	FreezeTimeout         time.Duration
	ClassExcludedWeekdays []time.Weekday
	LogLevel              string
	LogFormat             string
}

// Load reads the configuration from the environment. A .env file in the working
// directory (or the one named by ENV_FILE) is applied first when present; values
// already set in the environment win.
func Load() Config {
	loadDotEnv()
	return Config{
		HTTPAddr:              getenv("HTTP_ADDR", ":8090"),
		APIBaseURL:            strings.TrimRight(getenv("API_BASE_URL", "http://127.0.0.1:5000/api"), "/"),
		RequestTimeout:        getenvDuration("REQUEST_TIMEOUT", 30*time.Second),
		JWTSecret:             getenv("JWT_SECRET", ""),
		RedisAddr:             getenv("REDIS_ADDR", ""),
		RedisPassword:         getenv("REDIS_PASSWORD", ""),
		FreezeEnabled:         getenvBool("FREEZE_ENABLED", true),
		FreezeSchedule:        getenv("FREEZE_SCHEDULE", "@every 1h"),
		FreezeTimeout:         getenvDuration("FREEZE_TIMEOUT", 2*time.Minute),
		ClassExcludedWeekdays: getenvWeekdays("CLASS_EXCLUDED_WEEKDAYS", []time.Weekday{time.Sunday, time.Tuesday}),
		LogLevel:              getenv("LOG_LEVEL", "info"),
		LogFormat:             getenv("LOG_FORMAT", "json"),
	}
}

func loadDotEnv() {
	path := getenv("ENV_FILE", ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// getenvWeekdays parses a comma separated weekday list. "none" yields an empty
// list so every weekday can host classes; an unparseable entry keeps the fallback.
func getenvWeekdays(key string, fallback []time.Weekday) []time.Weekday {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	if strings.EqualFold(val, "none") {
		return []time.Weekday{}
	}
	var out []time.Weekday
	for _, part := range strings.Split(val, ",") {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return fallback
		}
		out = append(out, day)
	}
	return out
}

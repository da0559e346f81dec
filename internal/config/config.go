package config

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TrackedUser is a user whose weekly forecasts are snapshotted by the scheduler
type TrackedUser struct {
	Name  string `validate:"required,excludesall=/\\"`
	Token string `validate:"required"`
}

type Config struct {
	Port         string        `validate:"required,numeric"`
	LogStoreURL  string        `validate:"required,url"`
	DBPath       string        `validate:"required"`
	ReportsPath  string        `validate:"required"`
	Timezone     string        `validate:"required,timezone"`
	AdminToken   string
	TrackedUsers []TrackedUser `validate:"dive"`
	RateLimit    int           `validate:"gt=0"`
	SnapshotCron string        `validate:"required"`
}

func Load() (*Config, error) {
	rateLimit, err := strconv.Atoi(getEnv("MOODCAST_RATE_LIMIT", "60"))
	if err != nil {
		return nil, fmt.Errorf("MOODCAST_RATE_LIMIT must be an integer: %w", err)
	}

	users, err := parseTrackedUsers(getEnv("MOODCAST_TRACKED_USERS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:         getEnv("MOODCAST_PORT", "5001"),
		LogStoreURL:  strings.TrimRight(getEnv("MOODCAST_LOG_STORE_URL", "http://localhost:5002"), "/"),
		DBPath:       getEnv("MOODCAST_DB_PATH", "moodcast.db"),
		ReportsPath:  getEnv("MOODCAST_REPORTS_PATH", "reports"),
		Timezone:     getEnv("MOODCAST_TIMEZONE", "UTC"),
		AdminToken:   getEnv("MOODCAST_ADMIN_TOKEN", ""),
		TrackedUsers: users,
		RateLimit:    rateLimit,
		SnapshotCron: getEnv("MOODCAST_SNAPSHOT_CRON", "30 0 * * 1"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = validator.New()

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if len(c.TrackedUsers) > 0 && c.AdminToken == "" {
		return fmt.Errorf("MOODCAST_ADMIN_TOKEN is required when MOODCAST_TRACKED_USERS is set")
	}
	return nil
}

// TrackingEnabled reports whether the admin tracking surface is configured
func (c *Config) TrackingEnabled() bool {
	return c.AdminToken != ""
}

// IsAdmin reports whether token is the configured admin token
func (c *Config) IsAdmin(token string) bool {
	if c.AdminToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.AdminToken)) == 1
}

// TrackedUser looks up a tracked user by name
func (c *Config) TrackedUser(name string) (TrackedUser, bool) {
	for _, u := range c.TrackedUsers {
		if u.Name == name {
			return u, true
		}
	}
	return TrackedUser{}, false
}

// Credential is the Authorization header value forwarded upstream for the user
func (u TrackedUser) Credential() string {
	return "Bearer " + u.Token
}

// parseTrackedUsers reads "name:token,name:token"
func parseTrackedUsers(raw string) ([]TrackedUser, error) {
	var users []TrackedUser
	seen := make(map[string]bool)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, token, ok := strings.Cut(pair, ":")
		name, token = strings.TrimSpace(name), strings.TrimSpace(token)
		if !ok || name == "" || token == "" {
			return nil, fmt.Errorf("MOODCAST_TRACKED_USERS: malformed entry %q, want name:token", pair)
		}
		if seen[name] {
			return nil, fmt.Errorf("MOODCAST_TRACKED_USERS: duplicate user %q", name)
		}
		seen[name] = true
		users = append(users, TrackedUser{Name: name, Token: token})
	}
	return users, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

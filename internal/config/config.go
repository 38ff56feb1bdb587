package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting of the bot that comes from the environment
type Config struct {
	// Discord
	DiscordToken   string
	GuildID        string
	PanelChannelID string
	LogChannelID   string

	// Riot API
	RiotAPIKey     string
	DDragonVersion string

	// Storage
	DatabasePath string
	RolesFile    string

	// Periodic refresh
	RefreshInterval time.Duration
	RefreshTick     time.Duration
	RefreshDelay    time.Duration

	// Verification
	VerificationTTL time.Duration
	IconIds         []int

	HealthAddr string
	LogLevel   string
}

// Load reads configuration from an optional .env file and the environment.
// Variables already set in the environment win over the file
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// The file is optional
	_ = godotenv.Load(envFile)

	cfg := &Config{
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		GuildID:        os.Getenv("DISCORD_GUILD_ID"),
		PanelChannelID: os.Getenv("PANEL_CHANNEL_ID"),
		LogChannelID:   os.Getenv("LOG_CHANNEL_ID"),
		RiotAPIKey:     os.Getenv("RIOT_API_KEY"),
		DDragonVersion: getEnvOrDefault("DDRAGON_VERSION", "14.1.1"),
		DatabasePath:   getEnvOrDefault("DATABASE_PATH", "./data/accounts.db"),
		RolesFile:      getEnvOrDefault("ROLES_FILE", "roles.yaml"),
		HealthAddr:     getEnvOrDefault("HEALTH_ADDR", ":8080"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
	}

	durations := []struct {
		key      string
		fallback string
		target   *time.Duration
	}{
		{"REFRESH_INTERVAL", "3h", &cfg.RefreshInterval},
		{"REFRESH_TICK", "1m", &cfg.RefreshTick},
		{"REFRESH_DELAY", "500ms", &cfg.RefreshDelay},
		{"VERIFICATION_TTL", "5m", &cfg.VerificationTTL},
	}
	for _, d := range durations {
		value, err := time.ParseDuration(getEnvOrDefault(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if value < 0 {
			return nil, fmt.Errorf("invalid %s: negative duration", d.key)
		}
		*d.target = value
	}

	icons, err := parseIcons(os.Getenv("VERIFICATION_ICON_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFICATION_ICON_IDS: %w", err)
	}
	cfg.IconIds = icons

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.RiotAPIKey == "" {
		return fmt.Errorf("RIOT_API_KEY is required")
	}
	if cfg.RefreshInterval == 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive")
	}
	if cfg.RefreshTick == 0 {
		return fmt.Errorf("REFRESH_TICK must be positive")
	}
	if cfg.VerificationTTL == 0 {
		return fmt.Errorf("VERIFICATION_TTL must be positive")
	}
	return nil
}

// Default pool: the icons every account owns from the start
func DefaultIconIds() []int {
	icons := make([]int, 29)
	for i := range icons {
		icons[i] = i
	}
	return icons
}

func parseIcons(value string) ([]int, error) {
	if strings.TrimSpace(value) == "" {
		return DefaultIconIds(), nil
	}
	var icons []int
	for _, field := range strings.Split(value, ",") {
		icon, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		if icon < 0 {
			return nil, fmt.Errorf("negative icon id %d", icon)
		}
		icons = append(icons, icon)
	}
	return icons, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

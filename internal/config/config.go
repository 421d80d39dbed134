package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	BotToken          string
	GuildID           string
	AdminRoleID       string
	CoAdminRoleID     string
	DatabaseChannelID string
	DashboardUsername string
	DashboardPassword string
	SessionSecret     string
	Port              string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// .env file is optional, continue with environment variables
	_ = godotenv.Load()

	config := &Config{
		BotToken:          os.Getenv("BOT_TOKEN"),
		GuildID:           os.Getenv("GUILD_ID"),
		AdminRoleID:       os.Getenv("ADMIN_ROLE_ID"),
		CoAdminRoleID:     os.Getenv("COADMIN_ROLE_ID"),
		DatabaseChannelID: os.Getenv("DATABASE_CHANNEL_ID"),
		DashboardUsername: os.Getenv("DASHBOARD_USERNAME"),
		DashboardPassword: os.Getenv("DASHBOARD_PASSWORD"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		Port:              os.Getenv("PORT"),
	}

	if config.Port == "" {
		config.Port = "3000"
	}

	required := []struct {
		field string
		value string
	}{
		{"BOT_TOKEN", config.BotToken},
		{"GUILD_ID", config.GuildID},
		{"ADMIN_ROLE_ID", config.AdminRoleID},
		{"COADMIN_ROLE_ID", config.CoAdminRoleID},
		{"DATABASE_CHANNEL_ID", config.DatabaseChannelID},
		{"DASHBOARD_USERNAME", config.DashboardUsername},
		{"DASHBOARD_PASSWORD", config.DashboardPassword},
		{"SESSION_SECRET", config.SessionSecret},
	}
	for _, req := range required {
		if req.value == "" {
			return nil, &ConfigError{Field: req.field, Message: req.field + " is required"}
		}
	}

	return config, nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

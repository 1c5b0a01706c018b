package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Web holds the settings shared by the server and the maintenance commands
type Web struct {
	// WebURL is the public origin profile URLs are built from
	WebURL string `envconfig:"WEB_URL" default:"http://localhost:3000"`
}

// App holds the service settings read from the environment
type App struct {
	Web

	ServerPort     string   `envconfig:"SERVER_PORT" default:"5000"`
	GinMode        string   `envconfig:"GIN_MODE" default:"debug"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	JWTSecret          string `envconfig:"JWT_SECRET_KEY" required:"true"`
	JWTExpirationHours int64  `envconfig:"JWT_EXPIRATION_HOURS" default:"24"`
	AdminEmail         string `envconfig:"ADMIN_EMAIL"`
}

// LoadApp reads App from the environment
func LoadApp() (App, error) {
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	c.WebURL = strings.TrimRight(c.WebURL, "/")
	c.AdminEmail = strings.ToLower(strings.TrimSpace(c.AdminEmail))
	return c, nil
}

// LoadWeb reads only the Web settings
func LoadWeb() (Web, error) {
	var c Web
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	c.WebURL = strings.TrimRight(c.WebURL, "/")
	return c, nil
}

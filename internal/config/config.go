package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Firebase FirebaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Client   ClientConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	WebAPIKey       string
}

type AuthConfig struct {
	// Mode selects the bearer-token verifier: "firebase" in production,
	// "jwt" for local development against HMAC-signed tokens.
	Mode      string
	JWTSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ClientConfig struct {
	APIBaseURL      string
	CartFile        string
	RefreshInterval time.Duration
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("AUTH_MODE", "firebase")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("API_BASE_URL", "http://localhost:8080")
	viper.SetDefault("CART_FILE", "cart.json")
	viper.SetDefault("WISHLIST_REFRESH_INTERVAL", "5m")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       viper.GetString("FIREBASE_PROJECT_ID"),
			CredentialsFile: viper.GetString("FIREBASE_CREDENTIALS_FILE"),
			WebAPIKey:       viper.GetString("FIREBASE_WEB_API_KEY"),
		},
		Auth: AuthConfig{
			Mode:      viper.GetString("AUTH_MODE"),
			JWTSecret: viper.GetString("JWT_SECRET"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Client: ClientConfig{
			APIBaseURL:      viper.GetString("API_BASE_URL"),
			CartFile:        viper.GetString("CART_FILE"),
			RefreshInterval: viper.GetDuration("WISHLIST_REFRESH_INTERVAL"),
		},
	}
}

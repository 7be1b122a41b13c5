package config

import (
	"os"      // For environment variables
	"strconv" // For string to int/float conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort        string  // Application port
	DBUser         string  // Database user
	DBPassword     string  // Database password
	DBHost         string  // Database host
	DBPort         string  // Database port
	DBName         string  // Database name
	JWTSecret      string  // JWT secret key
	RedisAddr      string  // Redis server address
	RedisPass      string  // Redis password
	RedisDB        int     // Redis database number
	HouseEdge      float64 // Fraction of the pool kept on Yes/No payouts (default 0.05)
	CloserInterval int     // Closer sweep interval in minutes (default 5)
	SignupBonus    int64   // GAM granted to a new user (default 1000)
	TelegramToken  string  // Telegram bot token (empty disables the channel)
	TelegramChatID string  // Telegram chat for operator notifications
	IsProd         bool    // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	houseEdge := 0.05 // Default house edge
	if v, err := strconv.ParseFloat(os.Getenv("HOUSE_EDGE"), 64); err == nil && v >= 0 && v < 1 {
		houseEdge = v
	}
	closerInterval := 5 // Default sweep interval in minutes
	if v, err := strconv.Atoi(os.Getenv("CLOSER_INTERVAL_MINUTES")); err == nil && v > 0 {
		closerInterval = v
	}
	signupBonus := int64(1000) // Default signup grant
	if v, err := strconv.ParseInt(os.Getenv("SIGNUP_BONUS"), 10, 64); err == nil && v >= 0 {
		signupBonus = v
	}
	return &Config{
		AppPort:        os.Getenv("APP_PORT"),           // Application port
		DBUser:         os.Getenv("DB_USER"),            // Database user
		DBPassword:     os.Getenv("DB_PASSWORD"),        // Database password
		DBHost:         os.Getenv("DB_HOST"),            // Database host
		DBPort:         os.Getenv("DB_PORT"),            // Database port
		DBName:         os.Getenv("DB_NAME"),            // Database name
		JWTSecret:      os.Getenv("JWT_SECRET"),         // JWT secret key
		RedisAddr:      os.Getenv("REDIS_ADDR"),         // Redis server address
		RedisPass:      os.Getenv("REDIS_PASS"),         // Redis password
		RedisDB:        redisDB,                         // Redis database number
		HouseEdge:      houseEdge,                       // House edge fraction
		CloserInterval: closerInterval,                  // Closer sweep interval
		SignupBonus:    signupBonus,                     // New-user GAM grant
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"), // Telegram bot token
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),   // Telegram chat ID
		IsProd:         os.Getenv("IS_PROD") == "true",  // Is production environment
	}
}

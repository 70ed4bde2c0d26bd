package config

import (
	"os"
)

// Config holds all configuration for the collection service.
type Config struct {
	// Database configuration
	DBEnabled  bool
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Auth Service configuration
	AuthServiceURL string

	// RabbitMQ configuration; empty URL disables event publishing
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

// Load loads configuration from environment variables.
func Load() *Config {
	config := &Config{
		// Database defaults
		DBEnabled:  getEnv("DB_ENABLED", "false") == "true",
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBName:     getEnv("DB_NAME", "recycling"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Auth Service defaults
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", "http://auth-service:8080"),

		// RabbitMQ defaults
		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "collection-events"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "collection.completed"),
	}

	return config
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

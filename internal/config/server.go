package config

// ServerConfig holds configuration for the sandbox storefront server
type ServerConfig struct {
	Port string
}

// LoadServerConfig loads server configuration from environment variables
func LoadServerConfig(getenv func(string) string) ServerConfig {
	port := getenv("PORT")
	if port == "" {
		port = "8083" // Matches the default probe base URL
	}

	return ServerConfig{
		Port: port,
	}
}

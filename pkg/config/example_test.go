package config_test

import (
	"fmt"

	"github.com/wonny/twitstock/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Feature store driver: %s\n", cfg.Database.Driver())
	fmt.Printf("Object storage: %s\n", cfg.Storage.URL)
	fmt.Printf("Workers: %d\n", cfg.Workers)
}

package configs

import (
	"flag"
	"os"

	"github.com/crooner-app/crooner/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file location from the --config
// flag, the CROONER_CONFIG env var, or a list of conventional locations.
// An empty return means "no config file, run on defaults".
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("CROONER_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/crooner/config.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}

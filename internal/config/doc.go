// Package config provides centralized configuration management for SprintPulse.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default() values
//	2. A YAML file (config.yaml, configs/config.yaml or SPRINTPULSE_CONFIG_FILE)
//	3. A .env file in the working directory
//	4. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern SPRINTPULSE_<SECTION>_<FIELD>:
//
//	SPRINTPULSE_SERVER_PORT=8080
//	SPRINTPULSE_LOGGING_LEVEL=debug
//	SPRINTPULSE_STORAGE_PROVIDER=gcs
//	SPRINTPULSE_STORAGE_CREDENTIALS_FILE=/etc/sprintpulse/gcs.json
//	SPRINTPULSE_PIPELINE_DONE_STATUSES=Закрыто,Выполнено
//
// List values are comma separated.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := config.ResolvePaths(cfg.Paths)
package config

package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/opsboard/billing-dashboard/internal/config"
)

// dumpconfig prints the fully resolved dashboard configuration so operators
// can verify what YAML plus DASHBOARD_* env vars actually produce.
func main() {
	configFile := flag.String("config", "", "path to a dashboard config file (defaults to standard lookup)")
	flag.Parse()

	cfg, err := config.Load(config.Options{ConfigFile: *configFile})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// The database URL and encryption key carry secrets; never echo them.
	cfg.Database.URL = "<redacted>"
	if cfg.Images.EncryptionKey != "" {
		cfg.Images.EncryptionKey = "<redacted>"
	}
	if cfg.Images.S3.SecretAccessKey != "" {
		cfg.Images.S3.SecretAccessKey = "<redacted>"
	}
	if cfg.Redis.URL != "" {
		cfg.Redis.URL = "<redacted>"
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		log.Fatalf("encode config: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"github.com/toolbench/quotagate/internal/catalog"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/model"
)

type Config struct {
	DatabaseURI string
}

// loadConfig loads configuration settings from the environment. We're using koanf directly here so that the
// configuration files don't have to be present to run the seeding utility.
func loadConfig() (*Config, error) {
	k := koanf.New(".")

	// Load the configuration settings from the environment.
	err := k.Load(
		env.Provider("QUOTAGATE_", ".",
			func(s string) string {
				return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "QUOTAGATE_")), "_", ".", -1)
			},
		),
		nil,
	)
	if err != nil {
		return nil, err
	}

	// Verify that the database URI is specified.
	databaseURI := k.String("database.uri")
	if databaseURI == "" {
		return nil, fmt.Errorf("QUOTAGATE_DATABASE_URI must be defined")
	}

	return &Config{DatabaseURI: databaseURI}, nil
}

// seed-plans inserts any of the default plans that are missing from the database. Plans
// that already exist are left alone, so it's safe to run this utility repeatedly.
func main() {
	ctx := context.Background()

	// Load the configuration.
	config, err := loadConfig()
	if err != nil {
		log.Fatalf("unable to load the configuration: %s", err)
	}

	// Establish the database connection.
	_, gormdb, err := db.Init("postgres", config.DatabaseURI)
	if err != nil {
		log.Fatalf("unable to connect to the database: %s", err)
	}

	// Insert any missing default plans.
	if err = catalog.NewPlanCatalog(gormdb).Bootstrap(ctx, model.DefaultPlans()); err != nil {
		log.Fatalf("unable to seed the default plans: %s", err)
	}
}

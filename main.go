package main

import (
	"context"
	"flag"

	"greenmag/auth"
	"greenmag/crud"
	"greenmag/database"
	"greenmag/http"
	"greenmag/log"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're running in production.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	seedBool := flag.Bool("seed", false, "Create the demo accounts and articles before serving.")
	resetBool := flag.Bool("reset", false, "Drop and recreate every table before serving. Refused together with -prod.")
	flag.Parse()

	// Load configuration from the defaults, .config.json, .env files and the environment.
	// In production the .config.json file is required and the app exits without it.
	config, err := LoadConfig(*productionBool)
	must(err)
	log.InitLogger(config.Env, config.LogLevel)
	ttl, err := config.TTL()
	must(err)

	// Open a database connection and execute migrations.
	db := database.NewDB(config.Database.ConnectionInfo())
	must(database.Open(db, config.IsProd()))
	defer database.Close(db)
	if *resetBool {
		if config.IsProd() {
			log.Log.Fatal("refusing to reset the production database")
		}
		must(database.DestructiveReset(db.Gorm))
	}
	must(database.AutoMigrate(db.Gorm))

	// Start the crud services.
	services, err := crud.NewServices(db.Gorm, crud.WithAll(config.Pepper)...)
	must(err)

	if *seedBool {
		must(Seed(context.Background(), db.Gorm, services))
	}

	// Set up a webserver and serve the app.
	server := http.NewServer(services, auth.NewTokens(config.JWTSecret, ttl))
	if err := server.Run(config.Port); err != nil {
		log.Log.WithError(err).Fatal("server stopped")
	}
}

// must is a little helper for shortening the fatal exit.
func must(err error) {
	if err != nil {
		log.Log.WithError(err).Fatal("startup failed")
	}
}

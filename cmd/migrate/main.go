// cmd/migrate/main.go
package main

import (
	"context"
	"flag"
	"log"

	"vendor-onboarding-api/config"
	"vendor-onboarding-api/controllers"
	"vendor-onboarding-api/store"
)

func main() {
	seed := flag.Bool("seed-admin", true, "create the ADMIN_EMAIL account when missing")
	flag.Parse()

	settings := config.Load()

	// Initialize database
	db, err := config.InitDB(settings)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	log.Println("Schema migration completed!")

	if !*seed {
		return
	}
	if settings.AdminEmail == "" {
		log.Println("ADMIN_EMAIL not set, skipping admin seed")
		return
	}

	created, err := controllers.EnsureAdmin(context.Background(), store.NewGormStore(db), settings.AdminEmail, settings.AdminPassword)
	if err != nil {
		log.Fatal("Failed to seed admin:", err)
	}
	if created {
		log.Printf("Successfully created admin %s\n", settings.AdminEmail)
	} else {
		log.Printf("Admin %s already exists, skipping\n", settings.AdminEmail)
	}
}

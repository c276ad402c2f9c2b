// cmd/dbtools/token/main.go issues a bearer token for a user, creating the
// user first when -email is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/codr1/Courtside/internal/api/auth"
	"github.com/codr1/Courtside/internal/config"
	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/models"
)

func main() {
	var (
		configPath = flag.String("config", "config/app.yaml", "Path to the YAML configuration file")
		userID     = flag.Int64("user", 0, "User id to issue the token for")
		email      = flag.String("email", "", "Create a user with this email instead of loading one")
		name       = flag.String("name", "", "Name for the created user")
		admin      = flag.Bool("admin", false, "Create the user as an admin")
		ttl        = flag.Duration("ttl", auth.DefaultTokenTTL, "Token lifetime")
	)
	flag.Parse()

	if *userID <= 0 && *email == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	tokens, err := auth.NewTokenManager(cfg.App.SecretKey, *ttl)
	if err != nil {
		log.Fatalf("APP_SECRET_KEY: %v", err)
	}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var user models.User
	if *email != "" {
		role := models.RoleUser
		if *admin {
			role = models.RoleAdmin
		}
		user, err = database.Queries.CreateUser(ctx, models.User{Name: *name, Email: *email, Role: role})
		if err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Created user %d\n", user.ID)
	} else {
		user, err = database.Queries.GetUserByID(ctx, *userID)
		if err != nil {
			log.Fatalf("Failed to load user %d: %v", *userID, err)
		}
	}

	token, err := tokens.Issue(user.ID, user.Role)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"veilmatch/backend/internal/config"
	"veilmatch/backend/internal/models"
	"veilmatch/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	storageSvc := storage.NewService(db, rdb, nil)

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: create-profile, verify, ban, unban, list-matches")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "create-profile":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin create-profile <username> <gender>")
			os.Exit(1)
		}
		profile := &models.UserProfile{Username: os.Args[2], Gender: os.Args[3]}
		if err := db.Create(profile).Error; err != nil {
			log.Fatalf("Error creating profile: %v", err)
		}
		fmt.Printf("Profile created: %s (anon #%s)\n", profile.UserID, profile.AnonymousNumber)
	case "verify":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin verify <user_id>")
			os.Exit(1)
		}
		if err := verifyProfile(storageSvc, os.Args[2]); err != nil {
			log.Fatalf("Error verifying profile: %v", err)
		}
		fmt.Printf("User %s has been verified.\n", os.Args[2])
	case "ban":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin ban <user_id> [duration_in_hours]")
			os.Exit(1)
		}
		userID := os.Args[2]
		var duration time.Duration
		if len(os.Args) > 3 {
			hours, err := strconv.Atoi(os.Args[3])
			if err != nil {
				fmt.Println("Invalid duration. Please provide an integer.")
				os.Exit(1)
			}
			duration = time.Duration(hours) * time.Hour
		}
		if err := storageSvc.BanUser(userID, duration); err != nil {
			log.Fatalf("Error banning user: %v", err)
		}
		fmt.Printf("User %s has been banned.\n", userID)
	case "unban":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin unban <user_id>")
			os.Exit(1)
		}
		if err := storageSvc.UnbanUser(os.Args[2]); err != nil {
			log.Fatalf("Error unbanning user: %v", err)
		}
		fmt.Printf("User %s has been unbanned.\n", os.Args[2])
	case "list-matches":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin list-matches <user_id>")
			os.Exit(1)
		}
		matches, err := storageSvc.LoadCompletedMatchesForUser(os.Args[2])
		if err != nil {
			log.Fatalf("Error loading matches: %v", err)
		}
		for _, m := range matches {
			fmt.Printf("%s  %s <-> %s  completed %s  messages %d\n",
				m.MatchID, m.User1.UserID, m.User2.UserID,
				m.CompletedAt.Format(time.RFC3339), len(m.Messages))
		}
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func verifyProfile(s storage.Storage, userID string) error {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("profile %s not found", userID)
	}
	profile.Verified = true
	return s.SaveProfile(profile)
}

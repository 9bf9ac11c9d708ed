// Package main provides admin management utilities for micropost.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"micropost/internal/config"
	"micropost/internal/database"
	"micropost/internal/models"
	"micropost/internal/repository"
	"micropost/internal/service"

	"golang.org/x/term"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  admin create-superuser <username> <email>  - Create a superuser (prompts for password)")
		fmt.Println("  admin promote <user_id>                    - Grant staff status")
		fmt.Println("  admin demote <user_id>                     - Revoke staff status")
		fmt.Println("  admin list-staff                           - List all staff users")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch os.Args[1] {
	case "create-superuser":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin create-superuser <username> <email>")
			os.Exit(1)
		}
		createSuperuser(db, os.Args[2], os.Args[3])

	case "promote":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin promote <user_id>")
			os.Exit(1)
		}
		setStaff(db, os.Args[2], true)

	case "demote":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin demote <user_id>")
			os.Exit(1)
		}
		setStaff(db, os.Args[2], false)

	case "list-staff":
		listStaff(db)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func createSuperuser(db *gorm.DB, username, email string) {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}

	userService := service.NewUserService(repository.NewUserRepository(db))
	user, err := userService.CreateSuperuser(context.Background(), service.CreateSuperuserInput{
		Username: username,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		log.Fatalf("Failed to create superuser: %v", err)
	}

	fmt.Printf("Superuser %s (ID: %d) created\n", user.Username, user.ID)
}

func setStaff(db *gorm.DB, userID string, staff bool) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with ID %s not found\n", userID)
		} else {
			log.Fatalf("Database error: %v", err)
		}
		os.Exit(1)
	}

	if user.IsStaff == staff {
		if staff {
			fmt.Printf("User %s (ID: %d) is already staff\n", user.Username, user.ID)
		} else {
			fmt.Printf("User %s (ID: %d) is not staff\n", user.Username, user.ID)
		}
		return
	}

	if !staff && user.IsSuperuser {
		fmt.Printf("User %s (ID: %d) is a superuser; superusers keep staff status\n", user.Username, user.ID)
		os.Exit(1)
	}

	user.IsStaff = staff
	if err := db.Save(&user).Error; err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}

	if staff {
		fmt.Printf("Granted staff status to %s (ID: %d)\n", user.Username, user.ID)
	} else {
		fmt.Printf("Revoked staff status from %s (ID: %d)\n", user.Username, user.ID)
	}
}

func listStaff(db *gorm.DB) {
	var staff []models.User
	if err := db.Where("is_staff = ?", true).Find(&staff).Error; err != nil {
		log.Fatalf("Failed to fetch staff users: %v", err)
	}

	if len(staff) == 0 {
		fmt.Println("No staff users found")
		return
	}

	for _, u := range staff {
		role := "staff"
		if u.IsSuperuser {
			role = "superuser"
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, role)
	}
}

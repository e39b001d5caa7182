package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ultravionic/cozyui/internal/adapters/redis"
	"github.com/ultravionic/cozyui/internal/auth"
	"github.com/ultravionic/cozyui/internal/config"
	"github.com/ultravionic/cozyui/pkg/domain"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Seed the store with an initial admin account",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		username, _ := cmd.Flags().GetString("admin-user")
		password, _ := cmd.Flags().GetString("admin-password")

		if password == "" {
			fmt.Println("Error: --admin-password is required")
			os.Exit(1)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			fmt.Printf("Error connecting to redis at %s: %v\n", cfg.Redis.Addr, err)
			os.Exit(1)
		}

		svc := auth.NewService(store.Users, []byte(cfg.Auth.Secret), cfg.Auth.TokenTTL.Std())

		user, err := svc.Register(ctx, username, password, "")
		if err != nil {
			if errors.Is(err, domain.ErrUsernameTaken) {
				fmt.Printf("User %q already exists, nothing to do\n", username)
				return
			}
			fmt.Printf("Error creating admin user: %v\n", err)
			os.Exit(1)
		}

		user.Role = domain.RoleAdmin
		user.UpdatedAt = time.Now().UTC()
		if err := store.Users.Update(ctx, user); err != nil {
			fmt.Printf("Error promoting admin user: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Created admin user %q (%s)\n", user.Username, user.ID)
	},
}

func init() {
	rootCmd.AddCommand(initdbCmd)
	initdbCmd.Flags().String("admin-user", "admin", "Username for the seeded admin account")
	initdbCmd.Flags().String("admin-password", "", "Password for the seeded admin account")
}

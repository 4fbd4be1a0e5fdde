package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tweetapi/crud"
	"tweetapi/domain"
)

var seedUsers = []struct {
	username string
	email    string
	tweets   []string
}{
	{"alice", "alice@example.com", []string{"Hello, world!", "Second tweet, still here."}},
	{"bob", "bob@example.com", []string{"Hi everyone."}},
}

func newSeedCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo users and tweets, unless there are users already",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := setup()
			if err != nil {
				return err
			}
			defer Close(db)

			if err := crud.AutoMigrate(db.Gorm); err != nil {
				return err
			}
			services, err := crud.NewServices(db.Gorm,
				crud.WithUser(cfg.Pepper),
				crud.WithTweet(),
			)
			if err != nil {
				return err
			}
			return seed(cmd.Context(), log, services, password)
		},
	}
	cmd.Flags().StringVar(&password, "password", "password123", "Password of the demo users.")
	return cmd
}

// seed fills an empty database with demo data.
func seed(ctx context.Context, log *logrus.Logger, services *crud.Services, password string) error {
	users, err := services.User.All(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		log.WithField("users", len(users)).Info("database already has users, skipping seed")
		return nil
	}

	for _, su := range seedUsers {
		user := &domain.User{
			Username:        su.username,
			Email:           su.email,
			Password:        password,
			PasswordConfirm: password,
		}
		if err := services.User.Create(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", su.username, err)
		}
		for _, payload := range su.tweets {
			if err := services.Tweet.Create(ctx, &domain.Tweet{UserID: user.ID, Payload: payload}); err != nil {
				return fmt.Errorf("seed tweet of %s: %w", su.username, err)
			}
		}
		log.WithFields(logrus.Fields{
			"username": su.username,
			"tweets":   len(su.tweets),
		}).Info("seeded user")
	}
	return nil
}

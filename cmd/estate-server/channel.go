package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/publisher"
)

var (
	channelTitle       string
	channelKind        string
	channelTarget      string
	channelSubscribers int
)

// channelCmd manages publishing channels directly in the database.
var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Publishing channel management",
	Long: `Commands for managing publishing channels.

These commands operate directly on the database file. A running server
picks up changes on POST /api/v1/channels/refresh.

Examples:
  # Add a Telegram channel
  estate-server channel add --title "Dubai Listings" --kind telegram --target @dubai_listings

  # Add a Slack channel
  estate-server channel add --title Sales --kind slack --target https://hooks.slack.com/services/...

  # List channels
  estate-server channel list`,
}

var channelAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := models.ParseChannelKind(strings.ToLower(channelKind))
		if !ok {
			return fmt.Errorf("unknown channel kind %q (telegram, slack, teams)", channelKind)
		}
		if strings.TrimSpace(channelTitle) == "" {
			return fmt.Errorf("--title is required")
		}
		if channelTarget == "" {
			return fmt.Errorf("--target is required")
		}
		if kind != models.ChannelTelegram {
			if err := publisher.ValidateWebhookURL(channelTarget); err != nil {
				return err
			}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStorage(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		channel := &models.Channel{
			ID:               uuid.New().String(),
			Title:            strings.TrimSpace(channelTitle),
			SubscribersCount: channelSubscribers,
			Kind:             kind,
			Target:           channelTarget,
			CreatedAt:        time.Now(),
		}
		if err := db.Channels().Create(context.Background(), channel); err != nil {
			return fmt.Errorf("create channel: %w", err)
		}
		fmt.Printf("Channel created: %s (%s)\n", channel.Title, channel.ID)
		return nil
	},
}

var channelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStorage(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		list, err := db.Channels().List(context.Background())
		if err != nil {
			return fmt.Errorf("list channels: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No channels found.")
			return nil
		}

		fmt.Printf("\n%-36s  %-24s  %-9s  %-11s  %s\n", "ID", "TITLE", "KIND", "SUBSCRIBERS", "CREATED")
		fmt.Println(strings.Repeat("-", 100))
		for _, c := range list {
			fmt.Printf("%-36s  %-24s  %-9s  %-11d  %s\n",
				c.ID,
				truncate(c.Title, 24),
				c.Kind,
				c.SubscribersCount,
				c.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		fmt.Printf("\nTotal: %d channel(s)\n", len(list))
		return nil
	},
}

var channelRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStorage(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		existing, err := db.Channels().GetByID(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get channel: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("channel not found: %s", args[0])
		}
		if err := db.Channels().Delete(ctx, args[0]); err != nil {
			return fmt.Errorf("delete channel: %w", err)
		}
		fmt.Printf("Channel removed: %s\n", existing.Title)
		return nil
	},
}

func init() {
	channelAddCmd.Flags().StringVar(&channelTitle, "title", "", "channel title")
	channelAddCmd.Flags().StringVar(&channelKind, "kind", "telegram", "channel kind (telegram, slack, teams)")
	channelAddCmd.Flags().StringVar(&channelTarget, "target", "", "telegram chat id or webhook URL")
	channelAddCmd.Flags().IntVar(&channelSubscribers, "subscribers", 0, "subscriber count shown to users")

	channelCmd.AddCommand(channelAddCmd)
	channelCmd.AddCommand(channelListCmd)
	channelCmd.AddCommand(channelRemoveCmd)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-2]) + ".."
}

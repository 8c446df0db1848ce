package models

import (
	"time"
)

// ChannelKind is the messaging platform behind a channel.
type ChannelKind string

const (
	ChannelTelegram ChannelKind = "telegram"
	ChannelSlack    ChannelKind = "slack"
	ChannelTeams    ChannelKind = "teams"
)

// Channel is an external publishing destination.
type Channel struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	SubscribersCount int         `json:"subscribers_count"`
	Kind             ChannelKind `json:"kind"`
	Target           string      `json:"-"` // chat id or webhook URL, never exposed
	CreatedAt        time.Time   `json:"created_at"`
}

// ParseChannelKind converts a string to ChannelKind.
func ParseChannelKind(s string) (ChannelKind, bool) {
	switch s {
	case "telegram":
		return ChannelTelegram, true
	case "slack":
		return ChannelSlack, true
	case "teams":
		return ChannelTeams, true
	default:
		return "", false
	}
}

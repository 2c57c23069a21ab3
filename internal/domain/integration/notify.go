package integration

import (
	"context"
	"time"
)

// Notification is a message to deliver to staff
type Notification struct {
	Type      string         `json:"type"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	Recipient string         `json:"recipient,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NotifyPort delivers notifications
type NotifyPort interface {
	// Name identifies the provider in logs
	Name() string
	Send(ctx context.Context, n Notification) error
}

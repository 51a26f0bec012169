package store

import "context"

type Chat struct {
	ID        string
	Title     string
	Profile   string
	CreatedAt string
	UpdatedAt string
}

type ChatSummary struct {
	ID           string
	Title        string
	Profile      string
	CreatedAt    string
	UpdatedAt    string
	MessageCount int64
}

type Message struct {
	ID        string
	ChatID    string
	Role      string
	Content   string
	CreatedAt string
	Metadata  map[string]any
}

type Store interface {
	CreateChat(ctx context.Context, chat Chat) error
	ListChats(ctx context.Context) ([]ChatSummary, error)
	GetChat(ctx context.Context, chatID string) (*Chat, error)
	DeleteChat(ctx context.Context, chatID string) error
	AddMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context, chatID string) ([]Message, error)
	Ping(ctx context.Context) error
	Close() error
}

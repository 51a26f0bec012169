package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/SFDC-Veteran/planai-AI/internal/store"
)

type PostgresStore struct {
	db *sql.DB
}

var openDB = sql.Open

func New(conn string) (*PostgresStore, error) {
	db, err := openDB("pgx", conn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := verifySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func verifySchema(ctx context.Context, db *sql.DB) error {
	required := []string{
		"chats",
		"messages",
	}
	for _, table := range required {
		var regclass sql.NullString
		if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)", fmt.Sprintf("public.%s", table)).Scan(&regclass); err != nil {
			return err
		}
		if !regclass.Valid {
			return fmt.Errorf("database schema missing: %s table not found (run infra/migrations/001_init.sql)", table)
		}
	}
	return nil
}

func (p *PostgresStore) CreateChat(ctx context.Context, chat store.Chat) error {
	profile := strings.TrimSpace(chat.Profile)
	if profile == "" {
		profile = "webSearch"
	}
	const query = `
		INSERT INTO chats (id, title, profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := p.db.ExecContext(
		ctx,
		query,
		chat.ID,
		chat.Title,
		profile,
		chat.CreatedAt,
		chat.UpdatedAt,
	)
	return err
}

func (p *PostgresStore) ListChats(ctx context.Context) ([]store.ChatSummary, error) {
	const query = `
		SELECT c.id, c.title, c.profile, c.created_at, c.updated_at, COALESCE(m.count, 0)
		FROM chats c
		LEFT JOIN (
			SELECT chat_id, COUNT(*) AS count
			FROM messages
			GROUP BY chat_id
		) m ON m.chat_id = c.id
		ORDER BY c.updated_at DESC
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []store.ChatSummary{}
	for rows.Next() {
		var createdAt, updatedAt time.Time
		var chat store.ChatSummary
		if err := rows.Scan(&chat.ID, &chat.Title, &chat.Profile, &createdAt, &updatedAt, &chat.MessageCount); err != nil {
			return nil, err
		}
		chat.CreatedAt = createdAt.UTC().Format(time.RFC3339Nano)
		chat.UpdatedAt = updatedAt.UTC().Format(time.RFC3339Nano)
		results = append(results, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *PostgresStore) GetChat(ctx context.Context, chatID string) (*store.Chat, error) {
	const query = `
		SELECT id, title, profile, created_at, updated_at
		FROM chats
		WHERE id = $1
	`
	var createdAt, updatedAt time.Time
	var chat store.Chat
	err := p.db.QueryRowContext(ctx, query, chatID).Scan(&chat.ID, &chat.Title, &chat.Profile, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	chat.CreatedAt = createdAt.UTC().Format(time.RFC3339Nano)
	chat.UpdatedAt = updatedAt.UTC().Format(time.RFC3339Nano)
	return &chat, nil
}

func (p *PostgresStore) DeleteChat(ctx context.Context, chatID string) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM chats WHERE id = $1", chatID)
	return err
}

func (p *PostgresStore) AddMessage(ctx context.Context, msg store.Message) error {
	id := strings.TrimSpace(msg.ID)
	if id == "" {
		id = uuid.NewString()
	}
	metadataBytes, err := json.Marshal(msg.Metadata)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO messages (id, chat_id, role, content, created_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = p.db.ExecContext(
		ctx,
		query,
		id,
		msg.ChatID,
		msg.Role,
		msg.Content,
		msg.CreatedAt,
		metadataBytes,
	)
	return err
}

func (p *PostgresStore) ListMessages(ctx context.Context, chatID string) ([]store.Message, error) {
	const query = `
		SELECT id, chat_id, role, content, created_at, metadata
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`
	rows, err := p.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []store.Message{}
	for rows.Next() {
		var createdAt time.Time
		var metadataBytes []byte
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &createdAt, &metadataBytes); err != nil {
			return nil, err
		}
		msg.CreatedAt = createdAt.UTC().Format(time.RFC3339Nano)
		if len(metadataBytes) > 0 {
			metadata := map[string]any{}
			if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
				return nil, err
			}
			msg.Metadata = metadata
		} else {
			msg.Metadata = map[string]any{}
		}
		results = append(results, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

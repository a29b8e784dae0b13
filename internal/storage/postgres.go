// Package storage persists users, listings and social posts in Postgres, and
// conversation snapshots in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/yonasy/telegram-house-bot/internal/listing"
)

// PostgresConfig holds connection settings for the listings database.
type PostgresConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"ssl_mode" envconfig:"DB_SSL_MODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// DSN returns the keyword/value connection string for lib/pq.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// URL returns the postgres:// form used by golang-migrate.
func (c PostgresConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// Store gives access to the relational data behind the bot and the admin API.
type Store struct {
	db *sqlx.DB
}

// Connect opens the Postgres pool and verifies connectivity.
func Connect(ctx context.Context, cfg PostgresConfig) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}
	log.Info().Str("host", cfg.Host).Str("db", cfg.Name).Msg("connected to postgres")
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection. Used by tests.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// TelegramIdentity is the part of a Telegram user we mirror into the users table.
type TelegramIdentity struct {
	TelegramID int64
	UserName   string
	FirstName  string
	LastName   string
}

// FindOrCreateUser resolves the internal user for a Telegram account, creating
// the row on first contact. Profile fields are refreshed on every call so the
// mirror does not go stale.
func (s *Store) FindOrCreateUser(ctx context.Context, id TelegramIdentity) (listing.User, error) {
	var u listing.User
	err := s.db.GetContext(ctx, &u, `
		INSERT INTO users (telegram_id, telegram_user_name, first_name, last_name, role)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), 'user')
		ON CONFLICT (telegram_id) DO UPDATE SET
			telegram_user_name = EXCLUDED.telegram_user_name,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name
		RETURNING id, telegram_id, telegram_user_name, first_name, last_name, role
	`, id.TelegramID, id.UserName, id.FirstName, id.LastName)
	if err != nil {
		return listing.User{}, fmt.Errorf("find or create user: %w", err)
	}
	return u, nil
}

// GetUserByID returns the user with the given internal id, or nil if absent.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*listing.User, error) {
	var u listing.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// GetUserByTelegramID returns the user for a Telegram account, or nil if absent.
func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (*listing.User, error) {
	var u listing.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return &u, nil
}

// CreateListing inserts a listing and its photos in a single transaction.
// The listing starts out Pending.
func (s *Store) CreateListing(ctx context.Context, nl listing.NewListing) (listing.Listing, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return listing.Listing{}, fmt.Errorf("begin create listing: %w", err)
	}
	defer tx.Rollback()

	var l listing.Listing
	err = tx.GetContext(ctx, &l, `
		INSERT INTO listings
			(available_for, house_type, title, description, rooms, bathrooms,
			 price, location, owner_id, approval_status, apply_via_telegram, apply_phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING *
	`, nl.AvailableFor, nl.HouseType, nl.Title, nl.Description, nl.Rooms, nl.Bathrooms,
		nl.Price, nl.Location, nl.OwnerID, listing.StatusPending, nl.ApplyViaTelegram, nl.ApplyPhoneNumber)
	if err != nil {
		return listing.Listing{}, fmt.Errorf("insert listing: %w", err)
	}

	for i, url := range nl.Photos {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO listing_photos (listing_id, position, url) VALUES ($1, $2, $3)
		`, l.ID, i, url); err != nil {
			return listing.Listing{}, fmt.Errorf("insert listing photo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return listing.Listing{}, fmt.Errorf("commit create listing: %w", err)
	}
	l.Photos = append([]string(nil), nl.Photos...)
	return l, nil
}

// GetListingByID returns the listing and its photos, or nil if absent.
func (s *Store) GetListingByID(ctx context.Context, id int64) (*listing.Listing, error) {
	var l listing.Listing
	err := s.db.GetContext(ctx, &l, `SELECT * FROM listings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if err := s.loadPhotos(ctx, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetListingsByStatus returns listings in any of the given statuses, newest
// first, with photos attached. Used by the admin listing API.
func (s *Store) GetListingsByStatus(ctx context.Context, statuses ...listing.ApprovalStatus) ([]listing.Listing, error) {
	query, args, err := sqlx.In(
		`SELECT * FROM listings WHERE approval_status IN (?) ORDER BY created_at DESC`, statuses)
	if err != nil {
		return nil, fmt.Errorf("build status query: %w", err)
	}
	var listings []listing.Listing
	if err := s.db.SelectContext(ctx, &listings, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get listings by status: %w", err)
	}
	for i := range listings {
		if err := s.loadPhotos(ctx, &listings[i]); err != nil {
			return nil, err
		}
	}
	return listings, nil
}

func (s *Store) loadPhotos(ctx context.Context, l *listing.Listing) error {
	err := s.db.SelectContext(ctx, &l.Photos, `
		SELECT url FROM listing_photos WHERE listing_id = $1 ORDER BY position
	`, l.ID)
	if err != nil {
		return fmt.Errorf("load listing photos: %w", err)
	}
	return nil
}

// ApproveListing flips a Pending listing to Active. The predicate encodes the
// required prior state, so under concurrent calls at most one sees 1 affected
// row; the rest see 0 and must treat it as "already handled or missing".
func (s *Store) ApproveListing(ctx context.Context, id int64) (int64, error) {
	return s.transition(ctx, `
		UPDATE listings SET approval_status = $1
		WHERE id = $2 AND approval_status = $3
	`, listing.StatusActive, id, listing.StatusPending)
}

// DeclineListing flips a Pending listing to Declined.
func (s *Store) DeclineListing(ctx context.Context, id int64) (int64, error) {
	return s.transition(ctx, `
		UPDATE listings SET approval_status = $1
		WHERE id = $2 AND approval_status = $3
	`, listing.StatusDeclined, id, listing.StatusPending)
}

// CloseListing flips a Pending or Active listing to Closed, but only for its
// owner.
func (s *Store) CloseListing(ctx context.Context, id, ownerID int64) (int64, error) {
	return s.transition(ctx, `
		UPDATE listings SET approval_status = $1
		WHERE id = $2 AND owner_id = $3 AND approval_status IN ($4, $5)
	`, listing.StatusClosed, id, ownerID, listing.StatusPending, listing.StatusActive)
}

func (s *Store) transition(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("listing status transition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("listing status transition: %w", err)
	}
	return affected, nil
}

// CreateSocialPost records the channel message a listing was broadcast as.
func (s *Store) CreateSocialPost(ctx context.Context, listingID int64, telegramMessageID int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO social_posts (listing_id, telegram_message_id) VALUES ($1, $2)
	`, listingID, telegramMessageID)
	if err != nil {
		return fmt.Errorf("create social post: %w", err)
	}
	return nil
}

// GetSocialPost returns the social post for a listing, or nil if it was never
// broadcast.
func (s *Store) GetSocialPost(ctx context.Context, listingID int64) (*listing.SocialPost, error) {
	var p listing.SocialPost
	err := s.db.GetContext(ctx, &p, `SELECT * FROM social_posts WHERE listing_id = $1`, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get social post: %w", err)
	}
	return &p, nil
}

// Package bot receives Telegram updates and drives the listing wizard, a
// persisted per-user state machine. Updates for the same user are serialized
// through a session worker; the machine's snapshot lives in the session store
// between updates.
package bot

import (
	"bytes"
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/yonasy/telegram-house-bot/internal/channel"
	"github.com/yonasy/telegram-house-bot/internal/listing"
	"github.com/yonasy/telegram-house-bot/internal/storage"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// UserStore resolves chat identities to internal users.
type UserStore interface {
	FindOrCreateUser(ctx context.Context, id storage.TelegramIdentity) (listing.User, error)
}

// ListingCreator persists a completed draft as a Pending listing.
type ListingCreator interface {
	CreateListing(ctx context.Context, nl listing.NewListing) (listing.Listing, error)
}

// PhotoPublisher turns the draft's Telegram file references into stored URLs.
type PhotoPublisher interface {
	PublishPhotos(ctx context.Context, fileIDs []string) ([]string, error)
}

// ListingSender renders a listing card into a chat, used for the preview.
type ListingSender interface {
	SendListing(chatID int64, l listing.Listing, replyMarkup interface{}, followupText string) (tgbotapi.Message, error)
}

// CloseHandler handles the owner's close-listing button press.
type CloseHandler interface {
	Close(ctx context.Context, telegramUserID int64, callbackID string, listingID int64)
}

// Bot is the update dispatcher plus the conversation engine.
type Bot struct {
	tg        BotAPI
	state     BotState
	snapshots storage.SessionStore
	users     UserStore
	listings  ListingCreator
	publisher PhotoPublisher
	sender    ListingSender
	closer    CloseHandler
	catalog   *Catalog
}

// NewBot wires the dispatcher. publisher may be nil, in which case drafts are
// saved with their Telegram file references as photo URLs.
func NewBot(
	tg BotAPI,
	snapshots storage.SessionStore,
	users UserStore,
	listings ListingCreator,
	publisher PhotoPublisher,
	sender ListingSender,
	closer CloseHandler,
) *Bot {
	bot := &Bot{
		tg:        tg,
		snapshots: snapshots,
		users:     users,
		listings:  listings,
		publisher: publisher,
		sender:    sender,
		closer:    closer,
		catalog:   DefaultCatalog(),
	}
	bot.state = bot.NewBotState()
	return bot
}

// Shutdown stops the session workers.
func (b *Bot) Shutdown() {
	b.state.Shutdown()
}

// HandleUpdate routes one inbound update to the sender's session worker and
// returns without waiting for it to be processed.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync waits for processing to complete. Used in tests.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var userId int64
	switch {
	case update.CallbackQuery != nil:
		userId = update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		userId = update.Message.From.ID
	default:
		return
	}

	session := b.state.getUserSession(userId)

	msg := SessionMessage{
		Ctx:           ctx,
		Message:       update.Message,
		CallbackQuery: update.CallbackQuery,
	}
	if sync {
		session.SendSync(msg)
	} else {
		session.Send(msg)
	}
}

// HandleSessionMessage implements MessageHandler. Called from the session
// worker goroutine, so session state needs no locking.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch {
	case msg.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, msg.CallbackQuery)
	case msg.Message != nil:
		b.handleMessage(ctx, session, msg.Message)
	}
}

// handleCallbackQuery parses the opaque callback payload into a typed event.
// Unparseable payloads are logged and dropped: no state mutation, no crash.
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	payload, err := channel.ParseCallbackPayload(query.Data)
	if err != nil {
		log.Warn().Err(err).Str("data", query.Data).Msg("problem parsing event from callback data")
		return
	}

	switch payload.Event {
	case channel.EventCloseListing:
		listingID, err := payload.ListingID()
		if err != nil {
			log.Warn().Err(err).Str("data", query.Data).Msg("problem parsing event from callback data")
			return
		}
		b.closer.Close(ctx, query.From.ID, query.ID, listingID)
	default:
		log.Warn().Str("event", payload.Event).Msg("unknown callback event")
	}
}

// handleMessage loads (or creates) the user's conversation snapshot, feeds the
// message to the wizard, and persists the snapshot only when it changed.
func (b *Bot) handleMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	snap, err := b.loadSnapshot(ctx, message.From)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userId).Msg("failed to load session")
		return
	}

	before, err := snap.encode()
	if err != nil {
		log.Error().Err(err).Send()
		return
	}

	b.runWizard(ctx, session, snap, message)

	after, err := snap.encode()
	if err != nil {
		log.Error().Err(err).Send()
		return
	}
	if bytes.Equal(before, after) {
		return
	}
	if err := b.snapshots.Save(snap.TelegramUserID, after); err != nil {
		log.Error().Err(err).Int64("userId", session.userId).Msg("failed to persist session snapshot")
	}
}

// loadSnapshot resolves the sender's identity and restores their persisted
// snapshot, or synthesizes a fresh one at the main menu. Identity resolution
// runs on every message so the users-table profile mirror stays current even
// mid-session. A snapshot that fails to deserialize counts as no snapshot:
// the user simply starts over.
func (b *Bot) loadSnapshot(ctx context.Context, from *tgbotapi.User) (*Snapshot, error) {
	user, err := b.users.FindOrCreateUser(ctx, storage.TelegramIdentity{
		TelegramID: from.ID,
		UserName:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	})
	if err != nil {
		return nil, err
	}

	raw, err := b.snapshots.Get(from.ID)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		snap, err := decodeSnapshot(raw)
		if err == nil {
			snap.UserID = user.ID
			return snap, nil
		}
		log.Warn().Err(err).Int64("userId", from.ID).Msg("discarding unreadable session snapshot")
	}

	return &Snapshot{
		State:          StepMainMenu,
		UserID:         user.ID,
		TelegramUserID: from.ID,
	}, nil
}

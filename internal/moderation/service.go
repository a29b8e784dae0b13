// Package moderation implements the listing review workflow: approving and
// declining pending listings, broadcasting approved ones to the channel, and
// letting owners close their listings again.
package moderation

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/yonasy/telegram-house-bot/internal/channel"
	"github.com/yonasy/telegram-house-bot/internal/listing"
)

// ErrNotPending is returned when an approve or decline finds the listing
// missing or already past review. The status predicate lives in the UPDATE
// itself, so concurrent moderators cannot both win.
var ErrNotPending = errors.New("listing is not pending review")

// Store is the relational surface the workflow needs.
type Store interface {
	GetListingByID(ctx context.Context, id int64) (*listing.Listing, error)
	GetUserByID(ctx context.Context, id int64) (*listing.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*listing.User, error)
	ApproveListing(ctx context.Context, id int64) (int64, error)
	DeclineListing(ctx context.Context, id int64) (int64, error)
	CloseListing(ctx context.Context, id, ownerID int64) (int64, error)
	CreateSocialPost(ctx context.Context, listingID int64, telegramMessageID int) error
	GetSocialPost(ctx context.Context, listingID int64) (*listing.SocialPost, error)
}

// Gateway is the outbound Telegram surface the workflow needs.
type Gateway interface {
	BroadcastListing(l listing.Listing) (int, error)
	EditBroadcastClosed(messageID int, l listing.Listing) error
	SendListing(chatID int64, l listing.Listing, replyMarkup interface{}, followupText string) (tgbotapi.Message, error)
	SendText(chatID int64, text string)
	AnswerCallback(callbackID, text string, showAlert bool)
}

// Service drives listing status transitions and their side effects.
type Service struct {
	store   Store
	gateway Gateway
}

func NewService(store Store, gateway Gateway) *Service {
	return &Service{store: store, gateway: gateway}
}

// Approve flips a Pending listing to Active, then broadcasts it to the channel
// and notifies the owner. The status change is the committed outcome; the
// broadcast and the notification are best-effort afterwards, so a Telegram
// outage cannot roll an approval back.
func (s *Service) Approve(ctx context.Context, id int64) error {
	affected, err := s.store.ApproveListing(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotPending
	}
	log.Info().Int64("listingId", id).Msg("listing approved")

	l, err := s.store.GetListingByID(ctx, id)
	if err != nil || l == nil {
		log.Error().Err(err).Int64("listingId", id).Msg("failed to load approved listing for broadcast")
		return nil
	}

	messageID, err := s.gateway.BroadcastListing(*l)
	if err != nil {
		log.Error().Err(err).Int64("listingId", id).Msg("failed to broadcast approved listing")
	} else if err := s.store.CreateSocialPost(ctx, id, messageID); err != nil {
		log.Error().Err(err).Int64("listingId", id).Msg("failed to record social post")
	}

	s.notifyOwner(ctx, *l, true)
	return nil
}

// Decline flips a Pending listing to Declined and notifies the owner.
func (s *Service) Decline(ctx context.Context, id int64) error {
	affected, err := s.store.DeclineListing(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotPending
	}
	log.Info().Int64("listingId", id).Msg("listing declined")

	l, err := s.store.GetListingByID(ctx, id)
	if err != nil || l == nil {
		log.Error().Err(err).Int64("listingId", id).Msg("failed to load declined listing for notification")
		return nil
	}
	s.notifyOwner(ctx, *l, false)
	return nil
}

// Close handles the owner pressing the close button under their listing copy.
// The owner check happens in the same conditioned update as the status check;
// someone else's button press simply affects zero rows. The answer to the
// callback carries the outcome, as an alert when it failed.
func (s *Service) Close(ctx context.Context, telegramUserID int64, callbackID string, listingID int64) {
	user, err := s.store.GetUserByTelegramID(ctx, telegramUserID)
	if err != nil || user == nil {
		log.Error().Err(err).Int64("telegramUserId", telegramUserID).Msg("failed to resolve user closing listing")
		s.gateway.AnswerCallback(callbackID, closeFailedText, true)
		return
	}

	affected, err := s.store.CloseListing(ctx, listingID, user.ID)
	if err != nil {
		log.Error().Err(err).Int64("listingId", listingID).Msg("failed to close listing")
		s.gateway.AnswerCallback(callbackID, closeFailedText, true)
		return
	}
	if affected == 0 {
		s.gateway.AnswerCallback(callbackID, closeNotAllowedText, true)
		return
	}
	log.Info().Int64("listingId", listingID).Int64("userId", user.ID).Msg("listing closed by owner")

	// Rewrite the channel broadcast, if there ever was one. The close itself
	// stands even when the edit fails; the alert tells the owner which case
	// they are in.
	if err := s.markBroadcastClosed(ctx, listingID); err != nil {
		log.Error().Err(err).Int64("listingId", listingID).Msg("failed to update channel post for closed listing")
		s.gateway.AnswerCallback(callbackID, closedEditFailedText, true)
		return
	}
	s.gateway.AnswerCallback(callbackID, closedText, false)
}

func (s *Service) markBroadcastClosed(ctx context.Context, listingID int64) error {
	post, err := s.store.GetSocialPost(ctx, listingID)
	if err != nil {
		return err
	}
	if post == nil {
		return nil
	}
	l, err := s.store.GetListingByID(ctx, listingID)
	if err != nil {
		return err
	}
	if l == nil {
		return errors.New("closed listing vanished")
	}
	return s.gateway.EditBroadcastClosed(post.TelegramMessageID, *l)
}

// notifyOwner tells the listing's owner about the review outcome. Approved
// listings come with a copy of the card and an inline close button so the
// owner can take the listing down later.
func (s *Service) notifyOwner(ctx context.Context, l listing.Listing, approved bool) {
	owner, err := s.store.GetUserByID(ctx, l.OwnerID)
	if err != nil || owner == nil {
		log.Error().Err(err).Int64("ownerId", l.OwnerID).Msg("failed to resolve listing owner for notification")
		return
	}

	if !approved {
		s.gateway.SendText(owner.TelegramID, declinedNoticeText)
		return
	}

	s.gateway.SendText(owner.TelegramID, approvedNoticeText)
	keyboard := closeKeyboard(l.ID)
	if _, err := s.gateway.SendListing(owner.TelegramID, l, keyboard, ownerCopyFollowupText); err != nil {
		log.Error().Err(err).Int64("listingId", l.ID).Msg("failed to send owner copy of approved listing")
	}
}

// closeKeyboard builds the inline keyboard with the owner's close button. The
// callback payload round-trips through Telegram as opaque data.
func closeKeyboard(listingID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnCloseListing, channel.EncodeCloseListing(listingID)),
		),
	)
}

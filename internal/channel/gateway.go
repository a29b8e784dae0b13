// Package channel is the outbound side of the bot: it formats listing cards
// and sends, edits and acknowledges messages against the Telegram API.
package channel

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/yonasy/telegram-house-bot/internal/listing"
)

// BotAPI defines the Telegram operations the gateway needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
}

// Gateway sends listing broadcasts to the public channel and plain messages to
// individual chats.
type Gateway struct {
	tg              BotAPI
	channelUsername string
}

// NewGateway creates a Gateway. channelUsername is the public channel name
// without the leading @.
func NewGateway(tg BotAPI, channelUsername string) *Gateway {
	return &Gateway{tg: tg, channelUsername: strings.TrimPrefix(channelUsername, "@")}
}

func (g *Gateway) channel() string {
	return "@" + g.channelUsername
}

// FormatListingMessage renders the Markdown listing card. Optional fields are
// omitted from the card entirely when unset.
func FormatListingMessage(l listing.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*📝 Title:* ``` %s ```\n", l.Title)
	fmt.Fprintf(&b, "\n*🤝 Available For:* `%s`\n", l.AvailableFor)
	fmt.Fprintf(&b, "\n*🏘 House Type:* `%s`", l.HouseType)
	if l.Location != nil && *l.Location != "" {
		fmt.Fprintf(&b, "\n\n*📍 Location:* ``` %s ```", *l.Location)
	}
	if l.Price != nil && *l.Price != "" {
		fmt.Fprintf(&b, "\n\n*💲 Price:* ``` %s ```", *l.Price)
	}
	if l.Rooms != nil {
		fmt.Fprintf(&b, "\n\n*🚪 Rooms:* ```%d```", *l.Rooms)
	}
	if l.Bathrooms != nil {
		fmt.Fprintf(&b, "\n\n*🛁 Bathrooms:* ```%d```", *l.Bathrooms)
	}
	if l.Description != nil && *l.Description != "" {
		fmt.Fprintf(&b, "\n\n*📜 Description:* ``` %s ```", *l.Description)
	}
	return b.String()
}

const closedNotice = "\n\n*🚫 This listing is closed.*"

// photoMedia accepts both stored public URLs and Telegram file ids so previews
// can reuse the draft's provisional references.
func photoMedia(ref string) tgbotapi.RequestFileData {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tgbotapi.FileURL(ref)
	}
	return tgbotapi.FileID(ref)
}

// BroadcastListing posts the listing to the public channel and returns the
// broadcast's message id. A single photo becomes a captioned photo, several
// photos a grouped album with the caption on the first item, none a plain
// formatted text message.
func (g *Gateway) BroadcastListing(l listing.Listing) (int, error) {
	text := FormatListingMessage(l)

	switch {
	case len(l.Photos) == 1:
		photo := tgbotapi.NewPhotoToChannel(g.channel(), photoMedia(l.Photos[0]))
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeMarkdown
		sent, err := g.tg.Send(photo)
		if err != nil {
			return 0, fmt.Errorf("broadcast photo: %w", err)
		}
		return sent.MessageID, nil

	case len(l.Photos) > 1:
		group := tgbotapi.MediaGroupConfig{
			ChannelUsername: g.channel(),
			Media:           albumMedia(l.Photos, text),
		}
		sent, err := g.tg.SendMediaGroup(group)
		if err != nil {
			return 0, fmt.Errorf("broadcast album: %w", err)
		}
		if len(sent) == 0 {
			return 0, fmt.Errorf("broadcast album: empty response")
		}
		return sent[0].MessageID, nil

	default:
		msg := tgbotapi.NewMessageToChannel(g.channel(), text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		sent, err := g.tg.Send(msg)
		if err != nil {
			return 0, fmt.Errorf("broadcast text: %w", err)
		}
		return sent.MessageID, nil
	}
}

func albumMedia(photos []string, caption string) []interface{} {
	media := make([]interface{}, 0, len(photos))
	for i, ref := range photos {
		item := tgbotapi.NewInputMediaPhoto(photoMedia(ref))
		if i == 0 {
			item.Caption = caption
			item.ParseMode = tgbotapi.ModeMarkdown
		}
		media = append(media, item)
	}
	return media
}

// EditBroadcastClosed rewrites the channel broadcast to reflect that the
// listing was closed. Photo broadcasts carry the card as a caption, so the
// edit targets the caption; text broadcasts edit the message text.
func (g *Gateway) EditBroadcastClosed(messageID int, l listing.Listing) error {
	text := FormatListingMessage(l) + closedNotice
	base := tgbotapi.BaseEdit{ChannelUsername: g.channel(), MessageID: messageID}

	var edit tgbotapi.Chattable
	if len(l.Photos) > 0 {
		edit = tgbotapi.EditMessageCaptionConfig{BaseEdit: base, Caption: text, ParseMode: tgbotapi.ModeMarkdown}
	} else {
		edit = tgbotapi.EditMessageTextConfig{BaseEdit: base, Text: text, ParseMode: tgbotapi.ModeMarkdown}
	}
	if _, err := g.tg.Send(edit); err != nil {
		return fmt.Errorf("edit broadcast: %w", err)
	}
	return nil
}

// SendListing sends a listing card to a private chat, used for the wizard
// preview and for the owner's copy of an approved listing. replyMarkup may be
// nil. Albums cannot carry a keyboard, so when one is needed it goes on a
// follow-up message with followupText.
func (g *Gateway) SendListing(chatID int64, l listing.Listing, replyMarkup interface{}, followupText string) (tgbotapi.Message, error) {
	text := FormatListingMessage(l)

	switch {
	case len(l.Photos) == 1:
		photo := tgbotapi.NewPhoto(chatID, photoMedia(l.Photos[0]))
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeMarkdown
		if replyMarkup != nil {
			photo.ReplyMarkup = replyMarkup
		}
		return g.tg.Send(photo)

	case len(l.Photos) > 1:
		group := tgbotapi.MediaGroupConfig{
			ChatID: chatID,
			Media:  albumMedia(l.Photos, text),
		}
		sent, err := g.tg.SendMediaGroup(group)
		if err != nil {
			return tgbotapi.Message{}, err
		}
		first := tgbotapi.Message{}
		if len(sent) > 0 {
			first = sent[0]
		}
		if replyMarkup != nil {
			followup := tgbotapi.NewMessage(chatID, followupText)
			followup.ReplyMarkup = replyMarkup
			if _, err := g.tg.Send(followup); err != nil {
				return first, err
			}
		}
		return first, nil

	default:
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if replyMarkup != nil {
			msg.ReplyMarkup = replyMarkup
		}
		return g.tg.Send(msg)
	}
}

// SendText sends a plain Markdown message to a chat. Delivery failures are
// logged, not returned: callers treat notification sends as fire-and-forget.
func (g *Gateway) SendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := g.tg.Send(msg); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("failed to send message")
	}
}

// AnswerCallback acknowledges an inline-button press, optionally as an alert.
func (g *Gateway) AnswerCallback(callbackID, text string, showAlert bool) {
	callback := tgbotapi.NewCallback(callbackID, text)
	callback.ShowAlert = showAlert
	if _, err := g.tg.Request(callback); err != nil {
		log.Error().Err(err).Str("callbackID", callbackID).Msg("failed to answer callback")
	}
}

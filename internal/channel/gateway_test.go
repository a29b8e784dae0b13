package channel

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonasy/telegram-house-bot/internal/listing"
)

func ptr[T any](v T) *T { return &v }

// fakeAPI records what the gateway sends.
type fakeAPI struct {
	sent   []tgbotapi.Chattable
	albums []tgbotapi.MediaGroupConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 100 + len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.sent = append(f.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	f.albums = append(f.albums, config)
	return []tgbotapi.Message{{MessageID: 200}, {MessageID: 201}}, nil
}

func sampleListing() listing.Listing {
	return listing.Listing{
		ID:           1,
		AvailableFor: listing.ForSale,
		HouseType:    listing.Condominium,
		Title:        "Sunny condo",
	}
}

func TestFormatListingMessage_RequiredFieldsOnly(t *testing.T) {
	text := FormatListingMessage(sampleListing())

	assert.Contains(t, text, "*📝 Title:* ``` Sunny condo ```")
	assert.Contains(t, text, "*🤝 Available For:* `Sale`")
	assert.Contains(t, text, "*🏘 House Type:* `Condominium`")
	assert.NotContains(t, text, "Price")
	assert.NotContains(t, text, "Rooms")
	assert.NotContains(t, text, "Description")
	assert.NotContains(t, text, "Location")
}

func TestFormatListingMessage_AllFields(t *testing.T) {
	l := sampleListing()
	l.Location = ptr("Bole, Addis Ababa")
	l.Price = ptr("4.5M birr")
	l.Rooms = ptr(3)
	l.Bathrooms = ptr(2)
	l.Description = ptr("South facing, quiet street")

	text := FormatListingMessage(l)
	assert.Contains(t, text, "*📍 Location:* ``` Bole, Addis Ababa ```")
	assert.Contains(t, text, "*💲 Price:* ``` 4.5M birr ```")
	assert.Contains(t, text, "*🚪 Rooms:* ```3```")
	assert.Contains(t, text, "*🛁 Bathrooms:* ```2```")
	assert.Contains(t, text, "*📜 Description:* ``` South facing, quiet street ```")
}

func TestBroadcastListing_NoPhotos(t *testing.T) {
	api := &fakeAPI{}
	g := NewGateway(api, "@houses")

	id, err := g.BroadcastListing(sampleListing())
	require.NoError(t, err)
	assert.NotZero(t, id)

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "@houses", msg.ChannelUsername)
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	assert.Contains(t, msg.Text, "Sunny condo")
}

func TestBroadcastListing_SinglePhoto(t *testing.T) {
	api := &fakeAPI{}
	g := NewGateway(api, "houses")

	l := sampleListing()
	l.Photos = []string{"https://img.test/a.jpg"}

	_, err := g.BroadcastListing(l)
	require.NoError(t, err)

	require.Len(t, api.sent, 1)
	photo, ok := api.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "@houses", photo.ChannelUsername)
	assert.Contains(t, photo.Caption, "Sunny condo")
}

func TestBroadcastListing_Album(t *testing.T) {
	api := &fakeAPI{}
	g := NewGateway(api, "houses")

	l := sampleListing()
	l.Photos = []string{"https://img.test/a.jpg", "https://img.test/b.jpg", "https://img.test/c.jpg"}

	id, err := g.BroadcastListing(l)
	require.NoError(t, err)
	assert.Equal(t, 200, id, "album broadcast id is the first message of the group")

	require.Len(t, api.albums, 1)
	album := api.albums[0]
	assert.Equal(t, "@houses", album.ChannelUsername)
	require.Len(t, album.Media, 3)

	first, ok := album.Media[0].(tgbotapi.InputMediaPhoto)
	require.True(t, ok)
	assert.Contains(t, first.Caption, "Sunny condo", "caption rides on the first album item")

	second, ok := album.Media[1].(tgbotapi.InputMediaPhoto)
	require.True(t, ok)
	assert.Empty(t, second.Caption)
}

func TestEditBroadcastClosed(t *testing.T) {
	api := &fakeAPI{}
	g := NewGateway(api, "houses")

	// Text broadcast: the edit targets the message text
	require.NoError(t, g.EditBroadcastClosed(55, sampleListing()))
	require.Len(t, api.sent, 1)
	textEdit, ok := api.sent[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 55, textEdit.MessageID)
	assert.Equal(t, "@houses", textEdit.ChannelUsername)
	assert.True(t, strings.HasSuffix(textEdit.Text, closedNotice))

	// Photo broadcast: the card lives in the caption
	l := sampleListing()
	l.Photos = []string{"https://img.test/a.jpg"}
	require.NoError(t, g.EditBroadcastClosed(56, l))
	capEdit, ok := api.sent[1].(tgbotapi.EditMessageCaptionConfig)
	require.True(t, ok)
	assert.Equal(t, 56, capEdit.MessageID)
	assert.True(t, strings.HasSuffix(capEdit.Caption, closedNotice))
}

func TestSendListing_AlbumKeyboardOnFollowup(t *testing.T) {
	api := &fakeAPI{}
	g := NewGateway(api, "houses")

	l := sampleListing()
	l.Photos = []string{"a", "b"}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Close listing", "x")),
	)

	_, err := g.SendListing(9, l, keyboard, "Manage your listing below.")
	require.NoError(t, err)

	require.Len(t, api.albums, 1)
	require.Len(t, api.sent, 1, "keyboard goes on a follow-up message")
	followup, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(9), followup.ChatID)
	assert.Equal(t, "Manage your listing below.", followup.Text)
	assert.NotNil(t, followup.ReplyMarkup)
}

func TestPhotoMedia(t *testing.T) {
	assert.Equal(t, tgbotapi.FileURL("https://x/y.jpg"), photoMedia("https://x/y.jpg"))
	assert.Equal(t, tgbotapi.FileID("AgACAgQAAx"), photoMedia("AgACAgQAAx"))
}

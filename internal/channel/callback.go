package channel

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EventCloseListing is the callback event sent when a listing owner taps the
// "mark as rented / sold" button under their approved listing.
const EventCloseListing = "CLOSE_LISTING"

// CallbackPayload is the JSON carried in inline-button callback data. The id
// is a string because Telegram callback data is an opaque string and the
// original button writers always quoted it.
type CallbackPayload struct {
	Event string `json:"event"`
	ID    string `json:"id"`
}

// ListingID parses the payload id.
func (p CallbackPayload) ListingID() (int64, error) {
	id, err := strconv.ParseInt(p.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("callback payload id %q: %w", p.ID, err)
	}
	return id, nil
}

// EncodeCloseListing builds the callback data for the close-listing button.
// Telegram limits callback data to 64 bytes; the JSON form stays well under.
func EncodeCloseListing(listingID int64) string {
	data, _ := json.Marshal(CallbackPayload{
		Event: EventCloseListing,
		ID:    strconv.FormatInt(listingID, 10),
	})
	return string(data)
}

// ParseCallbackPayload decodes callback data into a typed event descriptor.
func ParseCallbackPayload(data string) (CallbackPayload, error) {
	var p CallbackPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return CallbackPayload{}, fmt.Errorf("parse callback payload: %w", err)
	}
	if p.Event == "" {
		return CallbackPayload{}, fmt.Errorf("parse callback payload: missing event")
	}
	return p, nil
}

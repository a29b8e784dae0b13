package bot

import (
	"encoding/json"
	"fmt"

	"github.com/yonasy/telegram-house-bot/internal/listing"
)

// MaxDraftPhotos caps the draft's photo list. Sending more than this keeps the
// most recent ones, oldest dropped first.
const MaxDraftPhotos = 5

// ListingDraft holds the in-progress field values accumulated by the wizard.
// Zero values mean "not set": optional numeric fields use 0, optional strings
// the empty string.
type ListingDraft struct {
	AvailableFor string   `json:"availableFor,omitempty"`
	HouseType    string   `json:"houseType,omitempty"`
	Rooms        int      `json:"rooms,omitempty"`
	Bathrooms    int      `json:"bathrooms,omitempty"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Price        string   `json:"price,omitempty"`
	Photos       []string `json:"photos,omitempty"` // Telegram file ids, oldest first
}

// AddPhoto appends a provisional photo reference, truncating to the most
// recent MaxDraftPhotos. Last-N-wins, not rejection.
func (d *ListingDraft) AddPhoto(fileID string) {
	d.Photos = append(d.Photos, fileID)
	if len(d.Photos) > MaxDraftPhotos {
		d.Photos = d.Photos[len(d.Photos)-MaxDraftPhotos:]
	}
}

// previewListing renders the draft as a listing so the preview can reuse the
// exact outbound formatting. Photos stay as Telegram file ids.
func (d *ListingDraft) previewListing() listing.Listing {
	l := listing.Listing{
		AvailableFor: listing.Availability(d.AvailableFor),
		HouseType:    listing.HouseType(d.HouseType),
		Title:        d.Title,
		Photos:       d.Photos,
	}
	if d.Rooms > 0 {
		rooms := d.Rooms
		l.Rooms = &rooms
	}
	if d.Bathrooms > 0 {
		bathrooms := d.Bathrooms
		l.Bathrooms = &bathrooms
	}
	if d.Description != "" {
		description := d.Description
		l.Description = &description
	}
	if d.Price != "" {
		price := d.Price
		l.Price = &price
	}
	return l
}

// toNewListing builds the storage input from the draft. photoURLs are the
// published URLs replacing the draft's provisional file references.
func (d *ListingDraft) toNewListing(ownerID int64, photoURLs []string) listing.NewListing {
	preview := d.previewListing()
	return listing.NewListing{
		AvailableFor:     preview.AvailableFor,
		HouseType:        preview.HouseType,
		Title:            preview.Title,
		Description:      preview.Description,
		Rooms:            preview.Rooms,
		Bathrooms:        preview.Bathrooms,
		Price:            preview.Price,
		OwnerID:          ownerID,
		ApplyViaTelegram: true,
		Photos:           photoURLs,
	}
}

// Snapshot is the serializable conversation state persisted between updates.
// Resuming from it must be indistinguishable from never having serialized.
type Snapshot struct {
	State          Step         `json:"state"`
	UserID         int64        `json:"userId"`
	TelegramUserID int64        `json:"telegramUserId"`
	Draft          ListingDraft `json:"draft"`
}

func (s *Snapshot) encode() ([]byte, error) {
	return json.Marshal(s)
}

func decodeSnapshot(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if !knownStep(s.State) {
		return nil, fmt.Errorf("decode snapshot: unknown state %q", s.State)
	}
	return &s, nil
}

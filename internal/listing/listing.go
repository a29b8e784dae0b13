// Package listing holds the domain model shared by the bot, the moderation
// workflow and the admin API.
package listing

import (
	"strings"
	"time"
)

// ApprovalStatus is the moderation state of a listing.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "Pending"
	StatusActive   ApprovalStatus = "Active"
	StatusDeclined ApprovalStatus = "Declined"
	StatusClosed   ApprovalStatus = "Closed"
)

// Availability says whether a house is offered for sale or for rent.
type Availability string

const (
	ForSale Availability = "Sale"
	ForRent Availability = "Rent"
)

// HouseType is the kind of property being listed.
type HouseType string

const (
	Apartment          HouseType = "Apartment"
	Condominium        HouseType = "Condominium"
	House              HouseType = "House"
	CommercialProperty HouseType = "Commercial Property"
	HouseRooms         HouseType = "House Rooms"
	GuestHouse         HouseType = "Guest House"
)

var availabilities = []Availability{ForSale, ForRent}

var houseTypes = []HouseType{
	Apartment,
	Condominium,
	House,
	CommercialProperty,
	HouseRooms,
	GuestHouse,
}

// AvailabilityLabels returns the surface labels shown on the wizard keyboard.
func AvailabilityLabels() []string {
	labels := make([]string, 0, len(availabilities))
	for _, a := range availabilities {
		labels = append(labels, string(a))
	}
	return labels
}

// HouseTypeLabels returns the surface labels shown on the wizard keyboard.
func HouseTypeLabels() []string {
	labels := make([]string, 0, len(houseTypes))
	for _, h := range houseTypes {
		labels = append(labels, string(h))
	}
	return labels
}

// ParseAvailability maps a surface label to its canonical value. The second
// return value is false when the label is not a member of the enumeration.
func ParseAvailability(label string) (Availability, bool) {
	for _, a := range availabilities {
		if strings.EqualFold(strings.TrimSpace(label), string(a)) {
			return a, true
		}
	}
	return "", false
}

// ParseHouseType maps a surface label to its canonical value.
func ParseHouseType(label string) (HouseType, bool) {
	for _, h := range houseTypes {
		if strings.EqualFold(strings.TrimSpace(label), string(h)) {
			return h, true
		}
	}
	return "", false
}

// User roles. Admins review listings; everyone else posts them.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an identity resolved from a Telegram account.
type User struct {
	ID               int64   `db:"id"`
	TelegramID       int64   `db:"telegram_id"`
	TelegramUserName *string `db:"telegram_user_name"`
	FirstName        *string `db:"first_name"`
	LastName         *string `db:"last_name"`
	Role             string  `db:"role"`
}

// Listing is a persisted house listing. Photos are stored in a separate table
// and joined in by the storage layer, ordered by position.
type Listing struct {
	ID               int64          `db:"id" json:"id"`
	AvailableFor     Availability   `db:"available_for" json:"available_for"`
	HouseType        HouseType      `db:"house_type" json:"house_type"`
	Title            string         `db:"title" json:"title"`
	Description      *string        `db:"description" json:"description,omitempty"`
	Rooms            *int           `db:"rooms" json:"rooms,omitempty"`
	Bathrooms        *int           `db:"bathrooms" json:"bathrooms,omitempty"`
	Price            *string        `db:"price" json:"price,omitempty"`
	Location         *string        `db:"location" json:"location,omitempty"`
	OwnerID          int64          `db:"owner_id" json:"owner"`
	ApprovalStatus   ApprovalStatus `db:"approval_status" json:"approval_status"`
	CreatedAt        time.Time      `db:"created_at" json:"created"`
	ApplyViaTelegram bool           `db:"apply_via_telegram" json:"apply_via_telegram"`
	ApplyPhoneNumber *string        `db:"apply_phone_number" json:"apply_phone_number,omitempty"`

	Photos []string `db:"-" json:"photos,omitempty"`
}

// NewListing carries the fields of a listing about to be created. The storage
// layer assigns id, created_at and the initial Pending status.
type NewListing struct {
	AvailableFor     Availability
	HouseType        HouseType
	Title            string
	Description      *string
	Rooms            *int
	Bathrooms        *int
	Price            *string
	Location         *string
	OwnerID          int64
	ApplyViaTelegram bool
	ApplyPhoneNumber *string
	Photos           []string
}

// SocialPost links a listing to the channel message it was broadcast as.
// At most one exists per listing, and only for listings that reached Active.
type SocialPost struct {
	ListingID         int64     `db:"listing_id"`
	TelegramMessageID int       `db:"telegram_message_id"`
	CreatedAt         time.Time `db:"created_at"`
}

package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAvailability(t *testing.T) {
	tests := []struct {
		label string
		want  Availability
		ok    bool
	}{
		{"Sale", ForSale, true},
		{"rent", ForRent, true},
		{"  SALE  ", ForSale, true},
		{"Lease", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseAvailability(tt.label)
		assert.Equal(t, tt.ok, ok, "label %q", tt.label)
		assert.Equal(t, tt.want, got, "label %q", tt.label)
	}
}

func TestParseHouseType(t *testing.T) {
	tests := []struct {
		label string
		want  HouseType
		ok    bool
	}{
		{"Apartment", Apartment, true},
		{"guest house", GuestHouse, true},
		{"Commercial Property", CommercialProperty, true},
		{"Igloo", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseHouseType(tt.label)
		assert.Equal(t, tt.ok, ok, "label %q", tt.label)
		assert.Equal(t, tt.want, got, "label %q", tt.label)
	}
}

func TestLabels_MatchEnums(t *testing.T) {
	assert.Equal(t, []string{"Sale", "Rent"}, AvailabilityLabels())
	assert.Len(t, HouseTypeLabels(), 6)

	// Every label round-trips through its parser
	for _, label := range HouseTypeLabels() {
		_, ok := ParseHouseType(label)
		assert.True(t, ok, "label %q", label)
	}
}

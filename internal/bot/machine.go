package bot

import (
	"strconv"
	"strings"

	"github.com/yonasy/telegram-house-bot/internal/listing"
)

// Step identifies a state of the listing wizard. The posting steps form a
// fixed linear order; each one prompts on entry and then waits for input,
// clearing its own field first so re-entering a step never keeps a stale
// value.
type Step string

const (
	StepMainMenu     Step = "mainMenu"
	StepAvailability Step = "posting/availability"
	StepHouseType    Step = "posting/houseType"
	StepRooms        Step = "posting/rooms"
	StepBathrooms    Step = "posting/bathrooms"
	StepTitle        Step = "posting/title"
	StepDescription  Step = "posting/description"
	StepPrice        Step = "posting/price"
	StepPhotos       Step = "posting/photos"
	StepPreview      Step = "posting/preview"
)

// stepDef is one row of the wizard's transition table: the step id, whether
// Skip is allowed, the entry action clearing the step's field, and the guard
// plus transform applied to accepted input. apply returns false when the
// input is rejected, which leaves the machine exactly where it was.
type stepDef struct {
	step     Step
	optional bool
	clear    func(d *ListingDraft)
	apply    func(d *ListingDraft, text string) bool
}

// wizardSteps lists the posting steps in their fixed order. Photos and
// Preview are part of the order for Back navigation but have bespoke input
// handling in the engine.
var wizardSteps = []stepDef{
	{
		step:  StepAvailability,
		clear: func(d *ListingDraft) { d.AvailableFor = "" },
		apply: func(d *ListingDraft, text string) bool {
			availability, ok := listing.ParseAvailability(text)
			if !ok {
				return false
			}
			d.AvailableFor = string(availability)
			return true
		},
	},
	{
		step:  StepHouseType,
		clear: func(d *ListingDraft) { d.HouseType = "" },
		apply: func(d *ListingDraft, text string) bool {
			houseType, ok := listing.ParseHouseType(text)
			if !ok {
				return false
			}
			d.HouseType = string(houseType)
			return true
		},
	},
	{
		step:     StepRooms,
		optional: true,
		clear:    func(d *ListingDraft) { d.Rooms = 0 },
		apply: func(d *ListingDraft, text string) bool {
			n, ok := parsePositiveInt(text)
			if !ok {
				return false
			}
			d.Rooms = n
			return true
		},
	},
	{
		step:     StepBathrooms,
		optional: true,
		clear:    func(d *ListingDraft) { d.Bathrooms = 0 },
		apply: func(d *ListingDraft, text string) bool {
			n, ok := parsePositiveInt(text)
			if !ok {
				return false
			}
			d.Bathrooms = n
			return true
		},
	},
	{
		step:  StepTitle,
		clear: func(d *ListingDraft) { d.Title = "" },
		apply: func(d *ListingDraft, text string) bool {
			text = strings.TrimSpace(text)
			if text == "" {
				return false
			}
			d.Title = text
			return true
		},
	},
	{
		step:     StepDescription,
		optional: true,
		clear:    func(d *ListingDraft) { d.Description = "" },
		apply: func(d *ListingDraft, text string) bool {
			text = strings.TrimSpace(text)
			if text == "" {
				return false
			}
			d.Description = text
			return true
		},
	},
	{
		step:     StepPrice,
		optional: true,
		clear:    func(d *ListingDraft) { d.Price = "" },
		apply: func(d *ListingDraft, text string) bool {
			text = strings.TrimSpace(text)
			if text == "" {
				return false
			}
			d.Price = text
			return true
		},
	},
	{
		step:  StepPhotos,
		clear: func(d *ListingDraft) { d.Photos = nil },
	},
	{
		step: StepPreview,
	},
}

func stepIndex(step Step) int {
	for i, def := range wizardSteps {
		if def.step == step {
			return i
		}
	}
	return -1
}

func knownStep(step Step) bool {
	return step == StepMainMenu || stepIndex(step) >= 0
}

func parsePositiveInt(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

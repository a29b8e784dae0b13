package bot

import "github.com/lithammer/dedent"

// Catalog holds every user-facing text of the wizard, keyed by step where the
// text belongs to one. Swapping the catalog swaps the bot's language without
// touching the transition table.
type Catalog struct {
	// Step prompts
	Prompts map[Step]string

	// Reply-keyboard control labels. Inbound text is matched against these.
	BtnPostListing  string
	BtnBack         string
	BtnSkip         string
	BtnDone         string
	BtnRemovePhotos string
	BtnMainMenu     string

	// General texts
	MainMenu        string
	PhotoAdded      string // takes the current photo count
	PhotosCleared   string
	PreviewFollowup string // sent under multi-photo previews to carry the keyboard
	ListingSaved    string
	SaveFailed      string
}

// DefaultCatalog returns the English catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Prompts: map[Step]string{
			StepAvailability: "Is the house for sale or for rent?",
			StepHouseType:    "What type of house is it?",
			StepRooms:        "How many rooms does it have?",
			StepBathrooms:    "How many bathrooms does it have?",
			StepTitle:        "Give the listing a short title.",
			StepDescription:  "Describe the house. You can skip this step.",
			StepPrice:        "What is the price? You can skip this step.",
			StepPhotos: dedent.Dedent(`
				Send up to 5 photos of the house. Only the 5 most recent ones are kept.
				Press *Done* when you have sent them all.`),
		},

		BtnPostListing:  "Post a listing",
		BtnBack:         "« Back",
		BtnSkip:         "Skip",
		BtnDone:         "Done",
		BtnRemovePhotos: "Remove photos",
		BtnMainMenu:     "Main menu",

		MainMenu:        "What would you like to do?",
		PhotoAdded:      "Photo added. %d in total.",
		PhotosCleared:   "Photos removed. Send new ones.",
		PreviewFollowup: "This is how your listing will look.",
		ListingSaved: dedent.Dedent(`
			Your listing has been submitted! It will be posted on the channel
			once an administrator approves it.`),
		SaveFailed: "Could not save your listing right now. Press *Done* to try again.",
	}
}

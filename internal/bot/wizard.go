package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// runWizard advances the conversation machine by one inbound message. It
// mutates snap in place; the caller persists the snapshot when it changed.
func (b *Bot) runWizard(ctx context.Context, session *UserSession, snap *Snapshot, message *tgbotapi.Message) {
	text := message.Text
	if text == "" {
		text = message.Caption
	}

	// Global escapes work from every step.
	if text == "/start" || text == b.catalog.BtnMainMenu {
		b.toMainMenu(session, snap)
		return
	}

	if snap.State == StepMainMenu {
		if text == b.catalog.BtnPostListing {
			snap.Draft = ListingDraft{}
			b.enterStep(session, snap, 0)
			return
		}
		b.promptMainMenu(session)
		return
	}

	i := stepIndex(snap.State)
	if i < 0 {
		// Unknown state should have been caught at decode time.
		log.Warn().Str("state", string(snap.State)).Int64("userId", session.userId).Msg("resetting unknown wizard state")
		b.toMainMenu(session, snap)
		return
	}

	switch snap.State {
	case StepPhotos:
		b.handlePhotosStep(session, snap, message, text)
	case StepPreview:
		b.handlePreviewStep(ctx, session, snap, text)
	default:
		b.handleFieldStep(session, snap, i, text)
	}
}

// handleFieldStep handles the simple prompt-and-collect steps through the
// transition table. Rejected input causes no transition and no state change;
// the step's prompt and keyboard are still on screen, so the user just tries
// again.
func (b *Bot) handleFieldStep(session *UserSession, snap *Snapshot, i int, text string) {
	def := wizardSteps[i]

	switch text {
	case b.catalog.BtnBack:
		if i == 0 {
			b.toMainMenu(session, snap)
			return
		}
		b.enterStep(session, snap, i-1)
		return
	case b.catalog.BtnSkip:
		// Skip is only offered on optional steps; pressing it from a stale
		// keyboard on a required step must not become the field's value.
		if def.optional {
			b.enterStep(session, snap, i+1)
		}
		return
	}

	if def.apply != nil && def.apply(&snap.Draft, text) {
		b.enterStep(session, snap, i+1)
		return
	}
	log.Debug().
		Int64("userId", session.userId).
		Str("state", string(snap.State)).
		Msg("input rejected by step validator")
}

func (b *Bot) handlePhotosStep(session *UserSession, snap *Snapshot, message *tgbotapi.Message, text string) {
	if len(message.Photo) > 0 {
		// Telegram sends each photo in several sizes; keep the largest.
		largest := message.Photo[len(message.Photo)-1]
		snap.Draft.AddPhoto(largest.FileID)
		session.reply(b.catalog.PhotoAdded, len(snap.Draft.Photos))
		return
	}

	switch text {
	case b.catalog.BtnDone:
		b.enterPreview(session, snap)
	case b.catalog.BtnRemovePhotos:
		snap.Draft.Photos = nil
		session.replyWithKeyboard(stepKeyboard(StepPhotos, b.catalog), b.catalog.PhotosCleared)
	case b.catalog.BtnBack:
		b.enterStep(session, snap, stepIndex(StepPhotos)-1)
	default:
		log.Debug().Int64("userId", session.userId).Msg("ignoring non-photo input on photos step")
	}
}

func (b *Bot) handlePreviewStep(ctx context.Context, session *UserSession, snap *Snapshot, text string) {
	switch text {
	case b.catalog.BtnBack:
		// Re-entering the photos step clears the collected photos, same as
		// re-entering any other step clears its field.
		b.enterStep(session, snap, stepIndex(StepPhotos))
	case b.catalog.BtnDone:
		b.saveListing(ctx, session, snap)
	}
}

// enterStep moves the machine to the step at index i, running the step's
// entry action and sending its prompt. An index past the last table row lands
// on the preview.
func (b *Bot) enterStep(session *UserSession, snap *Snapshot, i int) {
	if i >= len(wizardSteps) {
		i = len(wizardSteps) - 1
	}
	def := wizardSteps[i]
	if def.step == StepPreview {
		b.enterPreview(session, snap)
		return
	}

	snap.State = def.step
	if def.clear != nil {
		def.clear(&snap.Draft)
	}
	session.replyWithKeyboard(stepKeyboard(def.step, b.catalog), b.catalog.Prompts[def.step])
}

// enterPreview renders the draft back to the user exactly as the channel post
// would look. The transition commits even when the outbound send fails; the
// user can still press Done or Back.
func (b *Bot) enterPreview(session *UserSession, snap *Snapshot) {
	snap.State = StepPreview

	preview := snap.Draft.previewListing()
	keyboard := stepKeyboard(StepPreview, b.catalog)
	if _, err := b.sender.SendListing(session.userId, preview, keyboard, b.catalog.PreviewFollowup); err != nil {
		log.Error().Err(err).Int64("userId", session.userId).Msg("failed to send listing preview")
	}
}

// saveListing publishes the draft's photos and persists the listing as
// Pending. Any failure leaves the user on the preview so Done can be pressed
// again; nothing partial is kept.
func (b *Bot) saveListing(ctx context.Context, session *UserSession, snap *Snapshot) {
	photoURLs := snap.Draft.Photos
	if b.publisher != nil && len(snap.Draft.Photos) > 0 {
		urls, err := b.publisher.PublishPhotos(ctx, snap.Draft.Photos)
		if err != nil {
			log.Error().Err(err).Int64("userId", session.userId).Msg("failed to publish listing photos")
			session.reply(b.catalog.SaveFailed)
			return
		}
		photoURLs = urls
	}

	saved, err := b.listings.CreateListing(ctx, snap.Draft.toNewListing(snap.UserID, photoURLs))
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userId).Msg("failed to save listing")
		session.reply(b.catalog.SaveFailed)
		return
	}
	log.Info().Int64("listingId", saved.ID).Int64("userId", session.userId).Msg("listing submitted for review")

	snap.State = StepMainMenu
	snap.Draft = ListingDraft{}
	session.replyWithKeyboard(mainMenuKeyboard(b.catalog), b.catalog.ListingSaved)
}

func (b *Bot) toMainMenu(session *UserSession, snap *Snapshot) {
	snap.State = StepMainMenu
	snap.Draft = ListingDraft{}
	b.promptMainMenu(session)
}

func (b *Bot) promptMainMenu(session *UserSession) {
	session.replyWithKeyboard(mainMenuKeyboard(b.catalog), b.catalog.MainMenu)
}

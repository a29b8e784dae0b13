package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yonasy/telegram-house-bot/internal/listing"
)

func mainMenuKeyboard(c *Catalog) tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(c.BtnPostListing)),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// stepKeyboard builds the reply keyboard for a wizard step: the step's value
// choices, then Skip when the field is optional, then the navigation row.
func stepKeyboard(step Step, c *Catalog) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton

	switch step {
	case StepAvailability:
		rows = append(rows, labelRows(listing.AvailabilityLabels(), 2)...)
	case StepHouseType:
		rows = append(rows, labelRows(listing.HouseTypeLabels(), 2)...)
	case StepPhotos:
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(c.BtnDone),
			tgbotapi.NewKeyboardButton(c.BtnRemovePhotos),
		))
	case StepPreview:
		keyboard := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(c.BtnDone),
				tgbotapi.NewKeyboardButton(c.BtnBack),
			),
		)
		keyboard.ResizeKeyboard = true
		return keyboard
	}

	if def := wizardSteps[stepIndex(step)]; def.optional {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(c.BtnSkip)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(c.BtnBack),
		tgbotapi.NewKeyboardButton(c.BtnMainMenu),
	))

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func labelRows(labels []string, perRow int) [][]tgbotapi.KeyboardButton {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(labels); i += perRow {
		end := i + perRow
		if end > len(labels) {
			end = len(labels)
		}
		var row []tgbotapi.KeyboardButton
		for _, label := range labels[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, row)
	}
	return rows
}

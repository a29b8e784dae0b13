package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWizardSteps_Order(t *testing.T) {
	expected := []Step{
		StepAvailability,
		StepHouseType,
		StepRooms,
		StepBathrooms,
		StepTitle,
		StepDescription,
		StepPrice,
		StepPhotos,
		StepPreview,
	}
	for i, step := range expected {
		assert.Equal(t, step, wizardSteps[i].step)
		assert.Equal(t, i, stepIndex(step))
	}
}

func TestWizardSteps_OptionalFlags(t *testing.T) {
	optional := map[Step]bool{
		StepRooms:       true,
		StepBathrooms:   true,
		StepDescription: true,
		StepPrice:       true,
	}
	for _, def := range wizardSteps {
		assert.Equal(t, optional[def.step], def.optional, "step %s", def.step)
	}
}

func TestStepValidators(t *testing.T) {
	tests := []struct {
		step     Step
		input    string
		accepted bool
	}{
		{StepAvailability, "Sale", true},
		{StepAvailability, "rent", true}, // case-insensitive
		{StepAvailability, "Lease", false},
		{StepHouseType, "Guest House", true},
		{StepHouseType, "condominium", true},
		{StepHouseType, "Castle", false},
		{StepRooms, "3", true},
		{StepRooms, " 12 ", true},
		{StepRooms, "0", false},
		{StepRooms, "-1", false},
		{StepRooms, "three", false},
		{StepTitle, "A fine house", true},
		{StepTitle, "   ", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.step)+"/"+tt.input, func(t *testing.T) {
			var d ListingDraft
			got := wizardSteps[stepIndex(tt.step)].apply(&d, tt.input)
			assert.Equal(t, tt.accepted, got)
		})
	}
}

func TestKnownStep(t *testing.T) {
	assert.True(t, knownStep(StepMainMenu))
	assert.True(t, knownStep(StepPreview))
	assert.False(t, knownStep(Step("posting/garage")))
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPrintSettings(t *testing.T) {
	s := DefaultPrintSettings()
	assert.Equal(t, "PLA", s.Material)
	assert.Equal(t, "standard", s.Quality)
	assert.Equal(t, 20, s.InfillPercent)
	assert.False(t, s.Supports)
	assert.Equal(t, 0.2, s.LayerHeightMM)
	assert.Equal(t, 50, s.SpeedMMS)
	assert.Equal(t, 60, s.BedTempC)
	assert.Equal(t, 210, s.NozzleTempC)
}

func TestPrintSettingsPatchApplyTo(t *testing.T) {
	material := "ABS"
	infill := 80
	supports := true

	patch := &PrintSettingsPatch{
		Material:      &material,
		InfillPercent: &infill,
		Supports:      &supports,
	}
	merged := patch.ApplyTo(DefaultPrintSettings())

	// overridden fields
	assert.Equal(t, "ABS", merged.Material)
	assert.Equal(t, 80, merged.InfillPercent)
	assert.True(t, merged.Supports)

	// untouched fields keep the defaults
	assert.Equal(t, "standard", merged.Quality)
	assert.Equal(t, 0.2, merged.LayerHeightMM)
	assert.Equal(t, 50, merged.SpeedMMS)
	assert.Equal(t, 60, merged.BedTempC)
	assert.Equal(t, 210, merged.NozzleTempC)
}

func TestPrintSettingsPatchNil(t *testing.T) {
	var patch *PrintSettingsPatch
	assert.Equal(t, DefaultPrintSettings(), patch.ApplyTo(DefaultPrintSettings()))
}

func TestZeroValueOverridesDefault(t *testing.T) {
	// An explicit zero is an override, not an omission.
	infill := 0
	patch := &PrintSettingsPatch{InfillPercent: &infill}
	merged := patch.ApplyTo(DefaultPrintSettings())
	assert.Equal(t, 0, merged.InfillPercent)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldApply_ForwardProgress(t *testing.T) {
	tests := []struct {
		name     string
		current  PrintJobStatus
		incoming PrintJobStatus
		want     bool
	}{
		{"pending to downloading", JobPending, JobDownloading, true},
		{"downloading to slicing", JobDownloading, JobSlicing, true},
		{"slicing to printing skips uploading", JobSlicing, JobPrinting, true},
		{"pending straight to complete", JobPending, JobComplete, true},
		{"printing to complete", JobPrinting, JobComplete, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldApply(tt.current, tt.incoming))
		})
	}
}

func TestShouldApply_StaleAndBackward(t *testing.T) {
	tests := []struct {
		name     string
		current  PrintJobStatus
		incoming PrintJobStatus
	}{
		{"same status is stale", JobSlicing, JobSlicing},
		{"backward printing to slicing", JobPrinting, JobSlicing},
		{"backward uploading to downloading", JobUploading, JobDownloading},
		{"pending repeat", JobPending, JobPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, ShouldApply(tt.current, tt.incoming))
		})
	}
}

func TestShouldApply_AbsorbingStates(t *testing.T) {
	// failed and cancelled win over any non-terminal state
	for _, current := range []PrintJobStatus{JobPending, JobDownloading, JobSlicing, JobUploading, JobPrinting} {
		assert.True(t, ShouldApply(current, JobFailed), "failed should absorb %s", current)
		assert.True(t, ShouldApply(current, JobCancelled), "cancelled should absorb %s", current)
	}
}

func TestShouldApply_TerminalIsFinal(t *testing.T) {
	terminals := []PrintJobStatus{JobComplete, JobFailed, JobCancelled}
	all := []PrintJobStatus{JobPending, JobDownloading, JobSlicing, JobUploading, JobPrinting, JobComplete, JobFailed, JobCancelled}
	for _, current := range terminals {
		for _, incoming := range all {
			assert.False(t, ShouldApply(current, incoming),
				"terminal %s must reject %s", current, incoming)
		}
	}
}

func TestShouldApply_InvalidIncoming(t *testing.T) {
	assert.False(t, ShouldApply(JobPending, PrintJobStatus("melting")))
	assert.False(t, ShouldApply(JobPrinting, PrintJobStatus("")))
}

func TestShouldApply_Commutes(t *testing.T) {
	// Whichever of two reports lands first, the final state is the same.
	first, second := JobPrinting, JobSlicing

	// order A: printing then slicing
	stateA := JobDownloading
	if ShouldApply(stateA, first) {
		stateA = first
	}
	if ShouldApply(stateA, second) {
		stateA = second
	}

	// order B: slicing then printing
	stateB := JobDownloading
	if ShouldApply(stateB, second) {
		stateB = second
	}
	if ShouldApply(stateB, first) {
		stateB = first
	}

	assert.Equal(t, stateA, stateB)
	assert.Equal(t, JobPrinting, stateA)
}

func TestConversionStatusTerminal(t *testing.T) {
	assert.True(t, ConversionCompleted.Terminal())
	assert.True(t, ConversionFailed.Terminal())
	assert.True(t, ConversionCancelled.Terminal())
	assert.False(t, ConversionUploading.Terminal())
	assert.False(t, ConversionProcessing.Terminal())
}

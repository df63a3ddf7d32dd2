package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printforge/internal/app/model"
)

func sampleRecords() []model.ConversionRecord {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return []model.ConversionRecord{
		{
			ID:        "conv-1",
			UserID:    "user-1",
			Status:    model.ConversionCompleted,
			Provider:  "tripo",
			FileName:  "gnome.png",
			FileSize:  2048,
			ModelPath: "models/user-1/conv-1.stl",
			CreatedAt: now,
		},
		{
			ID:         "conv-2",
			UserID:     "user-1",
			Status:     model.ConversionFailed,
			FileName:   "cat.png",
			Error:      "all conversion providers failed",
			RetryCount: 2,
			CreatedAt:  now,
		},
	}
}

func TestConversionsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Conversions(sampleRecords(), FormatCSV, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two records")
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "conv-1", rows[1][0])
	assert.Equal(t, "completed", rows[1][2])
	assert.Equal(t, "all conversion providers failed", rows[2][8])
}

func TestConversionsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Conversions(sampleRecords(), FormatJSON, &buf))

	var decoded []model.ConversionRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "tripo", decoded[0].Provider)
}

func TestConversionsXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Conversions(sampleRecords(), FormatXLSX, &buf))
	assert.NotZero(t, buf.Len())
}

func TestPrintJobsCSV(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	jobs := []model.PrintJob{
		{
			ID:               "job-1",
			UserID:           "user-1",
			ConversionID:     "conv-1",
			Status:           model.JobComplete,
			Settings:         model.DefaultPrintSettings(),
			EstimatedMinutes: 90,
			SubmittedAt:      &now,
			CompletedAt:      &now,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintJobs(jobs, FormatCSV, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "PLA", rows[1][4])
	assert.Equal(t, "90", rows[1][6])
}

func TestUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Conversions(nil, "yaml", &buf))
	assert.Error(t, PrintJobs(nil, "pdf", &buf))
}

package cmd

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/CosmoTheDev/reviewapp-agent/models"
)

func sampleReport() statusReport {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return statusReport{
		PRNumber: 42,
		ReviewApp: &models.ReviewApp{
			ID: "ra-1", PRNumber: 42, Branch: "feature", Status: models.ReviewAppStatusCreated,
			UpdatedAt: ts, RemoteApp: &models.RemoteApp{ID: "app-1"},
		},
		App:    &models.App{ID: "app-1", Name: "pr-42", WebURL: "https://pr-42.herokuapp.com/"},
		Builds: []models.Build{{ID: "b-1", SourceVersion: "abc", Status: models.BuildStatusSucceeded, CreatedAt: ts}},
	}
}

func TestPrintStatusTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStatus(&buf, "table", sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "ra-1")
	assert.Contains(t, out, "https://pr-42.herokuapp.com/")
	assert.Contains(t, out, "b-1")
	assert.Contains(t, out, "succeeded")
}

func TestPrintStatusWithoutApp(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStatus(&buf, "table", statusReport{PRNumber: 7}))
	assert.Contains(t, buf.String(), "No review app")
}

func TestPrintStatusJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStatus(&buf, "json", sampleReport()))

	var got statusReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 42, got.PRNumber)
	assert.Equal(t, "app-1", got.ReviewApp.RemoteApp.ID)
	assert.Len(t, got.Builds, 1)
}

func TestPrintStatusYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStatus(&buf, "yaml", sampleReport()))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 42, got["pr_number"])
}

func TestPrintStatusRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, printStatus(&bytes.Buffer{}, "xml", sampleReport()))
}

package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderMatchesHeaderOrder(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"stage", "count"},
		Rows: []map[string]string{
			{"stage": "Applied", "count": "12"},
			{"stage": "Hired", "count": "2"},
		},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"stage", "count"}, records[0])
	assert.Equal(t, []string{"Applied", "12"}, records[1])
	assert.Equal(t, []string{"Hired", "2"}, records[2])
}

func TestCSVRenderMissingCellsAreEmpty(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"stage", "count"},
		Rows:    []map[string]string{{"stage": "Offer"}},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Offer", ""}, records[1])
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

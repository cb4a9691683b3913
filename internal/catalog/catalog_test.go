package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Len(t, c.Services, 8)
	assert.Len(t, c.TimeSlots, 10)
}

func TestTotalAndAdvance(t *testing.T) {
	c := Default()

	total, err := c.Total([]string{"1", "3"})
	require.NoError(t, err)
	assert.Equal(t, 230, total)
	assert.Equal(t, 0, c.Advance(total), "230 is below the advance threshold")

	total, err = c.Total([]string{"7"})
	require.NoError(t, err)
	assert.Equal(t, 1500, total)
	assert.Equal(t, 750, c.Advance(total), "50%% of 1500, integer-floored")

	_, err = c.Total([]string{"1", "99"})
	assert.Error(t, err, "unknown ids must not silently contribute zero")
}

func TestAdvanceFloorsFractions(t *testing.T) {
	c := Default()
	c.AdvanceThreshold = 100
	c.AdvancePercentage = 0.5
	assert.Equal(t, 75, c.Advance(151))
}

func TestServiceLookup(t *testing.T) {
	c := Default()
	svc, ok := c.Service("5")
	require.True(t, ok)
	assert.Equal(t, "Facial Treatment", svc.Name)

	_, ok = c.Service("99")
	assert.False(t, ok)

	assert.True(t, c.HasSlot("11:00 AM"))
	assert.False(t, c.HasSlot("11:30 AM"))
}

func TestValidateRejectsBadCatalogs(t *testing.T) {
	c := Default()
	c.Services[1].ID = c.Services[0].ID
	assert.Error(t, c.Validate())

	c = Default()
	c.TimeSlots = nil
	assert.Error(t, c.Validate())

	c = Default()
	c.AdvancePercentage = 1.5
	assert.Error(t, c.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	payload := `{
		"services": [{"id": "1", "name": "Cut", "price": 100, "duration": "30 min"}],
		"time_slots": ["10:00 AM"],
		"advance_threshold": 500,
		"advance_percentage": 0.25,
		"salon": {"name": "Test Salon"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Salon", c.Salon.Name)
	assert.Equal(t, 500, c.AdvanceThreshold)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBriefYAML = `
brief:
  name: "Emberfall"
  theme: "dark fantasy"
  tone: "grim but hopeful"
  setting: "A mountain city abandoned after the forge-fires went out."
  conflict: "An exiled guild wants to relight the great forge."
  protagonist_role: "wandering smith"
  writing_style: "terse, concrete"
  dialogue_style: "period-flavored, no anachronisms"
settings:
  total_chapters: 2
  locations_per_chapter: 4
  quests_per_chapter: 3
  main_quests_per_chapter: 1
  enemies_per_chapter: 2
  items_per_chapter: 2
  hub_ratio: 0.25
  difficulty_variance: 0.1
`

func TestLoadBriefFromBytes_Valid(t *testing.T) {
	brief, settings, err := LoadBriefFromBytes([]byte(validBriefYAML))
	require.NoError(t, err)

	assert.Equal(t, "Emberfall", brief.Name)
	assert.Equal(t, "dark fantasy", brief.Theme)
	assert.Equal(t, "wandering smith", brief.ProtagonistRole)

	assert.Equal(t, 2, settings.TotalChapters)
	assert.Equal(t, 4, settings.LocationsPerChapter)
	assert.Equal(t, 0.25, settings.HubRatio)
}

func TestLoadBriefFromBytes_DefaultSettings(t *testing.T) {
	yaml := `
brief:
  name: "Emberfall"
  theme: "dark fantasy"
  setting: "A mountain city."
`
	_, settings, err := LoadBriefFromBytes([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadBriefFromBytes_MissingTheme(t *testing.T) {
	yaml := `
brief:
  name: "Emberfall"
  setting: "A mountain city."
`
	_, _, err := LoadBriefFromBytes([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brief.theme must not be empty")
}

func TestLoadBriefFromBytes_InvalidSettings(t *testing.T) {
	yaml := `
brief:
  name: "Emberfall"
  theme: "dark fantasy"
  setting: "A mountain city."
settings:
  total_chapters: 0
`
	_, _, err := LoadBriefFromBytes([]byte(yaml))
	assert.Error(t, err)
}

func TestLoadBriefFromBytes_InvalidYAML(t *testing.T) {
	_, _, err := LoadBriefFromBytes([]byte("brief: [not valid"))
	assert.Error(t, err)
}

func TestLoadBriefFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brief.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validBriefYAML), 0644))

	brief, _, err := LoadBriefFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Emberfall", brief.Name)
}

func TestLoadBriefFromFile_Missing(t *testing.T) {
	_, _, err := LoadBriefFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

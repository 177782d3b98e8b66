package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/worldforge/internal/world"
)

func testBrief() world.Brief {
	return world.Brief{
		Name:            "Emberfall",
		Theme:           "dark fantasy",
		Tone:            "somber",
		Setting:         "a mountain city whose great forge has gone cold",
		Conflict:        "the ember that lit the forge has been stolen",
		ProtagonistRole: "the last apprentice smith",
	}
}

func testOutline() *world.ChapterOutline {
	return &world.ChapterOutline{
		Number:  2,
		Title:   "The Cold Forge",
		Summary: "The smith descends into the undercity.",
		Locations: []world.LocationSummary{
			{Name: "City Gate", Kind: world.KindNavigation, Summary: "The way in."},
			{Name: "Market Square", Kind: world.KindDialogue, Summary: "Rumors trade hands."},
			{Name: "The Crypt", Kind: world.KindCombat, Summary: "Something stirs below."},
		},
		MainQuests: []world.QuestSummary{{Name: "Relight the Forge", Summary: "Find the ember.", ObjectiveKind: "collect", Target: "the ember"}},
		Enemies:    []world.EnemySummary{{Name: "Ash Wraith", Summary: "A remnant of the fire."}},
		KeyItems:   []world.ItemSummary{{Name: "The Ember", Kind: "key", Summary: "The forge's heart."}},
	}
}

func TestWorldSystem_CarriesBriefAndIDRule(t *testing.T) {
	p := WorldSystem(testBrief())
	assert.Contains(t, p, "Emberfall")
	assert.Contains(t, p, "dark fantasy")
	assert.Contains(t, p, "the last apprentice smith")
	assert.Contains(t, p, "lowercase slugs")
	// Optional brief fields stay out when empty.
	brief := testBrief()
	brief.Tone = ""
	assert.NotContains(t, WorldSystem(brief), "Tone:")
}

func TestWorldSystem_Deterministic(t *testing.T) {
	assert.Equal(t, WorldSystem(testBrief()), WorldSystem(testBrief()))
}

func TestOutline_ScopesAndContract(t *testing.T) {
	settings := world.DefaultSettings()
	p := Outline(settings, 2, nil)
	assert.Contains(t, p, "chapter 2 of 3")
	assert.Contains(t, p, "exactly 5 locations, 2 main quests, 2 side quests, 3 enemies, and 3 key items")
	assert.Contains(t, p, `"mainQuests"`)
	assert.Contains(t, p, `"reach|defeat|collect"`)
	assert.Contains(t, p, "single JSON object and nothing else")
	assert.NotContains(t, p, "previous chapter")
}

func TestOutline_ContinuesFromPrevious(t *testing.T) {
	prev := testOutline()
	p := Outline(world.DefaultSettings(), 3, prev)
	assert.Contains(t, p, `"The Cold Forge"`)
	assert.Contains(t, p, prev.Summary)
}

func TestGraph_ListsLocationsAndRules(t *testing.T) {
	outline := testOutline()
	p := Graph("chapter_2", outline, world.DefaultSettings())
	assert.Contains(t, p, `chapter id "chapter_2"`)
	assert.Contains(t, p, "Exactly 3 nodes")
	assert.Contains(t, p, "Market Square (dialogue)")
	assert.Contains(t, p, "bidirectional")
	assert.Contains(t, p, "more than 4 neighbors")
	assert.Contains(t, p, `"hubId"`)
}

func TestRoom_EnumeratesNeighborsExactly(t *testing.T) {
	node := &world.GraphNode{ID: "market_square", Name: "Market Square", Kind: world.KindDialogue, Stub: "rumors"}
	neighbors := []*world.GraphNode{
		{ID: "city_gate", Name: "City Gate"},
		{ID: "the_crypt", Name: "The Crypt"},
	}
	p := Room("chapter_2", testOutline(), node, neighbors)
	require.Contains(t, p, `"city_gate"`)
	require.Contains(t, p, `"the_crypt"`)
	assert.Contains(t, p, "ONLY allowed exit targets")
	// Dialogue rooms carry the action/speaker pairing rule.
	assert.Contains(t, p, "matching \"dialogues\" entry")
	assert.Contains(t, p, `"enemyIds" must be empty`)
}

func TestRoom_KindInstructionsDiffer(t *testing.T) {
	outline := testOutline()
	nav := Room("c", outline, &world.GraphNode{ID: "a", Kind: world.KindNavigation}, nil)
	combat := Room("c", outline, &world.GraphNode{ID: "b", Kind: world.KindCombat}, nil)
	assert.Contains(t, nav, "navigation room")
	assert.Contains(t, combat, "combat room")
	assert.Contains(t, combat, "1-3 enemy ids")
	assert.NotContains(t, nav, "1-3 enemy ids")
}

func TestQuest_TargetSetsAndMainFlag(t *testing.T) {
	outline := testOutline()
	targets := TargetSets{
		RoomIDs:  []string{"city_gate", "the_crypt"},
		EnemyIDs: []string{"ash_wraith"},
		ItemIDs:  []string{"the_ember"},
	}
	p := Quest("chapter_2", outline, outline.MainQuests[0], true, targets)
	assert.Contains(t, p, "main quest")
	assert.Contains(t, p, `Set "main" to true`)
	assert.Contains(t, p, `reach targets (rooms): "city_gate", "the_crypt"`)
	assert.Contains(t, p, `defeat targets (enemies): "ash_wraith"`)
	assert.Contains(t, p, `collect targets (items): "the_ember"`)

	side := Quest("chapter_2", outline, outline.MainQuests[0], false, TargetSets{})
	assert.Contains(t, side, "side quest")
	assert.Contains(t, side, `Set "main" to false`)
	assert.Contains(t, side, "(none)")
}

func TestEnemy_CarriesBand(t *testing.T) {
	outline := testOutline()
	p := Enemy("chapter_2", outline, outline.Enemies[0], world.BandHard)
	assert.Contains(t, p, `"Ash Wraith"`)
	assert.Contains(t, p, `difficulty band is "hard"`)
	assert.Contains(t, p, `"minDamage"`)
}

func TestItem_CarriesKind(t *testing.T) {
	outline := testOutline()
	p := Item("chapter_2", outline, outline.KeyItems[0])
	assert.Contains(t, p, `"The Ember" (kind "key")`)
	assert.Contains(t, p, `"weapon|armor|key|consumable|trinket"`)
}

func TestAllBuildersEndWithOutputDiscipline(t *testing.T) {
	outline := testOutline()
	prompts := []string{
		Outline(world.DefaultSettings(), 1, nil),
		Graph("c", outline, world.DefaultSettings()),
		Room("c", outline, &world.GraphNode{ID: "a", Kind: world.KindNavigation}, nil),
		Quest("c", outline, outline.MainQuests[0], true, TargetSets{}),
		Enemy("c", outline, outline.Enemies[0], world.BandEasy),
		Item("c", outline, outline.KeyItems[0]),
	}
	for _, p := range prompts {
		assert.True(t, strings.HasSuffix(p, jsonOnly), "prompt must end with the output discipline")
	}
}

// Package prompt renders generation requests into provider-agnostic
// instruction text. Every builder is a pure function: no I/O, no randomness,
// deterministic for identical input. Each builder embeds, verbatim, the JSON
// contract the schema package checks, so generation and validation share one
// source of truth for what valid output looks like.
package prompt

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/worldforge/internal/world"
)

// jsonOnly is the output discipline appended to every builder.
const jsonOnly = `Respond with a single JSON object and nothing else: no prose, no markdown fencing, no commentary before or after the JSON.`

// idRule is the id format every artifact id must satisfy. The schema
// validator enforces the same rule.
const idRule = `All ids are lowercase slugs: they start with a letter and contain only a-z, 0-9, and underscores (example: "market_square").`

// outlineContract is the outline response schema, checked by schema.CheckOutline.
const outlineContract = `{
  "number": <chapter ordinal, integer>,
  "title": "<chapter title>",
  "summary": "<2-4 sentence chapter summary>",
  "locations": [{"name": "...", "kind": "navigation|dialogue|combat", "summary": "..."}],
  "mainQuests": [{"name": "...", "summary": "...", "objectiveKind": "reach|defeat|collect", "target": "..."}],
  "sideQuests": [{"name": "...", "summary": "...", "objectiveKind": "reach|defeat|collect", "target": "..."}],
  "keyNpcs": [{"name": "...", "role": "..."}],
  "enemies": [{"name": "...", "summary": "..."}],
  "keyItems": [{"name": "...", "kind": "weapon|armor|key|consumable|trinket", "summary": "..."}]
}`

// graphContract is the room-graph response schema, checked by schema.CheckGraph.
const graphContract = `{
  "chapterId": "<chapter id, as given>",
  "nodes": [{"id": "...", "name": "...", "kind": "navigation|dialogue|combat", "stub": "<one-line description seed>", "neighbors": ["<node id>", ...]}],
  "hubId": "<id of the safe hub room>",
  "entryId": "<id of the arrival room>",
  "exitId": "<id of the departure room>"
}`

// roomContract is the room response schema, checked by schema.CheckRoom.
const roomContract = `{
  "id": "<room id, exactly as given>",
  "chapterId": "<chapter id, as given>",
  "name": "...",
  "kind": "<room kind, exactly as given>",
  "description": "<3-6 sentence room description>",
  "exits": [{"direction": "...", "targetId": "<one of the allowed neighbor ids>"}],
  "actions": [{"npcId": "...", "description": "..."}],
  "dialogues": [{"speaker": "...", "lines": ["...", ...]}],
  "npcs": [{"id": "...", "name": "...", "role": "...", "description": "..."}],
  "enemyIds": ["...", ...]
}`

// questContract is the quest response schema, checked by schema.CheckQuest.
const questContract = `{
  "id": "...",
  "chapterId": "<chapter id, as given>",
  "name": "...",
  "description": "<2-4 sentence quest description>",
  "main": <true|false, exactly as given>,
  "giverNpcId": "<npc id or empty string>",
  "prerequisites": ["<quest id>", ...],
  "objectives": [{"kind": "reach|defeat|collect", "targetId": "...", "description": "..."}],
  "rewardItemIds": ["<item id>", ...],
  "rewardXp": <non-negative integer>
}`

// enemyContract is the enemy response schema, checked by schema.CheckEnemy.
const enemyContract = `{
  "id": "...",
  "chapterId": "<chapter id, as given>",
  "name": "...",
  "description": "<2-3 sentence description>",
  "level": <integer >= 1>,
  "health": <integer >= 1>,
  "attacks": [{"name": "...", "minDamage": <integer >= 0>, "maxDamage": <integer >= minDamage>}],
  "lootItemIds": ["<item id>", ...]
}`

// itemContract is the item response schema, checked by schema.CheckItem.
const itemContract = `{
  "id": "...",
  "chapterId": "<chapter id, as given>",
  "name": "...",
  "kind": "weapon|armor|key|consumable|trinket",
  "description": "<1-3 sentence description>",
  "value": <non-negative integer>
}`

// WorldSystem renders the system prompt shared by every request in a run.
func WorldSystem(brief world.Brief) string {
	var b strings.Builder
	b.WriteString("You are the content designer for a text adventure game. You produce structured JSON documents describing the game world; you never produce gameplay, conversation with the player, or anything outside the requested document.\n\n")
	fmt.Fprintf(&b, "World: %s\n", brief.Name)
	fmt.Fprintf(&b, "Theme: %s\n", brief.Theme)
	if brief.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", brief.Tone)
	}
	fmt.Fprintf(&b, "Setting: %s\n", brief.Setting)
	if brief.Conflict != "" {
		fmt.Fprintf(&b, "Central conflict: %s\n", brief.Conflict)
	}
	if brief.ProtagonistRole != "" {
		fmt.Fprintf(&b, "The protagonist is: %s\n", brief.ProtagonistRole)
	}
	if brief.WritingStyle != "" {
		fmt.Fprintf(&b, "Writing style: %s\n", brief.WritingStyle)
	}
	if brief.DialogueStyle != "" {
		fmt.Fprintf(&b, "Dialogue style: %s\n", brief.DialogueStyle)
	}
	b.WriteString("\n")
	b.WriteString(idRule)
	return b.String()
}

// Outline renders the chapter-outline request. previous, when non-nil, is
// the prior chapter's outline and keeps consecutive chapters continuous.
func Outline(settings world.Settings, number int, previous *world.ChapterOutline) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the outline for chapter %d of %d.\n\n", number, settings.TotalChapters)
	if previous != nil {
		fmt.Fprintf(&b, "The previous chapter was %q: %s\nThis chapter continues directly from it.\n\n",
			previous.Title, previous.Summary)
	}
	fmt.Fprintf(&b, "Scope exactly %d locations, %d main quests, %d side quests, %d enemies, and %d key items.\n",
		settings.LocationsPerChapter,
		settings.MainQuestsPerChapter,
		settings.QuestsPerChapter-settings.MainQuestsPerChapter,
		settings.EnemiesPerChapter,
		settings.ItemsPerChapter)
	fmt.Fprintf(&b, "Roughly %.0f%% of locations should be open hub-like spaces; the rest are gated or hostile.\n\n",
		settings.HubRatio*100)
	b.WriteString("Use this exact JSON shape:\n")
	b.WriteString(outlineContract)
	b.WriteString("\n\n")
	b.WriteString(jsonOnly)
	return b.String()
}

// Graph renders the connectivity-graph request for one chapter.
func Graph(chapterID string, outline *world.ChapterOutline, settings world.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Design the room connectivity graph for chapter %d, %q (chapter id %q).\n\n",
		outline.Number, outline.Title, chapterID)
	b.WriteString("Create one node per planned location:\n")
	for _, loc := range outline.Locations {
		fmt.Fprintf(&b, "- %s (%s): %s\n", loc.Name, loc.Kind, loc.Summary)
	}
	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "- Exactly %d nodes.\n", len(outline.Locations))
	b.WriteString("- Every edge must be bidirectional: if node A lists B as a neighbor, B must list A.\n")
	fmt.Fprintf(&b, "- No node may have more than %d neighbors.\n", world.MaxRoomExits)
	b.WriteString("- The graph must be connected: every node reachable from the entry node.\n")
	b.WriteString("- Designate a hub (safe area), an entry (arrival), and an exit (departure) node.\n\n")
	b.WriteString("Use this exact JSON shape:\n")
	b.WriteString(graphContract)
	b.WriteString("\n\n")
	b.WriteString(jsonOnly)
	return b.String()
}

// Room renders the room-content request for one graph node. neighbors must
// be the node's repaired neighbor set; the exact allowed exit targets are
// enumerated so the model cannot invent unreachable exits.
func Room(chapterID string, outline *world.ChapterOutline, node *world.GraphNode, neighbors []*world.GraphNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the full content for the room %q (id %q, kind %q) in chapter %d, %q (chapter id %q).\n",
		node.Name, node.ID, node.Kind, outline.Number, outline.Title, chapterID)
	if node.Stub != "" {
		fmt.Fprintf(&b, "Room premise: %s\n", node.Stub)
	}
	b.WriteString("\nThe ONLY allowed exit targets are these neighbor rooms; use every one of them exactly once:\n")
	for _, nb := range neighbors {
		fmt.Fprintf(&b, "- %q (%s)\n", nb.ID, nb.Name)
	}
	b.WriteString("\n")

	switch node.Kind {
	case world.KindNavigation:
		b.WriteString("This is a navigation room: \"actions\", \"dialogues\", \"npcs\", and \"enemyIds\" must all be empty arrays.\n")
	case world.KindDialogue:
		b.WriteString("This is a dialogue room. Populate \"npcs\" with 1-3 characters. Every entry in \"actions\" uses an npc id as its \"npcId\", and every such npc id must have exactly one matching \"dialogues\" entry whose \"speaker\" is the same id. Do not add a speaker without an action or an action without a speaker. \"enemyIds\" must be empty.\n")
	case world.KindCombat:
		b.WriteString("This is a combat room. Populate \"enemyIds\" with 1-3 enemy ids drawn from the chapter's planned enemies. \"actions\", \"dialogues\", and \"npcs\" must be empty arrays.\n")
	}

	b.WriteString("\nUse this exact JSON shape:\n")
	b.WriteString(roomContract)
	b.WriteString("\n\n")
	b.WriteString(jsonOnly)
	return b.String()
}

// TargetSets enumerates the resolvable objective targets for quest prompts.
type TargetSets struct {
	RoomIDs  []string
	EnemyIDs []string
	ItemIDs  []string
}

// Quest renders the quest request for one outline quest summary.
func Quest(chapterID string, outline *world.ChapterOutline, summary world.QuestSummary, main bool, targets TargetSets) string {
	var b strings.Builder
	role := "side"
	if main {
		role = "main"
	}
	fmt.Fprintf(&b, "Write the %s quest %q for chapter %d, %q (chapter id %q).\n", role, summary.Name, outline.Number, outline.Title, chapterID)
	fmt.Fprintf(&b, "Quest premise: %s\n", summary.Summary)
	if summary.ObjectiveKind != "" {
		fmt.Fprintf(&b, "The planned objective kind is %q targeting %q.\n", summary.ObjectiveKind, summary.Target)
	}
	fmt.Fprintf(&b, "Set \"main\" to %t.\n\n", main)
	b.WriteString("Objective targets must come from these id sets:\n")
	fmt.Fprintf(&b, "- reach targets (rooms): %s\n", quoteList(targets.RoomIDs))
	fmt.Fprintf(&b, "- defeat targets (enemies): %s\n", quoteList(targets.EnemyIDs))
	fmt.Fprintf(&b, "- collect targets (items): %s\n", quoteList(targets.ItemIDs))
	b.WriteString("\nUse this exact JSON shape:\n")
	b.WriteString(questContract)
	b.WriteString("\n\n")
	b.WriteString(jsonOnly)
	return b.String()
}

// Enemy renders the enemy request for one outline enemy summary. band
// scales the numbers to the chapter's difficulty.
func Enemy(chapterID string, outline *world.ChapterOutline, summary world.EnemySummary, band world.DifficultyBand) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the enemy %q for chapter %d, %q (chapter id %q).\n", summary.Name, outline.Number, outline.Title, chapterID)
	fmt.Fprintf(&b, "Enemy premise: %s\n", summary.Summary)
	fmt.Fprintf(&b, "The chapter's difficulty band is %q; scale level, health, and damage accordingly.\n\n", band)
	b.WriteString("Use this exact JSON shape:\n")
	b.WriteString(enemyContract)
	b.WriteString("\n\n")
	b.WriteString(jsonOnly)
	return b.String()
}

// Item renders the item request for one outline item summary.
func Item(chapterID string, outline *world.ChapterOutline, summary world.ItemSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the item %q (kind %q) for chapter %d, %q (chapter id %q).\n",
		summary.Name, summary.Kind, outline.Number, outline.Title, chapterID)
	fmt.Fprintf(&b, "Item premise: %s\n\n", summary.Summary)
	b.WriteString("Use this exact JSON shape:\n")
	b.WriteString(itemContract)
	b.WriteString("\n\n")
	b.WriteString(jsonOnly)
	return b.String()
}

// quoteList renders ids as a comma-separated list of quoted strings, or
// "(none)" for an empty set.
func quoteList(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return strings.Join(quoted, ", ")
}

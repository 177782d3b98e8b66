package world

// LocationSummary scopes one location inside a chapter outline.
type LocationSummary struct {
	Name    string   `json:"name"`
	Kind    RoomKind `json:"kind"`
	Summary string   `json:"summary"`
}

// QuestSummary scopes one quest inside a chapter outline.
type QuestSummary struct {
	Name          string `json:"name"`
	Summary       string `json:"summary"`
	ObjectiveKind string `json:"objectiveKind"`
	Target        string `json:"target"`
}

// NPCSummary scopes one key NPC inside a chapter outline.
type NPCSummary struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// EnemySummary scopes one enemy inside a chapter outline.
type EnemySummary struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// ItemSummary scopes one key item inside a chapter outline.
type ItemSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Summary string `json:"summary"`
}

// ChapterOutline is the per-chapter planning artifact produced before any
// full content is generated. It keeps later stages consistent with one
// another and is discarded at the end of the run.
type ChapterOutline struct {
	Number     int               `json:"number"`
	Title      string            `json:"title"`
	Summary    string            `json:"summary"`
	Locations  []LocationSummary `json:"locations"`
	MainQuests []QuestSummary    `json:"mainQuests"`
	SideQuests []QuestSummary    `json:"sideQuests"`
	KeyNPCs    []NPCSummary      `json:"keyNpcs"`
	Enemies    []EnemySummary    `json:"enemies"`
	KeyItems   []ItemSummary     `json:"keyItems"`
}

// Chapter is the final, persisted record for one chapter.
//
// Invariant: immutable once created, except UnlockQuestID which is set when
// the previous chapter's main quests are known.
type Chapter struct {
	ID           string         `json:"id"`
	Number       int            `json:"number"`
	Title        string         `json:"title"`
	Narrative    string         `json:"narrative"`
	Difficulty   DifficultyBand `json:"difficulty"`
	HubRoomID    string         `json:"hubRoomId"`
	EntryRoomID  string         `json:"entryRoomId"`
	ExitRoomID   string         `json:"exitRoomId"`
	LocationIDs  []string       `json:"locationIds"`
	QuestIDs     []string       `json:"questIds"`
	MainQuestIDs []string       `json:"mainQuestIds"`
	EnemyIDs     []string       `json:"enemyIds"`
	ItemIDs      []string       `json:"itemIds"`
	// UnlockQuestID is the quest gating entry to this chapter: the last main
	// quest of the previous chapter. Empty for chapter 1.
	UnlockQuestID string `json:"unlockQuestId"`
}

// Exit is a passage from one room to another.
type Exit struct {
	// Direction is a free-form label ("north", "through the gate").
	Direction string `json:"direction"`
	// TargetID is the id of the destination room.
	TargetID string `json:"targetId"`
}

// Action is a player-triggerable interaction bound to an NPC in a room.
//
// Invariant (dialogue rooms): every Action.NPCID has a matching
// Dialogue.Speaker and vice versa; the consuming game's trigger mechanism
// joins the two sets by id.
type Action struct {
	NPCID       string `json:"npcId"`
	Description string `json:"description"`
}

// Dialogue is one NPC's conversation content in a room.
type Dialogue struct {
	Speaker string   `json:"speaker"`
	Lines   []string `json:"lines"`
}

// NPC is a named character present in a room.
type NPC struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

// Room is a fully generated location.
type Room struct {
	ID          string     `json:"id"`
	ChapterID   string     `json:"chapterId"`
	Name        string     `json:"name"`
	Kind        RoomKind   `json:"kind"`
	Description string     `json:"description"`
	Exits       []Exit     `json:"exits"`
	Actions     []Action   `json:"actions"`
	Dialogues   []Dialogue `json:"dialogues"`
	NPCs        []NPC      `json:"npcs"`
	EnemyIDs    []string   `json:"enemyIds"`
}

// ObjectiveKind classifies what a quest objective targets.
type ObjectiveKind string

// Objective kinds and the artifact type their target resolves against.
const (
	// ObjectiveReach targets a room id.
	ObjectiveReach ObjectiveKind = "reach"
	// ObjectiveDefeat targets an enemy id.
	ObjectiveDefeat ObjectiveKind = "defeat"
	// ObjectiveCollect targets an item id.
	ObjectiveCollect ObjectiveKind = "collect"
)

// ObjectiveKinds contains all recognized objective kinds.
var ObjectiveKinds = []ObjectiveKind{ObjectiveReach, ObjectiveDefeat, ObjectiveCollect}

// IsValid reports whether k is one of the recognized objective kinds.
func (k ObjectiveKind) IsValid() bool {
	for _, kind := range ObjectiveKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Objective is one completion condition of a quest.
type Objective struct {
	Kind        ObjectiveKind `json:"kind"`
	TargetID    string        `json:"targetId"`
	Description string        `json:"description"`
}

// Quest is a fully generated quest.
type Quest struct {
	ID          string `json:"id"`
	ChapterID   string `json:"chapterId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Main marks the quest as required for chapter progression.
	Main       bool        `json:"main"`
	GiverNPCID string      `json:"giverNpcId"`
	// Prerequisites lists quest ids that must be completed first.
	Prerequisites []string    `json:"prerequisites"`
	Objectives    []Objective `json:"objectives"`
	RewardItemIDs []string    `json:"rewardItemIds"`
	RewardXP      int         `json:"rewardXp"`
}

// Attack is one enemy attack with a damage range.
//
// Invariant: 0 <= MinDamage <= MaxDamage.
type Attack struct {
	Name      string `json:"name"`
	MinDamage int    `json:"minDamage"`
	MaxDamage int    `json:"maxDamage"`
}

// Enemy is a fully generated enemy.
type Enemy struct {
	ID          string   `json:"id"`
	ChapterID   string   `json:"chapterId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Level       int      `json:"level"`
	Health      int      `json:"health"`
	Attacks     []Attack `json:"attacks"`
	LootItemIDs []string `json:"lootItemIds"`
}

// ItemKind classifies a generated item.
type ItemKind string

// Item kinds recognized by the pipeline.
const (
	ItemWeapon     ItemKind = "weapon"
	ItemArmor      ItemKind = "armor"
	ItemKey        ItemKind = "key"
	ItemConsumable ItemKind = "consumable"
	ItemTrinket    ItemKind = "trinket"
)

// ItemKinds contains all recognized item kinds.
var ItemKinds = []ItemKind{ItemWeapon, ItemArmor, ItemKey, ItemConsumable, ItemTrinket}

// IsValid reports whether k is one of the recognized item kinds.
func (k ItemKind) IsValid() bool {
	for _, kind := range ItemKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Item is a fully generated item.
type Item struct {
	ID          string   `json:"id"`
	ChapterID   string   `json:"chapterId"`
	Name        string   `json:"name"`
	Kind        ItemKind `json:"kind"`
	Description string   `json:"description"`
	Value       int      `json:"value"`
}

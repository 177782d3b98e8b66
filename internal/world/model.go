// Package world provides the generated-world domain model: briefs, settings,
// room graphs, chapters, and the artifact types persisted by the content store.
package world

import (
	"fmt"
	"sort"
	"strings"
)

// RoomKind classifies a room by the interactions it supports.
type RoomKind string

// Room kinds recognized by the pipeline.
const (
	// KindNavigation is a pass-through room with no actions, dialogue, or NPCs.
	KindNavigation RoomKind = "navigation"
	// KindDialogue is a room whose content is driven by NPC conversation.
	KindDialogue RoomKind = "dialogue"
	// KindCombat is a room containing enemy encounters.
	KindCombat RoomKind = "combat"
)

// Kinds contains all recognized room kinds.
var Kinds = []RoomKind{KindNavigation, KindDialogue, KindCombat}

// MaxRoomExits is the neighbor budget advertised to the model in graph
// prompts. Bidirectional repair can push a node past it; the integrity
// checker surfaces that as a warning rather than silently re-trimming
// the graph.
const MaxRoomExits = 4

// IsValid reports whether k is one of the recognized room kinds.
func (k RoomKind) IsValid() bool {
	for _, kind := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Brief holds the immutable creative parameters for a generation run.
// It is read-only input to every prompt; nothing in the pipeline mutates it.
type Brief struct {
	Name            string `yaml:"name" json:"name"`
	Theme           string `yaml:"theme" json:"theme"`
	Tone            string `yaml:"tone" json:"tone"`
	Setting         string `yaml:"setting" json:"setting"`
	Conflict        string `yaml:"conflict" json:"conflict"`
	ProtagonistRole string `yaml:"protagonist_role" json:"protagonistRole"`
	WritingStyle    string `yaml:"writing_style" json:"writingStyle"`
	DialogueStyle   string `yaml:"dialogue_style" json:"dialogueStyle"`
}

// Validate checks that the brief carries enough material to prompt from.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (b Brief) Validate() error {
	var errs []string
	if strings.TrimSpace(b.Name) == "" {
		errs = append(errs, "brief.name must not be empty")
	}
	if strings.TrimSpace(b.Theme) == "" {
		errs = append(errs, "brief.theme must not be empty")
	}
	if strings.TrimSpace(b.Setting) == "" {
		errs = append(errs, "brief.setting must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("world.Brief: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Settings holds the quantities and ratios controlling generation scale.
type Settings struct {
	TotalChapters        int     `yaml:"total_chapters" json:"totalChapters"`
	LocationsPerChapter  int     `yaml:"locations_per_chapter" json:"locationsPerChapter"`
	QuestsPerChapter     int     `yaml:"quests_per_chapter" json:"questsPerChapter"`
	MainQuestsPerChapter int     `yaml:"main_quests_per_chapter" json:"mainQuestsPerChapter"`
	EnemiesPerChapter    int     `yaml:"enemies_per_chapter" json:"enemiesPerChapter"`
	ItemsPerChapter      int     `yaml:"items_per_chapter" json:"itemsPerChapter"`
	HubRatio             float64 `yaml:"hub_ratio" json:"hubRatio"`
	DifficultyVariance   float64 `yaml:"difficulty_variance" json:"difficultyVariance"`
}

// Validate checks all scale invariants.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (s Settings) Validate() error {
	var errs []string
	if s.TotalChapters < 1 {
		errs = append(errs, fmt.Sprintf("total_chapters must be >= 1, got %d", s.TotalChapters))
	}
	if s.LocationsPerChapter < 1 {
		errs = append(errs, fmt.Sprintf("locations_per_chapter must be >= 1, got %d", s.LocationsPerChapter))
	}
	if s.QuestsPerChapter < 1 {
		errs = append(errs, fmt.Sprintf("quests_per_chapter must be >= 1, got %d", s.QuestsPerChapter))
	}
	if s.MainQuestsPerChapter < 1 {
		errs = append(errs, fmt.Sprintf("main_quests_per_chapter must be >= 1, got %d", s.MainQuestsPerChapter))
	}
	if s.MainQuestsPerChapter > s.QuestsPerChapter {
		errs = append(errs, "main_quests_per_chapter must not exceed quests_per_chapter")
	}
	if s.EnemiesPerChapter < 1 {
		errs = append(errs, fmt.Sprintf("enemies_per_chapter must be >= 1, got %d", s.EnemiesPerChapter))
	}
	if s.ItemsPerChapter < 0 {
		errs = append(errs, fmt.Sprintf("items_per_chapter must be >= 0, got %d", s.ItemsPerChapter))
	}
	if s.HubRatio < 0 || s.HubRatio > 1 {
		errs = append(errs, fmt.Sprintf("hub_ratio must be in [0,1], got %g", s.HubRatio))
	}
	if s.DifficultyVariance < 0 || s.DifficultyVariance > 1 {
		errs = append(errs, fmt.Sprintf("difficulty_variance must be in [0,1], got %g", s.DifficultyVariance))
	}
	if len(errs) > 0 {
		return fmt.Errorf("world.Settings: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DifficultyBand is the coarse difficulty tier of a chapter.
type DifficultyBand string

// Difficulty bands in ascending order.
const (
	BandEasy   DifficultyBand = "easy"
	BandMedium DifficultyBand = "medium"
	BandHard   DifficultyBand = "hard"
)

// BandForChapter derives a chapter's difficulty band from its ordinal.
// The run is split into thirds: the first third is easy, the middle medium,
// the last hard. A run shorter than three chapters leans on the upper bands.
//
// Precondition: 1 <= number <= total.
func BandForChapter(number, total int) DifficultyBand {
	if total < 1 || number < 1 {
		return BandEasy
	}
	switch {
	case number*3 <= total:
		return BandEasy
	case number*3 <= total*2:
		return BandMedium
	default:
		return BandHard
	}
}

// GraphNode is one room in a chapter's connectivity graph.
type GraphNode struct {
	// ID is the stable room id, unique within the run.
	ID string `json:"id"`
	// Name is the display name of the room.
	Name string `json:"name"`
	// Kind classifies the room's interaction model.
	Kind RoomKind `json:"kind"`
	// Stub is a one-line description seed for the room-content prompt.
	Stub string `json:"stub"`
	// Neighbors lists the ids of directly connected rooms.
	Neighbors []string `json:"neighbors"`
}

// HasNeighbor reports whether id appears in the node's neighbor list.
func (n *GraphNode) HasNeighbor(id string) bool {
	for _, nb := range n.Neighbors {
		if nb == id {
			return true
		}
	}
	return false
}

// RoomGraph is the connectivity description for one chapter's locations.
//
// Invariant (after EnsureBidirectional): for every edge A->B there exists B->A.
type RoomGraph struct {
	ChapterID string       `json:"chapterId"`
	Nodes     []*GraphNode `json:"nodes"`
	HubID     string       `json:"hubId"`
	EntryID   string       `json:"entryId"`
	ExitID    string       `json:"exitId"`
}

// Node returns the node with the given id, or false if not present.
func (g *RoomGraph) Node(id string) (*GraphNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// NodeIDs returns the ids of all nodes in declaration order.
func (g *RoomGraph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// EnsureBidirectional repairs missing reverse edges: if A lists B as a
// neighbor and B does not list A, A is appended to B's neighbor list.
// Edges referencing unknown node ids are left untouched; the integrity
// checker reports them. Returns the number of edges inserted.
//
// Postcondition: idempotent; a second application inserts zero edges.
func (g *RoomGraph) EnsureBidirectional() int {
	byID := make(map[string]*GraphNode, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	inserted := 0
	for _, n := range g.Nodes {
		for _, nb := range n.Neighbors {
			other, ok := byID[nb]
			if !ok || other == n {
				continue
			}
			if !other.HasNeighbor(n.ID) {
				other.Neighbors = append(other.Neighbors, n.ID)
				inserted++
			}
		}
	}
	return inserted
}

// Validate checks graph invariants: non-empty node set, unique node ids,
// valid kinds, and resolvable hub/entry/exit designations.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (g *RoomGraph) Validate() error {
	if len(g.Nodes) == 0 {
		return fmt.Errorf("graph %q: must contain at least one node", g.ChapterID)
	}
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("graph %q: node has empty id", g.ChapterID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("graph %q: duplicate node id %q", g.ChapterID, n.ID)
		}
		seen[n.ID] = struct{}{}
		if !n.Kind.IsValid() {
			return fmt.Errorf("graph %q: node %q has unknown kind %q", g.ChapterID, n.ID, n.Kind)
		}
	}
	for name, id := range map[string]string{"hub": g.HubID, "entry": g.EntryID, "exit": g.ExitID} {
		if id == "" {
			return fmt.Errorf("graph %q: %s node must be designated", g.ChapterID, name)
		}
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("graph %q: %s node %q not found in node set", g.ChapterID, name, id)
		}
	}
	return nil
}

// SortedNeighborSets returns each node's neighbor list as a sorted copy,
// keyed by node id. Used by tests comparing edge sets across repairs.
func (g *RoomGraph) SortedNeighborSets() map[string][]string {
	out := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		nbs := append([]string(nil), n.Neighbors...)
		sort.Strings(nbs)
		out[n.ID] = nbs
	}
	return out
}

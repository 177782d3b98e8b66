package schema

import (
	"encoding/json"

	"github.com/cory-johannsen/worldforge/internal/world"
)

// parseInto strips fencing and unmarshals cleaned JSON into target,
// recording the kind-qualified parse diagnostic on failure.
func parseInto(kind Kind, raw string, target any, res *Result) bool {
	cleaned, fenced := StripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		if fenced || hasFenceRemnants(cleaned) {
			res.Errorf("%s: response is not valid JSON after removing markdown fencing: %v", kind, err)
		} else {
			res.Errorf("%s: response is not valid JSON: %v", kind, err)
		}
		return false
	}
	return true
}

// ParseOutline parses and validates a chapter outline response.
func ParseOutline(raw string) (*world.ChapterOutline, Result) {
	var res Result
	var outline world.ChapterOutline
	if !parseInto(KindOutline, raw, &outline, &res) {
		return nil, res
	}
	res.Merge(CheckOutline(&outline))
	return &outline, res
}

// CheckOutline validates an already-typed chapter outline.
func CheckOutline(outline *world.ChapterOutline) Result {
	var res Result
	if outline.Number < 1 {
		res.Errorf("outline: number must be >= 1, got %d", outline.Number)
	}
	if outline.Title == "" {
		res.Errorf("outline: title must not be empty")
	}
	if outline.Summary == "" {
		res.Errorf("outline: summary must not be empty")
	}
	if len(outline.Locations) == 0 {
		res.Errorf("outline: must scope at least one location")
	}
	for i, loc := range outline.Locations {
		if loc.Name == "" {
			res.Errorf("outline: location %d has no name", i)
		}
		if !loc.Kind.IsValid() {
			res.Errorf("outline: location %q has unknown kind %q", loc.Name, loc.Kind)
		}
	}
	if len(outline.MainQuests) == 0 {
		res.Errorf("outline: must scope at least one main quest")
	}
	for i, q := range append(append([]world.QuestSummary{}, outline.MainQuests...), outline.SideQuests...) {
		if q.Name == "" {
			res.Errorf("outline: quest summary %d has no name", i)
		}
	}
	for i, e := range outline.Enemies {
		if e.Name == "" {
			res.Errorf("outline: enemy summary %d has no name", i)
		}
	}
	return res
}

// ParseGraph parses and validates a room-graph response. Bidirectional edge
// repair is NOT applied here; the orchestrator repairs after parsing so the
// repair is mechanical and never model-dependent.
func ParseGraph(raw string) (*world.RoomGraph, Result) {
	var res Result
	var graph world.RoomGraph
	if !parseInto(KindGraph, raw, &graph, &res) {
		return nil, res
	}
	res.Merge(CheckGraph(&graph))
	return &graph, res
}

// CheckGraph validates an already-typed room graph.
func CheckGraph(graph *world.RoomGraph) Result {
	var res Result
	if err := graph.Validate(); err != nil {
		res.Errorf("graph: %v", err)
		return res
	}
	for _, node := range graph.Nodes {
		if !ValidID(node.ID) {
			res.Errorf("graph: node id %q is not a lowercase slug", node.ID)
		}
		if node.Name == "" {
			res.Errorf("graph: node %s has no name", node.ID)
		}
		if len(node.Neighbors) == 0 {
			res.Warnf("graph: node %s has no neighbors", node.ID)
		}
	}
	return res
}

// ParseQuest parses and validates a quest response.
func ParseQuest(raw string) (*world.Quest, Result) {
	var res Result
	var quest world.Quest
	if !parseInto(KindQuest, raw, &quest, &res) {
		return nil, res
	}
	res.Merge(CheckQuest(&quest))
	return &quest, res
}

// CheckQuest validates an already-typed quest.
func CheckQuest(quest *world.Quest) Result {
	var res Result
	res.checkID("quest id", quest.ID)
	if quest.Name == "" {
		res.Errorf("quest %s: name must not be empty", quest.ID)
	}
	if quest.Description == "" {
		res.Errorf("quest %s: description must not be empty", quest.ID)
	}
	if len(quest.Objectives) == 0 {
		res.Errorf("quest %s: must have at least one objective", quest.ID)
	}
	for i, obj := range quest.Objectives {
		if !obj.Kind.IsValid() {
			res.Errorf("quest %s: objective %d has unknown kind %q", quest.ID, i, obj.Kind)
		}
		if obj.TargetID == "" {
			res.Errorf("quest %s: objective %d has empty target", quest.ID, i)
		}
	}
	for _, pre := range quest.Prerequisites {
		if !ValidID(pre) {
			res.Errorf("quest %s: prerequisite id %q is not a lowercase slug", quest.ID, pre)
		}
	}
	if quest.RewardXP < 0 {
		res.Errorf("quest %s: reward xp must not be negative, got %d", quest.ID, quest.RewardXP)
	}
	return res
}

// ParseEnemy parses and validates an enemy response.
func ParseEnemy(raw string) (*world.Enemy, Result) {
	var res Result
	var enemy world.Enemy
	if !parseInto(KindEnemy, raw, &enemy, &res) {
		return nil, res
	}
	res.Merge(CheckEnemy(&enemy))
	return &enemy, res
}

// CheckEnemy validates an already-typed enemy.
func CheckEnemy(enemy *world.Enemy) Result {
	var res Result
	res.checkID("enemy id", enemy.ID)
	if enemy.Name == "" {
		res.Errorf("enemy %s: name must not be empty", enemy.ID)
	}
	if enemy.Health < 1 {
		res.Errorf("enemy %s: health must be >= 1, got %d", enemy.ID, enemy.Health)
	}
	if enemy.Level < 1 {
		res.Errorf("enemy %s: level must be >= 1, got %d", enemy.ID, enemy.Level)
	}
	if len(enemy.Attacks) == 0 {
		res.Errorf("enemy %s: must have at least one attack", enemy.ID)
	}
	for i, atk := range enemy.Attacks {
		if atk.Name == "" {
			res.Errorf("enemy %s: attack %d has no name", enemy.ID, i)
		}
		if atk.MinDamage < 0 {
			res.Errorf("enemy %s: attack %q minimum damage must not be negative, got %d",
				enemy.ID, atk.Name, atk.MinDamage)
		}
		if atk.MaxDamage < atk.MinDamage {
			res.Errorf("enemy %s: attack %q maximum damage %d is lower than minimum %d",
				enemy.ID, atk.Name, atk.MaxDamage, atk.MinDamage)
		}
	}
	return res
}

// ParseItem parses and validates an item response.
func ParseItem(raw string) (*world.Item, Result) {
	var res Result
	var item world.Item
	if !parseInto(KindItem, raw, &item, &res) {
		return nil, res
	}
	res.Merge(CheckItem(&item))
	return &item, res
}

// CheckItem validates an already-typed item.
func CheckItem(item *world.Item) Result {
	var res Result
	res.checkID("item id", item.ID)
	if item.Name == "" {
		res.Errorf("item %s: name must not be empty", item.ID)
	}
	if !item.Kind.IsValid() {
		res.Errorf("item %s: unknown kind %q", item.ID, item.Kind)
	}
	if item.Value < 0 {
		res.Errorf("item %s: value must not be negative, got %d", item.ID, item.Value)
	}
	return res
}

// Validate dispatches raw to the parser for kind. known applies only to
// rooms. The first return is the parsed artifact (*world.ChapterOutline,
// *world.RoomGraph, etc.) or nil on a fatal parse.
func Validate(kind Kind, raw string, known map[string]struct{}) (any, Result) {
	switch kind {
	case KindOutline:
		o, res := ParseOutline(raw)
		return artifactOrNil(o, o == nil), res
	case KindGraph:
		g, res := ParseGraph(raw)
		return artifactOrNil(g, g == nil), res
	case KindRoom:
		r, res := ParseRoom(raw, known)
		return artifactOrNil(r, r == nil), res
	case KindQuest:
		q, res := ParseQuest(raw)
		return artifactOrNil(q, q == nil), res
	case KindEnemy:
		e, res := ParseEnemy(raw)
		return artifactOrNil(e, e == nil), res
	case KindItem:
		i, res := ParseItem(raw)
		return artifactOrNil(i, i == nil), res
	default:
		var res Result
		res.Errorf("unknown artifact kind %q", kind)
		return nil, res
	}
}

// artifactOrNil avoids returning a typed nil inside the any interface.
func artifactOrNil(v any, isNil bool) any {
	if isNil {
		return nil
	}
	return v
}

package schema

import (
	"encoding/json"
	"sort"

	"github.com/cory-johannsen/worldforge/internal/world"
)

// ParseRoom strips fencing, parses raw into a Room, and applies the
// kind-specific structural rules. known, when non-nil, is the full set of
// valid room ids; exit targets are then resolved against it. A nil known set
// limits the check to syntax.
//
// Postcondition: the returned room is nil exactly when Result.Fatal() is true
// due to a parse failure; a parsed-but-invalid room is returned alongside its
// errors so partial defects don't discard otherwise-usable content.
func ParseRoom(raw string, known map[string]struct{}) (*world.Room, Result) {
	var res Result
	cleaned, fenced := StripFences(raw)

	var room world.Room
	if err := json.Unmarshal([]byte(cleaned), &room); err != nil {
		if fenced || hasFenceRemnants(cleaned) {
			res.Errorf("room: response is not valid JSON after removing markdown fencing: %v", err)
		} else {
			res.Errorf("room: response is not valid JSON: %v", err)
		}
		return nil, res
	}

	res.Merge(CheckRoom(&room, known))
	return &room, res
}

// CheckRoom validates an already-typed room. Shared by the parse path, the
// orchestrator's final validation sweep, and offline re-validation.
func CheckRoom(room *world.Room, known map[string]struct{}) Result {
	var res Result

	res.checkID("room id", room.ID)
	if room.Name == "" {
		res.Errorf("room %s: name must not be empty", room.ID)
	}
	if room.Description == "" {
		res.Errorf("room %s: description must not be empty", room.ID)
	}
	if !room.Kind.IsValid() {
		res.Errorf("room %s: unknown kind %q", room.ID, room.Kind)
		return res
	}

	checkRoomExits(room, known, &res)

	switch room.Kind {
	case world.KindNavigation:
		checkNavigationRoom(room, &res)
	case world.KindDialogue:
		checkDialogueRoom(room, &res)
	case world.KindCombat:
		checkCombatRoom(room, &res)
	}
	return res
}

func checkRoomExits(room *world.Room, known map[string]struct{}, res *Result) {
	if len(room.Exits) == 0 {
		res.Errorf("room %s: must have at least one exit", room.ID)
	}
	seen := make(map[string]struct{}, len(room.Exits))
	for i, exit := range room.Exits {
		if exit.TargetID == "" {
			res.Errorf("room %s: exit %d has empty target", room.ID, i)
			continue
		}
		if _, dup := seen[exit.TargetID]; dup {
			res.Warnf("room %s: duplicate exit to %s", room.ID, exit.TargetID)
		}
		seen[exit.TargetID] = struct{}{}
		if known != nil {
			if _, ok := known[exit.TargetID]; !ok {
				res.Errorf("room %s: exit targets unknown room %s", room.ID, exit.TargetID)
			}
		}
	}
}

// checkNavigationRoom enforces that pass-through rooms carry no interaction
// content.
func checkNavigationRoom(room *world.Room, res *Result) {
	if len(room.Actions) > 0 {
		res.Errorf("room %s: navigation room must have no actions, got %d", room.ID, len(room.Actions))
	}
	if len(room.Dialogues) > 0 {
		res.Errorf("room %s: navigation room must have no dialogues, got %d", room.ID, len(room.Dialogues))
	}
	if len(room.NPCs) > 0 {
		res.Errorf("room %s: navigation room must have no NPCs, got %d", room.ID, len(room.NPCs))
	}
	if len(room.EnemyIDs) > 0 {
		res.Warnf("room %s: navigation room lists %d enemies", room.ID, len(room.EnemyIDs))
	}
}

// checkDialogueRoom enforces the trigger-mechanism rule: the set of action
// npc ids must exactly equal the set of dialogue speakers. A mismatch in
// either direction silently makes content unreachable in the consuming game,
// so both directions are errors.
func checkDialogueRoom(room *world.Room, res *Result) {
	if len(room.Dialogues) == 0 {
		res.Errorf("room %s: dialogue room must have at least one dialogue", room.ID)
	}

	actionIDs := make(map[string]struct{}, len(room.Actions))
	for _, a := range room.Actions {
		actionIDs[a.NPCID] = struct{}{}
	}
	speakerIDs := make(map[string]struct{}, len(room.Dialogues))
	for _, d := range room.Dialogues {
		speakerIDs[d.Speaker] = struct{}{}
		if len(d.Lines) == 0 {
			res.Errorf("room %s: dialogue for %s has no lines", room.ID, d.Speaker)
		}
	}

	for _, id := range sortedKeys(actionIDs) {
		if _, ok := speakerIDs[id]; !ok {
			res.Errorf("room %s: action %s has no matching dialogue speaker", room.ID, id)
		}
	}
	for _, id := range sortedKeys(speakerIDs) {
		if _, ok := actionIDs[id]; !ok {
			res.Errorf("room %s: dialogue speaker %s has no matching action", room.ID, id)
		}
	}

	npcIDs := make(map[string]struct{}, len(room.NPCs))
	for _, npc := range room.NPCs {
		npcIDs[npc.ID] = struct{}{}
	}
	for _, id := range sortedKeys(speakerIDs) {
		if _, ok := npcIDs[id]; !ok {
			res.Warnf("room %s: speaker %s is not in the room's NPC list", room.ID, id)
		}
	}
}

func checkCombatRoom(room *world.Room, res *Result) {
	if len(room.EnemyIDs) == 0 {
		res.Errorf("room %s: combat room must list at least one enemy", room.ID)
	}
	if len(room.Dialogues) > 0 {
		res.Warnf("room %s: combat room carries %d dialogues", room.ID, len(room.Dialogues))
	}
}

// sortedKeys returns the keys of set in sorted order, for deterministic
// error output.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package integrity runs whole-set cross-reference checks over a generated
// content set: chapter sequencing, unlock chains, reference resolution,
// prerequisite cycles, and reachability. Checks run independently and their
// results are concatenated; nothing here mutates the set.
package integrity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/worldforge/internal/world"
)

// Set is the complete artifact set for one generation run.
type Set struct {
	// Chapters in generation order.
	Chapters []*world.Chapter
	Rooms    map[string]*world.Room
	Quests   map[string]*world.Quest
	Enemies  map[string]*world.Enemy
	Items    map[string]*world.Item
	// Graphs by chapter id; optional, enables the post-repair exit-budget
	// warning.
	Graphs map[string]*world.RoomGraph
}

// Report is the concatenated outcome of all checks.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the set passed every check without errors.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Check runs every integrity check over set and concatenates the results.
func Check(set Set) Report {
	var rep Report
	rep.Errors = append(rep.Errors, checkSequencing(set)...)
	rep.Errors = append(rep.Errors, checkNonEmptyChapters(set)...)
	rep.Errors = append(rep.Errors, checkUnlockChain(set)...)
	rep.Errors = append(rep.Errors, checkReferences(set)...)
	rep.Errors = append(rep.Errors, checkCycles(set)...)
	rep.Errors = append(rep.Errors, checkReachability(set)...)
	rep.Warnings = append(rep.Warnings, checkExitBudget(set)...)
	return rep
}

// checkSequencing verifies chapter ordinals are exactly 1..N with no gaps,
// matching generation order.
func checkSequencing(set Set) []string {
	var errs []string
	for i, ch := range set.Chapters {
		if ch.Number != i+1 {
			errs = append(errs, fmt.Sprintf(
				"chapter %s: ordinal %d at position %d, expected %d", ch.ID, ch.Number, i, i+1))
		}
	}
	return errs
}

// checkNonEmptyChapters verifies every chapter has at least one location,
// one quest, and one main quest. A chapter with zero main quests is a dead
// end: progression cannot advance past it.
func checkNonEmptyChapters(set Set) []string {
	var errs []string
	for _, ch := range set.Chapters {
		if len(ch.LocationIDs) == 0 {
			errs = append(errs, fmt.Sprintf("chapter %s: has no locations", ch.ID))
		}
		if len(ch.QuestIDs) == 0 {
			errs = append(errs, fmt.Sprintf("chapter %s: has no quests", ch.ID))
		}
		if len(ch.MainQuestIDs) == 0 {
			errs = append(errs, fmt.Sprintf("chapter %s: has no main quests", ch.ID))
		}
	}
	return errs
}

// checkUnlockChain verifies for every chapter after the first that its
// unlock quest exists globally and belongs to the previous chapter's
// main-quest list.
func checkUnlockChain(set Set) []string {
	var errs []string
	for i, ch := range set.Chapters {
		if i == 0 {
			if ch.UnlockQuestID != "" {
				errs = append(errs, fmt.Sprintf(
					"chapter %s: first chapter must not have an unlock quest, got %s", ch.ID, ch.UnlockQuestID))
			}
			continue
		}
		if ch.UnlockQuestID == "" {
			errs = append(errs, fmt.Sprintf("chapter %s: missing unlock quest", ch.ID))
			continue
		}
		if _, ok := set.Quests[ch.UnlockQuestID]; !ok {
			errs = append(errs, fmt.Sprintf(
				"chapter %s: unlock quest %s does not exist", ch.ID, ch.UnlockQuestID))
		}
		prev := set.Chapters[i-1]
		if !contains(prev.MainQuestIDs, ch.UnlockQuestID) {
			errs = append(errs, fmt.Sprintf(
				"chapter %s: unlock quest %s is not a main quest of chapter %s", ch.ID, ch.UnlockQuestID, prev.ID))
		}
	}
	return errs
}

// checkReferences verifies every id referenced by a chapter or quest
// objective resolves to an artifact in the set.
func checkReferences(set Set) []string {
	var errs []string
	for _, ch := range set.Chapters {
		for _, id := range ch.LocationIDs {
			if _, ok := set.Rooms[id]; !ok {
				errs = append(errs, fmt.Sprintf("chapter %s: location %s does not exist", ch.ID, id))
			}
		}
		for name, id := range map[string]string{"hub": ch.HubRoomID, "entry": ch.EntryRoomID, "exit": ch.ExitRoomID} {
			if id == "" {
				errs = append(errs, fmt.Sprintf("chapter %s: %s room is not designated", ch.ID, name))
				continue
			}
			if _, ok := set.Rooms[id]; !ok {
				errs = append(errs, fmt.Sprintf("chapter %s: %s room %s does not exist", ch.ID, name, id))
			}
		}
		for _, id := range ch.QuestIDs {
			if _, ok := set.Quests[id]; !ok {
				errs = append(errs, fmt.Sprintf("chapter %s: quest %s does not exist", ch.ID, id))
			}
		}
		for _, id := range ch.MainQuestIDs {
			if !contains(ch.QuestIDs, id) {
				errs = append(errs, fmt.Sprintf("chapter %s: main quest %s is not in the chapter quest list", ch.ID, id))
			}
		}
		for _, id := range ch.EnemyIDs {
			if _, ok := set.Enemies[id]; !ok {
				errs = append(errs, fmt.Sprintf("chapter %s: enemy %s does not exist", ch.ID, id))
			}
		}
		for _, id := range ch.ItemIDs {
			if _, ok := set.Items[id]; !ok {
				errs = append(errs, fmt.Sprintf("chapter %s: item %s does not exist", ch.ID, id))
			}
		}
	}

	for _, id := range sortedQuestIDs(set.Quests) {
		q := set.Quests[id]
		for i, obj := range q.Objectives {
			var ok bool
			switch obj.Kind {
			case world.ObjectiveReach:
				_, ok = set.Rooms[obj.TargetID]
			case world.ObjectiveDefeat:
				_, ok = set.Enemies[obj.TargetID]
			case world.ObjectiveCollect:
				_, ok = set.Items[obj.TargetID]
			default:
				errs = append(errs, fmt.Sprintf("quest %s: objective %d has unknown kind %q", q.ID, i, obj.Kind))
				continue
			}
			if !ok {
				errs = append(errs, fmt.Sprintf(
					"quest %s: objective %d targets unknown %s %s", q.ID, i, obj.Kind, obj.TargetID))
			}
		}
		for _, pre := range q.Prerequisites {
			if _, ok := set.Quests[pre]; !ok {
				errs = append(errs, fmt.Sprintf("quest %s: prerequisite %s does not exist", q.ID, pre))
			}
		}
	}
	return errs
}

// checkCycles verifies quest-prerequisite edges form a DAG. The walk tracks
// the active path, not just globally visited nodes, so a node re-visited on
// the current path is a cycle while a node reached via an unrelated branch
// is not.
func checkCycles(set Set) []string {
	var errs []string
	visited := make(map[string]bool, len(set.Quests))
	onPath := make(map[string]bool, len(set.Quests))

	var walk func(id string, path []string)
	walk = func(id string, path []string) {
		q, ok := set.Quests[id]
		if !ok {
			// Dangling prerequisites are reported by checkReferences.
			return
		}
		if onPath[id] {
			errs = append(errs, fmt.Sprintf(
				"quest prerequisite cycle: %s -> %s", strings.Join(path, " -> "), id))
			return
		}
		if visited[id] {
			return
		}
		visited[id] = true
		onPath[id] = true
		for _, pre := range q.Prerequisites {
			walk(pre, append(path, id))
		}
		onPath[id] = false
	}

	for _, id := range sortedQuestIDs(set.Quests) {
		walk(id, nil)
	}
	return errs
}

// checkReachability verifies every chapter has at least one main quest with
// no unmet prerequisite inside the same chapter, so the player always has a
// legal first action. Prerequisites from earlier chapters are met by the
// time the chapter unlocks.
func checkReachability(set Set) []string {
	var errs []string
	for _, ch := range set.Chapters {
		inChapter := make(map[string]struct{}, len(ch.QuestIDs))
		for _, id := range ch.QuestIDs {
			inChapter[id] = struct{}{}
		}
		reachable := false
		for _, id := range ch.MainQuestIDs {
			q, ok := set.Quests[id]
			if !ok {
				continue
			}
			open := true
			for _, pre := range q.Prerequisites {
				if _, same := inChapter[pre]; same {
					open = false
					break
				}
			}
			if open {
				reachable = true
				break
			}
		}
		if !reachable && len(ch.MainQuestIDs) > 0 {
			errs = append(errs, fmt.Sprintf(
				"chapter %s: every main quest has prerequisites inside the chapter; no legal first action", ch.ID))
		}
	}
	return errs
}

// checkExitBudget warns when bidirectional repair pushed a room past the
// neighbor budget the graph prompt advertised.
func checkExitBudget(set Set) []string {
	var warns []string
	for _, ch := range set.Chapters {
		graph, ok := set.Graphs[ch.ID]
		if !ok {
			continue
		}
		for _, node := range graph.Nodes {
			if len(node.Neighbors) > world.MaxRoomExits {
				warns = append(warns, fmt.Sprintf(
					"chapter %s: room %s has %d exits after repair, budget is %d",
					ch.ID, node.ID, len(node.Neighbors), world.MaxRoomExits))
			}
		}
	}
	return warns
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// sortedQuestIDs returns quest ids in sorted order for deterministic output.
func sortedQuestIDs(quests map[string]*world.Quest) []string {
	ids := make([]string, 0, len(quests))
	for id := range quests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/integrity"
	"github.com/cory-johannsen/worldforge/internal/prompt"
	"github.com/cory-johannsen/worldforge/internal/schema"
	"github.com/cory-johannsen/worldforge/internal/store"
	"github.com/cory-johannsen/worldforge/internal/world"
)

// nextChapter generates, validates, and persists chapter `number`.
//
// Postcondition: on success the chapter and all surviving artifacts are in
// the accumulators and on disk, and the chapter's UnlockQuestID references
// the previous chapter's final main quest.
func (g *Generator) nextChapter(ctx context.Context, number, total int) error {
	chapterID := fmt.Sprintf("chapter_%d", number)

	outline, err := g.generateOutline(ctx, chapterID, number, total)
	if err != nil {
		return err
	}
	graph, err := g.generateGraph(ctx, chapterID, outline, number, total)
	if err != nil {
		return err
	}

	rooms, err := g.generateRooms(ctx, chapterID, outline, graph, number, total)
	if err != nil {
		return err
	}
	items, err := g.generateItems(ctx, chapterID, outline, number, total)
	if err != nil {
		return err
	}
	enemies, err := g.generateEnemies(ctx, chapterID, outline, number, total)
	if err != nil {
		return err
	}

	targets := prompt.TargetSets{RoomIDs: roomIDs(rooms), EnemyIDs: enemyIDs(enemies), ItemIDs: itemIDs(items)}
	quests, mainIDs, err := g.generateQuests(ctx, chapterID, outline, targets, number, total)
	if err != nil {
		return err
	}

	chapter := &world.Chapter{
		ID:           chapterID,
		Number:       number,
		Title:        outline.Title,
		Narrative:    outline.Summary,
		Difficulty:   world.BandForChapter(number, total),
		HubRoomID:    graph.HubID,
		EntryRoomID:  graph.EntryID,
		ExitRoomID:   graph.ExitID,
		LocationIDs:  graph.NodeIDs(),
		QuestIDs:     questIDs(quests),
		MainQuestIDs: mainIDs,
		EnemyIDs:     enemyIDs(enemies),
		ItemIDs:      itemIDs(items),
	}
	if number > 1 && len(g.chapters) > 0 {
		prev := g.chapters[len(g.chapters)-1]
		if n := len(prev.MainQuestIDs); n > 0 {
			chapter.UnlockQuestID = prev.MainQuestIDs[n-1]
		}
	}

	g.chapters = append(g.chapters, chapter)
	g.outlines = append(g.outlines, outline)
	g.graphs[chapterID] = graph

	g.events.progress(number, total, "validate")
	integrityReport := integrity.Check(integrity.Set{
		Chapters: g.chapters,
		Rooms:    g.rooms,
		Quests:   g.quests,
		Enemies:  g.enemies,
		Items:    g.items,
		Graphs:   g.graphs,
	})
	for _, msg := range integrityReport.Errors {
		if g.seenIntegrity[msg] {
			continue
		}
		g.seenIntegrity[msg] = true
		g.addIssue(IssueIntegrity, "validate", chapterID, msg)
	}
	for _, msg := range integrityReport.Warnings {
		g.log.Warn("integrity warning", zap.String("chapter_id", chapterID), zap.String("warning", msg))
	}

	g.events.progress(number, total, "persist")
	if err := g.store.WriteChapter(g.runID, store.ChapterContent{
		Chapter: chapter,
		Graph:   graph,
		Rooms:   rooms,
		Quests:  quests,
		Enemies: enemies,
		Items:   items,
	}); err != nil {
		return fmt.Errorf("pipeline: chapter %d: %w", number, err)
	}

	g.events.chapterDone(chapterID, number)
	g.log.Info("chapter complete",
		zap.String("chapter_id", chapterID),
		zap.Int("rooms", len(rooms)),
		zap.Int("quests", len(quests)),
		zap.Int("enemies", len(enemies)),
		zap.Int("items", len(items)),
		zap.Int("integrity_errors", len(integrityReport.Errors)))
	return nil
}

// generateOutline runs the outline stage. Failure is fatal for the run.
func (g *Generator) generateOutline(ctx context.Context, chapterID string, number, total int) (*world.ChapterOutline, error) {
	g.events.progress(number, total, "outline")

	var previous *world.ChapterOutline
	if n := len(g.outlines); n > 0 {
		previous = g.outlines[n-1]
	}
	raw, err := g.complete(ctx, prompt.Outline(g.settings, number, previous))
	if err != nil {
		g.addIssue(IssueTransport, "outline", chapterID, err.Error())
		return nil, fmt.Errorf("%w: chapter %d outline: %w", ErrFatalStage, number, err)
	}
	outline, res := schema.ParseOutline(raw)
	if outline == nil {
		g.addIssue(IssueParse, "outline", chapterID, res.Errors[0])
		return nil, fmt.Errorf("%w: chapter %d outline: %s", ErrFatalStage, number, res.Errors[0])
	}
	if res.Fatal() {
		g.addIssue(IssueSchema, "outline", chapterID, res.Errors[0])
		return nil, fmt.Errorf("%w: chapter %d outline: %s", ErrFatalStage, number, res.Errors[0])
	}
	g.logWarnings("outline", chapterID, res)
	if outline.Number != number {
		g.log.Warn("outline ordinal corrected",
			zap.String("chapter_id", chapterID),
			zap.Int("returned", outline.Number),
			zap.Int("expected", number))
		outline.Number = number
	}
	return outline, nil
}

// generateGraph runs the graph stage and repairs missing reverse edges.
// Failure is fatal for the run.
func (g *Generator) generateGraph(ctx context.Context, chapterID string, outline *world.ChapterOutline, number, total int) (*world.RoomGraph, error) {
	g.events.progress(number, total, "graph")

	raw, err := g.complete(ctx, prompt.Graph(chapterID, outline, g.settings))
	if err != nil {
		g.addIssue(IssueTransport, "graph", chapterID, err.Error())
		return nil, fmt.Errorf("%w: chapter %d graph: %w", ErrFatalStage, number, err)
	}
	graph, res := schema.ParseGraph(raw)
	if graph == nil {
		g.addIssue(IssueParse, "graph", chapterID, res.Errors[0])
		return nil, fmt.Errorf("%w: chapter %d graph: %s", ErrFatalStage, number, res.Errors[0])
	}
	if res.Fatal() {
		g.addIssue(IssueSchema, "graph", chapterID, res.Errors[0])
		return nil, fmt.Errorf("%w: chapter %d graph: %s", ErrFatalStage, number, res.Errors[0])
	}
	g.logWarnings("graph", chapterID, res)
	graph.ChapterID = chapterID
	if inserted := graph.EnsureBidirectional(); inserted > 0 {
		g.log.Info("graph repaired",
			zap.String("chapter_id", chapterID),
			zap.Int("edges_inserted", inserted))
		g.events.status(fmt.Sprintf("repaired %d one-way passages in %s", inserted, chapterID))
	}
	return graph, nil
}

// generateRooms fills in every graph node. Individual failures are recorded
// and skipped; the integrity check reports the resulting dangling locations.
func (g *Generator) generateRooms(ctx context.Context, chapterID string, outline *world.ChapterOutline, graph *world.RoomGraph, number, total int) ([]*world.Room, error) {
	g.events.progress(number, total, "rooms")

	var rooms []*world.Room
	for _, node := range graph.Nodes {
		if g.cancelled.Load() {
			return nil, ErrCancelled
		}
		known := make(map[string]struct{}, len(node.Neighbors))
		neighbors := make([]*world.GraphNode, 0, len(node.Neighbors))
		for _, id := range node.Neighbors {
			known[id] = struct{}{}
			if nb, ok := graph.Node(id); ok {
				neighbors = append(neighbors, nb)
			}
		}

		raw, err := g.complete(ctx, prompt.Room(chapterID, outline, node, neighbors))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.addIssue(IssueTransport, "room", node.ID, err.Error())
			continue
		}
		room, res := schema.ParseRoom(raw, known)
		if room == nil {
			g.addIssue(IssueParse, "room", node.ID, res.Errors[0])
			continue
		}
		if res.Fatal() {
			g.addIssue(IssueSchema, "room", node.ID, res.Errors[0])
			continue
		}
		g.logWarnings("room", node.ID, res)
		if room.ID != node.ID {
			g.addIssue(IssueSchema, "room", node.ID,
				fmt.Sprintf("response used id %q, expected %q", room.ID, node.ID))
			continue
		}
		if room.Kind != node.Kind {
			g.addIssue(IssueSchema, "room", node.ID,
				fmt.Sprintf("response used kind %q, expected %q", room.Kind, node.Kind))
			continue
		}
		room.ChapterID = chapterID
		g.rooms[room.ID] = room
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// generateItems fills in the outline's key items.
func (g *Generator) generateItems(ctx context.Context, chapterID string, outline *world.ChapterOutline, number, total int) ([]*world.Item, error) {
	g.events.progress(number, total, "items")

	var items []*world.Item
	for _, summary := range outline.KeyItems {
		if g.cancelled.Load() {
			return nil, ErrCancelled
		}
		raw, err := g.complete(ctx, prompt.Item(chapterID, outline, summary))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.addIssue(IssueTransport, "item", summary.Name, err.Error())
			continue
		}
		item, res := schema.ParseItem(raw)
		if item == nil {
			g.addIssue(IssueParse, "item", summary.Name, res.Errors[0])
			continue
		}
		if res.Fatal() {
			g.addIssue(IssueSchema, "item", summary.Name, res.Errors[0])
			continue
		}
		g.logWarnings("item", item.ID, res)
		if _, dup := g.items[item.ID]; dup {
			g.addIssue(IssueSchema, "item", item.ID, "duplicate item id")
			continue
		}
		item.ChapterID = chapterID
		g.items[item.ID] = item
		items = append(items, item)
	}
	return items, nil
}

// generateEnemies fills in the outline's enemies, scaled to the chapter's
// difficulty band.
func (g *Generator) generateEnemies(ctx context.Context, chapterID string, outline *world.ChapterOutline, number, total int) ([]*world.Enemy, error) {
	g.events.progress(number, total, "enemies")

	band := world.BandForChapter(number, total)
	var enemies []*world.Enemy
	for _, summary := range outline.Enemies {
		if g.cancelled.Load() {
			return nil, ErrCancelled
		}
		raw, err := g.complete(ctx, prompt.Enemy(chapterID, outline, summary, band))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.addIssue(IssueTransport, "enemy", summary.Name, err.Error())
			continue
		}
		enemy, res := schema.ParseEnemy(raw)
		if enemy == nil {
			g.addIssue(IssueParse, "enemy", summary.Name, res.Errors[0])
			continue
		}
		if res.Fatal() {
			g.addIssue(IssueSchema, "enemy", summary.Name, res.Errors[0])
			continue
		}
		g.logWarnings("enemy", enemy.ID, res)
		if _, dup := g.enemies[enemy.ID]; dup {
			g.addIssue(IssueSchema, "enemy", enemy.ID, "duplicate enemy id")
			continue
		}
		enemy.ChapterID = chapterID
		g.enemies[enemy.ID] = enemy
		enemies = append(enemies, enemy)
	}
	return enemies, nil
}

// generateQuests fills in main then side quests. The returned main-quest ids
// preserve outline order; the last one becomes the next chapter's unlock.
func (g *Generator) generateQuests(ctx context.Context, chapterID string, outline *world.ChapterOutline, targets prompt.TargetSets, number, total int) (quests []*world.Quest, mainIDs []string, err error) {
	g.events.progress(number, total, "quests")

	generate := func(summaries []world.QuestSummary, main bool) error {
		for _, summary := range summaries {
			if g.cancelled.Load() {
				return ErrCancelled
			}
			raw, err := g.complete(ctx, prompt.Quest(chapterID, outline, summary, main, targets))
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				g.addIssue(IssueTransport, "quest", summary.Name, err.Error())
				continue
			}
			quest, res := schema.ParseQuest(raw)
			if quest == nil {
				g.addIssue(IssueParse, "quest", summary.Name, res.Errors[0])
				continue
			}
			if res.Fatal() {
				g.addIssue(IssueSchema, "quest", summary.Name, res.Errors[0])
				continue
			}
			g.logWarnings("quest", quest.ID, res)
			if _, dup := g.quests[quest.ID]; dup {
				g.addIssue(IssueSchema, "quest", quest.ID, "duplicate quest id")
				continue
			}
			if quest.Main != main {
				g.log.Warn("quest main flag corrected",
					zap.String("quest_id", quest.ID),
					zap.Bool("expected", main))
				quest.Main = main
			}
			quest.ChapterID = chapterID
			g.quests[quest.ID] = quest
			quests = append(quests, quest)
			if main {
				mainIDs = append(mainIDs, quest.ID)
			}
		}
		return nil
	}

	if err := generate(outline.MainQuests, true); err != nil {
		return nil, nil, err
	}
	if err := generate(outline.SideQuests, false); err != nil {
		return nil, nil, err
	}
	return quests, mainIDs, nil
}

// logWarnings records a stage's advisory findings without failing the artifact.
func (g *Generator) logWarnings(stage, artifactID string, res schema.Result) {
	for _, w := range res.Warnings {
		g.log.Warn("schema warning",
			zap.String("stage", stage),
			zap.String("artifact_id", artifactID),
			zap.String("warning", w))
	}
}

func roomIDs(rooms []*world.Room) []string {
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.ID)
	}
	return out
}

func questIDs(quests []*world.Quest) []string {
	out := make([]string, 0, len(quests))
	for _, q := range quests {
		out = append(out, q.ID)
	}
	return out
}

func enemyIDs(enemies []*world.Enemy) []string {
	out := make([]string, 0, len(enemies))
	for _, e := range enemies {
		out = append(out, e.ID)
	}
	return out
}

func itemIDs(items []*world.Item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.ID)
	}
	return out
}

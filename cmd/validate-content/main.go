// Package main provides the validate-content binary: it re-runs the schema
// and integrity checks over a persisted run without touching any model
// provider, so edited or imported content can be verified offline.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/config"
	"github.com/cory-johannsen/worldforge/internal/integrity"
	"github.com/cory-johannsen/worldforge/internal/schema"
	"github.com/cory-johannsen/worldforge/internal/store"
	"github.com/cory-johannsen/worldforge/internal/world"
)

func main() {
	root := flag.String("root", "content/worlds", "content store root directory")
	runID := flag.String("run", "", "run id to validate; empty validates every run under the root")
	flag.Parse()

	contentStore := store.NewStore(config.StoreConfig{Root: *root}, zap.NewNop())

	runs := []string{*runID}
	if *runID == "" {
		var err error
		runs, err = contentStore.ListRuns()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Fprintf(os.Stderr, "no runs found under %s\n", *root)
			os.Exit(1)
		}
	}

	start := time.Now()
	failed := false
	for _, run := range runs {
		if !validateRun(contentStore, run) {
			failed = true
		}
	}
	fmt.Printf("validation complete in %s\n", time.Since(start).Round(time.Millisecond))
	if failed {
		os.Exit(1)
	}
}

// validateRun checks one run and prints its findings. Returns true when the
// run has no schema errors and no integrity errors.
func validateRun(contentStore *store.Store, runID string) bool {
	content, err := contentStore.LoadRun(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run %s: %v\n", runID, err)
		return false
	}

	errorCount := 0
	warningCount := 0
	report := func(scope string, res schema.Result) {
		for _, msg := range res.Errors {
			fmt.Printf("run %s: %s: error: %s\n", runID, scope, msg)
			errorCount++
		}
		for _, msg := range res.Warnings {
			fmt.Printf("run %s: %s: warning: %s\n", runID, scope, msg)
			warningCount++
		}
	}

	for _, graph := range content.Graphs {
		report("graph "+graph.ChapterID, schema.CheckGraph(graph))
	}
	for id, room := range content.Rooms {
		known := knownExits(content, room)
		report("room "+id, schema.CheckRoom(room, known))
	}
	for id, quest := range content.Quests {
		report("quest "+id, schema.CheckQuest(quest))
	}
	for id, enemy := range content.Enemies {
		report("enemy "+id, schema.CheckEnemy(enemy))
	}
	for id, item := range content.Items {
		report("item "+id, schema.CheckItem(item))
	}

	integrityReport := integrity.Check(integrity.Set{
		Chapters: content.Chapters,
		Rooms:    content.Rooms,
		Quests:   content.Quests,
		Enemies:  content.Enemies,
		Items:    content.Items,
		Graphs:   content.Graphs,
	})
	for _, msg := range integrityReport.Errors {
		fmt.Printf("run %s: integrity: error: %s\n", runID, msg)
		errorCount++
	}
	for _, msg := range integrityReport.Warnings {
		fmt.Printf("run %s: integrity: warning: %s\n", runID, msg)
		warningCount++
	}

	fmt.Printf("run %s: %d chapters, %d rooms, %d quests, %d errors, %d warnings\n",
		runID, len(content.Chapters), len(content.Rooms), len(content.Quests), errorCount, warningCount)
	return errorCount == 0
}

// knownExits rebuilds the allowed exit-target set for a room from its
// chapter's graph. Without a graph, any exit target that is a known room of
// the run is accepted.
func knownExits(content *store.RunContent, room *world.Room) map[string]struct{} {
	known := map[string]struct{}{}
	if graph, ok := content.Graphs[room.ChapterID]; ok {
		if node, found := graph.Node(room.ID); found {
			for _, nb := range node.Neighbors {
				known[nb] = struct{}{}
			}
			return known
		}
	}
	for id := range content.Rooms {
		if id != room.ID {
			known[id] = struct{}{}
		}
	}
	return known
}

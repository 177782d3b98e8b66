// Package store persists generation runs to the filesystem as plain JSON so
// the output can be inspected, versioned, and imported by a game server
// without any tooling beyond a text editor.
//
// Layout of one run under the store root:
//
//	<root>/<runID>/config.json        run manifest: brief, settings, chapter ids
//	<root>/<runID>/world_prompt.json  the system prompt used for every request
//	<root>/<runID>/Chapters/<id>.json
//	<root>/<runID>/Graphs/<chapterID>.json
//	<root>/<runID>/Rooms/<id>.json
//	<root>/<runID>/Quests/<id>.json
//	<root>/<runID>/Enemies/<id>.json
//	<root>/<runID>/Items/<id>.json
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/config"
	"github.com/cory-johannsen/worldforge/internal/world"
)

const (
	manifestFile    = "config.json"
	worldPromptFile = "world_prompt.json"

	// Subdirectory names are part of the contract with the consuming game
	// runtime; they are capitalized on disk.
	chaptersDir = "Chapters"
	graphsDir   = "Graphs"
	roomsDir    = "Rooms"
	questsDir   = "Quests"
	enemiesDir  = "Enemies"
	itemsDir    = "Items"
)

// Manifest is the run-level record written to config.json. ChapterIDs grows
// as chapters complete, so a run interrupted mid-way still has a consistent
// manifest covering everything persisted so far.
//
// Invariant: the manifest never contains credentials.
type Manifest struct {
	RunID      string         `json:"runId"`
	CreatedAt  time.Time      `json:"createdAt"`
	Brief      world.Brief    `json:"brief"`
	Settings   world.Settings `json:"settings"`
	ChapterIDs []string       `json:"chapterIds"`
}

// worldPrompt is the persisted form of the run's system prompt, kept so a
// run can be reproduced or extended with the exact same framing.
type worldPrompt struct {
	System string `json:"system"`
}

// ChapterContent bundles everything generated for one chapter.
type ChapterContent struct {
	Chapter *world.Chapter
	Graph   *world.RoomGraph
	Rooms   []*world.Room
	Quests  []*world.Quest
	Enemies []*world.Enemy
	Items   []*world.Item
}

// RunContent is a fully loaded run, keyed the way the integrity checker
// consumes it.
type RunContent struct {
	Manifest    Manifest
	WorldPrompt string
	// Chapters in manifest order.
	Chapters []*world.Chapter
	Graphs   map[string]*world.RoomGraph
	Rooms    map[string]*world.Room
	Quests   map[string]*world.Quest
	Enemies  map[string]*world.Enemy
	Items    map[string]*world.Item
}

// Store reads and writes generation runs under a single root directory.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore constructs a Store from configuration.
//
// Precondition: logger is non-nil.
func NewStore(cfg config.StoreConfig, logger *zap.Logger) *Store {
	if logger == nil {
		panic("store.NewStore: logger is required")
	}
	return &Store{root: cfg.Root, logger: logger}
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// RunDir returns the directory holding the given run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.root, runID)
}

// InitRun creates the run directory tree and writes the initial manifest and
// the world prompt record.
//
// Precondition: runID is non-empty and not an existing run.
func (s *Store) InitRun(runID string, brief world.Brief, settings world.Settings, systemPrompt string) error {
	dir := s.RunDir(runID)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("store.InitRun: run %s already exists at %s", runID, dir)
	}
	for _, sub := range []string{chaptersDir, graphsDir, roomsDir, questsDir, enemiesDir, itemsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("store.InitRun: creating %s: %w", sub, err)
		}
	}
	manifest := Manifest{
		RunID:      runID,
		CreatedAt:  time.Now().UTC(),
		Brief:      brief,
		Settings:   settings,
		ChapterIDs: []string{},
	}
	if err := writeJSON(filepath.Join(dir, manifestFile), manifest); err != nil {
		return fmt.Errorf("store.InitRun: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, worldPromptFile), worldPrompt{System: systemPrompt}); err != nil {
		return fmt.Errorf("store.InitRun: %w", err)
	}
	s.logger.Info("initialized run", zap.String("run_id", runID), zap.String("dir", dir))
	return nil
}

// WriteChapter persists one chapter's content and appends its id to the
// manifest. The manifest is written last so a crash mid-write never records
// a chapter whose files are incomplete.
func (s *Store) WriteChapter(runID string, content ChapterContent) error {
	if content.Chapter == nil {
		return fmt.Errorf("store.WriteChapter: chapter is required")
	}
	dir := s.RunDir(runID)
	ch := content.Chapter

	if err := writeJSON(filepath.Join(dir, chaptersDir, ch.ID+".json"), ch); err != nil {
		return fmt.Errorf("store.WriteChapter: chapter %s: %w", ch.ID, err)
	}
	if content.Graph != nil {
		if err := writeJSON(filepath.Join(dir, graphsDir, ch.ID+".json"), content.Graph); err != nil {
			return fmt.Errorf("store.WriteChapter: graph %s: %w", ch.ID, err)
		}
	}
	for _, room := range content.Rooms {
		if err := writeJSON(filepath.Join(dir, roomsDir, room.ID+".json"), room); err != nil {
			return fmt.Errorf("store.WriteChapter: room %s: %w", room.ID, err)
		}
	}
	for _, quest := range content.Quests {
		if err := writeJSON(filepath.Join(dir, questsDir, quest.ID+".json"), quest); err != nil {
			return fmt.Errorf("store.WriteChapter: quest %s: %w", quest.ID, err)
		}
	}
	for _, enemy := range content.Enemies {
		if err := writeJSON(filepath.Join(dir, enemiesDir, enemy.ID+".json"), enemy); err != nil {
			return fmt.Errorf("store.WriteChapter: enemy %s: %w", enemy.ID, err)
		}
	}
	for _, item := range content.Items {
		if err := writeJSON(filepath.Join(dir, itemsDir, item.ID+".json"), item); err != nil {
			return fmt.Errorf("store.WriteChapter: item %s: %w", item.ID, err)
		}
	}

	manifest, err := s.LoadManifest(runID)
	if err != nil {
		return fmt.Errorf("store.WriteChapter: %w", err)
	}
	for _, existing := range manifest.ChapterIDs {
		if existing == ch.ID {
			return fmt.Errorf("store.WriteChapter: chapter %s already recorded in manifest", ch.ID)
		}
	}
	manifest.ChapterIDs = append(manifest.ChapterIDs, ch.ID)
	if err := writeJSON(filepath.Join(dir, manifestFile), manifest); err != nil {
		return fmt.Errorf("store.WriteChapter: manifest: %w", err)
	}
	s.logger.Info("persisted chapter",
		zap.String("run_id", runID),
		zap.String("chapter_id", ch.ID),
		zap.Int("rooms", len(content.Rooms)),
		zap.Int("quests", len(content.Quests)),
		zap.Int("enemies", len(content.Enemies)),
		zap.Int("items", len(content.Items)))
	return nil
}

// LoadManifest reads the run manifest.
func (s *Store) LoadManifest(runID string) (Manifest, error) {
	var manifest Manifest
	if err := readJSON(filepath.Join(s.RunDir(runID), manifestFile), &manifest); err != nil {
		return Manifest{}, fmt.Errorf("store.LoadManifest: run %s: %w", runID, err)
	}
	return manifest, nil
}

// LoadRun reads a complete run back into memory. Chapters are returned in
// manifest order; all other artifacts are keyed by id.
func (s *Store) LoadRun(runID string) (*RunContent, error) {
	manifest, err := s.LoadManifest(runID)
	if err != nil {
		return nil, fmt.Errorf("store.LoadRun: %w", err)
	}
	dir := s.RunDir(runID)

	content := &RunContent{
		Manifest: manifest,
		Graphs:   map[string]*world.RoomGraph{},
		Rooms:    map[string]*world.Room{},
		Quests:   map[string]*world.Quest{},
		Enemies:  map[string]*world.Enemy{},
		Items:    map[string]*world.Item{},
	}

	var prompt worldPrompt
	if err := readJSON(filepath.Join(dir, worldPromptFile), &prompt); err == nil {
		content.WorldPrompt = prompt.System
	}

	chapters := map[string]*world.Chapter{}
	if err := loadDir(filepath.Join(dir, chaptersDir), chapters); err != nil {
		return nil, fmt.Errorf("store.LoadRun: chapters: %w", err)
	}
	for _, id := range manifest.ChapterIDs {
		ch, ok := chapters[id]
		if !ok {
			return nil, fmt.Errorf("store.LoadRun: manifest lists chapter %s but no file exists", id)
		}
		content.Chapters = append(content.Chapters, ch)
	}

	if err := loadDir(filepath.Join(dir, graphsDir), content.Graphs); err != nil {
		return nil, fmt.Errorf("store.LoadRun: graphs: %w", err)
	}
	if err := loadDir(filepath.Join(dir, roomsDir), content.Rooms); err != nil {
		return nil, fmt.Errorf("store.LoadRun: rooms: %w", err)
	}
	if err := loadDir(filepath.Join(dir, questsDir), content.Quests); err != nil {
		return nil, fmt.Errorf("store.LoadRun: quests: %w", err)
	}
	if err := loadDir(filepath.Join(dir, enemiesDir), content.Enemies); err != nil {
		return nil, fmt.Errorf("store.LoadRun: enemies: %w", err)
	}
	if err := loadDir(filepath.Join(dir, itemsDir), content.Items); err != nil {
		return nil, fmt.Errorf("store.LoadRun: items: %w", err)
	}
	return content, nil
}

// ListRuns returns the run ids present under the store root, sorted.
func (s *Store) ListRuns() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store.ListRuns: %w", err)
	}
	var runs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, entry.Name(), manifestFile)); err != nil {
			continue
		}
		runs = append(runs, entry.Name())
	}
	sort.Strings(runs)
	return runs, nil
}

// loadDir decodes every .json file in dir into a fresh T and keys the result
// by filename stem. A missing directory is treated as empty.
func loadDir[T any](dir string, out map[string]*T) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var value T
		if err := readJSON(filepath.Join(dir, entry.Name()), &value); err != nil {
			return fmt.Errorf("decoding %s: %w", entry.Name(), err)
		}
		out[strings.TrimSuffix(entry.Name(), ".json")] = &value
	}
	return nil
}

// writeJSON marshals value with indentation and writes it via a temp file
// and rename so readers never observe a partial document.
func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}

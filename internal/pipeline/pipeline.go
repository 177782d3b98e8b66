// Package pipeline orchestrates a generation run: chapter by chapter it
// plans an outline, designs a room graph, fills in rooms, enemies, items,
// and quests, validates the accumulated world, and persists the results.
//
// Failure policy: outline and graph failures abort the run, because every
// later artifact in the chapter depends on them. Individual artifact
// failures (one room, one quest) are recorded as issues and skipped; the
// integrity check surfaces the resulting gaps.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/integrity"
	"github.com/cory-johannsen/worldforge/internal/llm"
	"github.com/cory-johannsen/worldforge/internal/prompt"
	"github.com/cory-johannsen/worldforge/internal/store"
	"github.com/cory-johannsen/worldforge/internal/world"
)

// ErrCancelled is returned by Run when Cancel stopped the run between
// artifacts. Work persisted before the cancellation remains on disk.
var ErrCancelled = errors.New("pipeline: run cancelled")

// ErrFatalStage marks a failure in a stage the rest of the chapter depends
// on (outline or graph); the run cannot continue past it.
var ErrFatalStage = errors.New("pipeline: fatal stage failed")

// IssueKind classifies where in the pipeline an artifact was lost.
type IssueKind string

// Issue kinds in pipeline order.
const (
	// IssueTransport covers provider and client failures (retries exhausted,
	// prompt over budget).
	IssueTransport IssueKind = "transport"
	// IssueParse covers responses that were not decodable JSON.
	IssueParse IssueKind = "parse"
	// IssueSchema covers decodable responses violating the artifact contract.
	IssueSchema IssueKind = "schema"
	// IssueIntegrity covers cross-reference violations found after assembly.
	IssueIntegrity IssueKind = "integrity"
)

// Issue is one recorded, non-fatal problem from a run.
type Issue struct {
	Kind       IssueKind `json:"kind"`
	Stage      string    `json:"stage"`
	ArtifactID string    `json:"artifactId"`
	Message    string    `json:"message"`
}

// Report summarizes a completed (or cancelled) run.
type Report struct {
	RunID             string   `json:"runId"`
	ChapterIDs        []string `json:"chapterIds"`
	Issues            []Issue  `json:"issues"`
	IntegrityErrors   []string `json:"integrityErrors"`
	IntegrityWarnings []string `json:"integrityWarnings"`
	TokensUsed        int      `json:"tokensUsed"`
}

// Events carries optional observer callbacks. All fields may be nil; the
// pipeline's behavior never depends on them.
type Events struct {
	// Status receives free-form progress text.
	Status func(msg string)
	// Progress fires at the start of each stage within a chapter.
	Progress func(chapter, total int, stage string)
	// ChapterDone fires after a chapter is validated and persisted.
	ChapterDone func(chapterID string, number int)
	// RunDone fires once with the final report when a run or extension
	// finishes without a fatal error.
	RunDone func(report *Report)
}

func (e Events) status(msg string) {
	if e.Status != nil {
		e.Status(msg)
	}
}

func (e Events) progress(chapter, total int, stage string) {
	if e.Progress != nil {
		e.Progress(chapter, total, stage)
	}
}

func (e Events) chapterDone(chapterID string, number int) {
	if e.ChapterDone != nil {
		e.ChapterDone(chapterID, number)
	}
}

func (e Events) runDone(report *Report) {
	if e.RunDone != nil {
		e.RunDone(report)
	}
}

// Generator drives one run. It is not safe for concurrent use except for
// Cancel, which may be called from any goroutine.
type Generator struct {
	client *llm.Client
	store  *store.Store
	log    *zap.Logger
	events Events

	runID    string
	brief    world.Brief
	settings world.Settings
	system   string

	// Accumulated world state across chapters.
	chapters []*world.Chapter
	outlines []*world.ChapterOutline
	graphs   map[string]*world.RoomGraph
	rooms    map[string]*world.Room
	quests   map[string]*world.Quest
	enemies  map[string]*world.Enemy
	items    map[string]*world.Item

	issues []Issue
	// seenIntegrity dedupes per-chapter sweep findings: an integrity error
	// persists across later sweeps and must be recorded as an issue once.
	seenIntegrity map[string]bool
	tokens        int
	cancelled     atomic.Bool
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithEvents attaches observer callbacks.
func WithEvents(events Events) GeneratorOption {
	return func(g *Generator) { g.events = events }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) GeneratorOption {
	return func(g *Generator) { g.runID = id }
}

// NewGenerator constructs a Generator for a fresh run.
//
// Precondition: client, contentStore, and logger are non-nil; brief and
// settings validate.
func NewGenerator(client *llm.Client, contentStore *store.Store, logger *zap.Logger,
	brief world.Brief, settings world.Settings, opts ...GeneratorOption) (*Generator, error) {
	if client == nil || contentStore == nil || logger == nil {
		return nil, fmt.Errorf("pipeline.NewGenerator: client, store, and logger are required")
	}
	if err := brief.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline.NewGenerator: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline.NewGenerator: %w", err)
	}
	g := &Generator{
		client:   client,
		store:    contentStore,
		log:      logger,
		runID:    uuid.NewString(),
		brief:    brief,
		settings: settings,
		system:   prompt.WorldSystem(brief),
		graphs:   map[string]*world.RoomGraph{},
		rooms:    map[string]*world.Room{},
		quests:   map[string]*world.Quest{},
		enemies:  map[string]*world.Enemy{},
		items:    map[string]*world.Item{},

		seenIntegrity: map[string]bool{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// RunID returns the run's identifier.
func (g *Generator) RunID() string { return g.runID }

// Cancel requests a cooperative stop. The in-flight request, if any,
// completes; the run stops at the next artifact boundary. Everything
// persisted before the stop remains valid on disk.
func (g *Generator) Cancel() {
	g.cancelled.Store(true)
	g.events.status("cancellation requested")
}

// Run generates all chapters, validates the full world, and persists it.
// The returned report is non-nil even when err is non-nil and covers
// everything that happened before the failure.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	if err := g.store.InitRun(g.runID, g.brief, g.settings, g.system); err != nil {
		return g.report(), fmt.Errorf("pipeline.Run: %w", err)
	}
	g.log.Info("run started",
		zap.String("run_id", g.runID),
		zap.String("world", g.brief.Name),
		zap.Int("chapters", g.settings.TotalChapters))

	err := g.generate(ctx, 1, g.settings.TotalChapters)
	rep := g.report()
	if err != nil {
		return rep, err
	}
	g.events.status(fmt.Sprintf("run %s complete: %d chapters, %d issues", g.runID, len(rep.ChapterIDs), len(rep.Issues)))
	g.events.runDone(rep)
	return rep, nil
}

// NextChapter generates exactly one more chapter continuing the current run.
func (g *Generator) NextChapter(ctx context.Context) (*Report, error) {
	return g.Extend(ctx, 1)
}

// Extend generates additional chapters continuing an existing run. The
// Generator must have been constructed with ResumeGenerator.
func (g *Generator) Extend(ctx context.Context, additional int) (*Report, error) {
	if additional < 1 {
		return g.report(), fmt.Errorf("pipeline.Extend: additional chapters must be >= 1, got %d", additional)
	}
	first := len(g.chapters) + 1
	last := len(g.chapters) + additional
	// The run is now longer: outline scoping and difficulty bands follow the
	// new total.
	g.settings.TotalChapters = last
	g.log.Info("extending run",
		zap.String("run_id", g.runID),
		zap.Int("from_chapter", first),
		zap.Int("to_chapter", last))

	err := g.generate(ctx, first, last)
	rep := g.report()
	if err != nil {
		return rep, err
	}
	g.events.runDone(rep)
	return rep, nil
}

// ResumeGenerator reconstructs a Generator from a persisted run so the run
// can be extended with more chapters. The stored world prompt is reused, so
// extension chapters see the same framing as the original run.
func ResumeGenerator(client *llm.Client, contentStore *store.Store, logger *zap.Logger,
	runID string, opts ...GeneratorOption) (*Generator, error) {
	if client == nil || contentStore == nil || logger == nil {
		return nil, fmt.Errorf("pipeline.ResumeGenerator: client, store, and logger are required")
	}
	content, err := contentStore.LoadRun(runID)
	if err != nil {
		return nil, fmt.Errorf("pipeline.ResumeGenerator: %w", err)
	}
	g := &Generator{
		client:   client,
		store:    contentStore,
		log:      logger,
		runID:    runID,
		brief:    content.Manifest.Brief,
		settings: content.Manifest.Settings,
		system:   content.WorldPrompt,
		chapters: content.Chapters,
		graphs:   content.Graphs,
		rooms:    content.Rooms,
		quests:   content.Quests,
		enemies:  content.Enemies,
		items:    content.Items,

		seenIntegrity: map[string]bool{},
	}
	if g.system == "" {
		g.system = prompt.WorldSystem(g.brief)
	}
	// Outlines are not persisted; extension chapters open without a previous
	// outline and lean on the last persisted chapter's narrative instead.
	if n := len(g.chapters); n > 0 {
		last := g.chapters[n-1]
		g.outlines = append(g.outlines, &world.ChapterOutline{
			Number: last.Number, Title: last.Title, Summary: last.Narrative,
		})
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// generate runs chapters first..last inclusive.
func (g *Generator) generate(ctx context.Context, first, last int) error {
	total := last
	for number := first; number <= last; number++ {
		if g.cancelled.Load() {
			return ErrCancelled
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.nextChapter(ctx, number, total); err != nil {
			return err
		}
	}
	return nil
}

// report assembles the current run report including a fresh integrity pass
// over everything accumulated so far.
func (g *Generator) report() *Report {
	rep := &Report{
		RunID:      g.runID,
		Issues:     g.issues,
		TokensUsed: g.tokens,
	}
	for _, ch := range g.chapters {
		rep.ChapterIDs = append(rep.ChapterIDs, ch.ID)
	}
	if len(g.chapters) > 0 {
		integrityReport := integrity.Check(integrity.Set{
			Chapters: g.chapters,
			Rooms:    g.rooms,
			Quests:   g.quests,
			Enemies:  g.enemies,
			Items:    g.items,
			Graphs:   g.graphs,
		})
		rep.IntegrityErrors = integrityReport.Errors
		rep.IntegrityWarnings = integrityReport.Warnings
	}
	return rep
}

// complete sends one prompt through the client and accumulates token usage.
func (g *Generator) complete(ctx context.Context, p string) (string, error) {
	content, tokens, err := g.client.Send(ctx, p, g.system)
	g.tokens += tokens
	return content, err
}

// addIssue records a non-fatal problem and logs it.
func (g *Generator) addIssue(kind IssueKind, stage, artifactID, message string) {
	g.issues = append(g.issues, Issue{Kind: kind, Stage: stage, ArtifactID: artifactID, Message: message})
	g.log.Warn("artifact skipped",
		zap.String("kind", string(kind)),
		zap.String("stage", stage),
		zap.String("artifact_id", artifactID),
		zap.String("reason", message))
	g.events.status(fmt.Sprintf("skipped %s %s: %s", stage, artifactID, message))
}

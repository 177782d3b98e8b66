package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testGraph() *RoomGraph {
	return &RoomGraph{
		ChapterID: "chapter_1",
		Nodes: []*GraphNode{
			{ID: "gate", Name: "The Gate", Kind: KindNavigation, Neighbors: []string{"square"}},
			{ID: "square", Name: "Market Square", Kind: KindDialogue, Neighbors: []string{"gate", "crypt"}},
			{ID: "crypt", Name: "The Crypt", Kind: KindCombat, Neighbors: nil},
		},
		HubID:   "square",
		EntryID: "gate",
		ExitID:  "crypt",
	}
}

func TestEnsureBidirectional_RepairsMissingReverseEdges(t *testing.T) {
	g := testGraph()

	// square -> crypt exists but crypt -> square does not.
	inserted := g.EnsureBidirectional()
	assert.Equal(t, 1, inserted)

	crypt, ok := g.Node("crypt")
	require.True(t, ok)
	assert.True(t, crypt.HasNeighbor("square"), "repair must insert crypt -> square")
}

func TestEnsureBidirectional_Idempotent(t *testing.T) {
	g := testGraph()
	g.EnsureBidirectional()
	after := g.SortedNeighborSets()

	inserted := g.EnsureBidirectional()
	assert.Equal(t, 0, inserted, "second application must insert nothing")
	assert.Equal(t, after, g.SortedNeighborSets())
}

func TestEnsureBidirectional_IgnoresUnknownTargets(t *testing.T) {
	g := testGraph()
	gate, _ := g.Node("gate")
	gate.Neighbors = append(gate.Neighbors, "nowhere")

	inserted := g.EnsureBidirectional()
	assert.Equal(t, 1, inserted, "only the crypt edge is repairable")
	_, ok := g.Node("nowhere")
	assert.False(t, ok, "repair must not invent nodes")
}

// TestEnsureBidirectional_Property verifies on arbitrary graphs that after a
// single repair every edge has its reverse, and that a second repair is a
// no-op on the edge set.
func TestEnsureBidirectional_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "nodes")
		ids := make([]string, n)
		for i := range ids {
			ids[i] = string(rune('a' + i))
		}

		g := &RoomGraph{ChapterID: "chapter_1", HubID: ids[0], EntryID: ids[0], ExitID: ids[n-1]}
		for i, id := range ids {
			nbs := rapid.SliceOfNDistinct(rapid.SampledFrom(ids), 0, n, rapid.ID[string]).
				Draw(rt, "neighbors")
			node := &GraphNode{ID: id, Name: id, Kind: Kinds[i%len(Kinds)], Neighbors: nbs}
			g.Nodes = append(g.Nodes, node)
		}

		g.EnsureBidirectional()
		for _, node := range g.Nodes {
			for _, nb := range node.Neighbors {
				other, ok := g.Node(nb)
				if !ok || other == node {
					continue
				}
				assert.True(rt, other.HasNeighbor(node.ID),
					"edge %s->%s must have a reverse after repair", node.ID, nb)
			}
		}

		once := g.SortedNeighborSets()
		inserted := g.EnsureBidirectional()
		assert.Equal(rt, 0, inserted)
		assert.Equal(rt, once, g.SortedNeighborSets())
	})
}

func TestRoomGraph_Validate(t *testing.T) {
	g := testGraph()
	require.NoError(t, g.Validate())

	g.HubID = "missing"
	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hub")

	g = testGraph()
	g.Nodes[1].Kind = "tavern"
	err = g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")

	g = testGraph()
	g.Nodes[2].ID = "gate"
	assert.Error(t, g.Validate(), "duplicate node ids must be rejected")
}

func TestBandForChapter(t *testing.T) {
	assert.Equal(t, BandEasy, BandForChapter(1, 3))
	assert.Equal(t, BandMedium, BandForChapter(2, 3))
	assert.Equal(t, BandHard, BandForChapter(3, 3))
	assert.Equal(t, BandEasy, BandForChapter(2, 9))
	assert.Equal(t, BandHard, BandForChapter(9, 9))
	assert.Equal(t, BandHard, BandForChapter(1, 1))
}

func TestBandForChapter_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		total := rapid.IntRange(1, 50).Draw(rt, "total")
		number := rapid.IntRange(1, total).Draw(rt, "number")
		band := BandForChapter(number, total)
		assert.Contains(rt, []DifficultyBand{BandEasy, BandMedium, BandHard}, band)
		if number == total {
			assert.Equal(rt, BandHard, band, "the final chapter is always hard")
		}
	})
}

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	s.MainQuestsPerChapter = s.QuestsPerChapter + 1
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.HubRatio = 1.5
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.TotalChapters = 0
	assert.Error(t, s.Validate())
}

// Package seeddata produces random interaction deltas for filling a
// development table. Nothing here is part of the interaction contract.
package seeddata

import (
	"math/rand/v2"

	"article-interactions/domain/interaction"
)

// Themes are the theme values seeded rows are spread over.
var Themes = []string{"science", "science_fiction", "tech", "twitch", "AI"}

const (
	ArticlePoolSize = 5
	ArticleIDLength = 8

	MaxThumbsUp   = 50
	MaxThumbsDown = 25
	MaxNeutral    = 100
)

const idAlphabet = "useandom-26T198340PX75pxJACKVERYMINDBUSHWOLF_GQZbfghjklqvwyzrict"

// Generator draws deltas from a fixed pool of article ids.
type Generator struct {
	rng        *rand.Rand
	articleIDs []string
}

// NewGenerator returns a generator whose output depends only on seed.
func NewGenerator(seed uint64) *Generator {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	ids := make([]string, ArticlePoolSize)
	for i := range ids {
		ids[i] = randomID(rng, ArticleIDLength)
	}
	return &Generator{rng: rng, articleIDs: ids}
}

// ArticleIDs returns the article id pool.
func (g *Generator) ArticleIDs() []string {
	out := make([]string, len(g.articleIDs))
	copy(out, g.articleIDs)
	return out
}

// Next returns one random delta.
func (g *Generator) Next() interaction.Delta {
	return interaction.NewDelta(
		g.articleIDs[g.rng.IntN(len(g.articleIDs))],
		Themes[g.rng.IntN(len(Themes))],
		g.rng.Int64N(MaxThumbsUp+1),
		g.rng.Int64N(MaxThumbsDown+1),
		g.rng.Int64N(MaxNeutral+1),
	)
}

// Generate returns n random deltas.
func (g *Generator) Generate(n int) []interaction.Delta {
	deltas := make([]interaction.Delta, 0, n)
	for i := 0; i < n; i++ {
		deltas = append(deltas, g.Next())
	}
	return deltas
}

func randomID(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rng.IntN(len(idAlphabet))]
	}
	return string(b)
}

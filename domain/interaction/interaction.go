// Package interaction holds the article interaction row model: per-theme
// reaction counters for an article plus their denormalized total.
package interaction

// Attribute names as stored in the table.
const (
	AttrArticleID        = "articleId"
	AttrTheme            = "theme"
	AttrThumbsUp         = "thumbsUp"
	AttrThumbsDown       = "thumbsDown"
	AttrNeutral          = "neutral"
	AttrInteractionCount = "interactionCount"
	AttrThemeName        = "themeName"
)

// Key identifies exactly one interaction row.
type Key struct {
	ArticleID string `json:"articleId" dynamodbav:"articleId" validate:"required,notblank"`
	Theme     string `json:"theme" dynamodbav:"theme" validate:"required,notblank"`
}

// MaxIncrement bounds each counter of a Delta so Total cannot overflow.
const MaxIncrement = 1_000_000_000

// Delta is a set of non-negative counter increments for one row.
type Delta struct {
	Key
	ThumbsUp   int64 `json:"thumbsUp" validate:"gte=0,lte=1000000000"`
	ThumbsDown int64 `json:"thumbsDown" validate:"gte=0,lte=1000000000"`
	Neutral    int64 `json:"neutral" validate:"gte=0,lte=1000000000"`
}

// NewDelta builds a Delta for the given row.
func NewDelta(articleID, theme string, thumbsUp, thumbsDown, neutral int64) Delta {
	return Delta{
		Key:        Key{ArticleID: articleID, Theme: theme},
		ThumbsUp:   thumbsUp,
		ThumbsDown: thumbsDown,
		Neutral:    neutral,
	}
}

// Total is the amount interactionCount grows by when the delta is applied.
// Only meaningful for a delta that passed ValidateDelta.
func (d Delta) Total() int64 {
	return d.ThumbsUp + d.ThumbsDown + d.Neutral
}

// Interaction is one stored row.
type Interaction struct {
	ArticleID        string `json:"articleId" dynamodbav:"articleId"`
	Theme            string `json:"theme" dynamodbav:"theme"`
	ThumbsUp         int64  `json:"thumbsUp" dynamodbav:"thumbsUp"`
	ThumbsDown       int64  `json:"thumbsDown" dynamodbav:"thumbsDown"`
	Neutral          int64  `json:"neutral" dynamodbav:"neutral"`
	InteractionCount int64  `json:"interactionCount" dynamodbav:"interactionCount"`
	ThemeName        string `json:"themeName" dynamodbav:"themeName"`
}

// Key returns the primary key of the row.
func (i Interaction) Key() Key {
	return Key{ArticleID: i.ArticleID, Theme: i.Theme}
}

// Consistent reports whether the stored total matches the three counters.
func (i Interaction) Consistent() bool {
	return i.InteractionCount == i.ThumbsUp+i.ThumbsDown+i.Neutral
}

// Apply returns the row that results from adding d to i. A zero Interaction
// stands for a row that does not exist yet.
func (i Interaction) Apply(d Delta) Interaction {
	return Interaction{
		ArticleID:        d.ArticleID,
		Theme:            d.Theme,
		ThumbsUp:         i.ThumbsUp + d.ThumbsUp,
		ThumbsDown:       i.ThumbsDown + d.ThumbsDown,
		Neutral:          i.Neutral + d.Neutral,
		InteractionCount: i.InteractionCount + d.Total(),
		ThemeName:        d.Theme,
	}
}

// RankedTheme is an entry of the per-article ranking index. The index only
// projects keys, so counters other than the total are not available here.
type RankedTheme struct {
	ArticleID        string `json:"articleId" dynamodbav:"articleId"`
	Theme            string `json:"theme" dynamodbav:"theme"`
	InteractionCount int64  `json:"interactionCount" dynamodbav:"interactionCount"`
}

// Key returns the primary key of the ranked row.
func (r RankedTheme) Key() Key {
	return Key{ArticleID: r.ArticleID, Theme: r.Theme}
}

// BatchResult is the outcome of a batched point lookup. Keys that matched no
// row are absent from Rows. Unprocessed holds keys the store did not get to
// (capacity limits) so the caller can decide whether to ask again.
type BatchResult struct {
	Rows             []Interaction `json:"rows"`
	Unprocessed      []Key         `json:"unprocessed"`
	ConsumedCapacity float64       `json:"consumedCapacity"`
}

// HasUnprocessed reports whether some keys were not looked up.
func (b BatchResult) HasUnprocessed() bool {
	return len(b.Unprocessed) > 0
}

// DedupeKeys drops repeated keys, keeping first occurrence order.
func DedupeKeys(keys []Key) []Key {
	seen := make(map[Key]struct{}, len(keys))
	out := make([]Key, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

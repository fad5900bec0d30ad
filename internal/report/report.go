// Package report summarises a transfer for people: which meshes moved, which
// bones could not be found, and which target bone was probably meant.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"mu-bmd-retarget/internal/retarget"
)

// MinSuggestScore is the lowest similarity at which a target bone is offered
// as the probable match for a missing one.
const MinSuggestScore = 0.6

// Input is everything Build needs from one transfer.
type Input struct {
	Source         string
	Target         string
	Parent         string
	ResetTransform bool
	Result         *retarget.TransferResult
	TargetBones    []string
	Time           time.Time
}

// Row is one missing bone.
type Row struct {
	Mesh       string  `json:"mesh"`
	Bone       string  `json:"bone"`
	Suggestion string  `json:"suggestion,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// Report is the format-independent form of a transfer summary.
type Report struct {
	Source         string    `json:"source"`
	Target         string    `json:"target"`
	Parent         string    `json:"parent"`
	ResetTransform bool      `json:"reset_transform"`
	Time           time.Time `json:"time"`
	Transferred    int       `json:"transferred"`
	Skipped        int       `json:"skipped"`
	Missing        []Row     `json:"missing"`
}

// Build assembles a report. Suggestions are advisory; they play no part in
// how bones were resolved.
func Build(in Input) *Report {
	r := &Report{
		Source:         in.Source,
		Target:         in.Target,
		Parent:         in.Parent,
		ResetTransform: in.ResetTransform,
		Time:           in.Time,
		Missing:        []Row{},
	}
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	if in.Result == nil {
		return r
	}
	r.Transferred = in.Result.TransferredCount
	r.Skipped = in.Result.SkippedCount

	s := newSuggester(in.TargetBones)
	for _, mb := range in.Result.MissingBones {
		row := Row{Mesh: mb.MeshName, Bone: mb.BoneName}
		row.Suggestion, row.Score = s.suggest(mb.BoneName)
		r.Missing = append(r.Missing, row)
	}
	return r
}

// MissingNames returns the distinct missing bone names, sorted.
func (r *Report) MissingNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range r.Missing {
		if !seen[row.Bone] {
			seen[row.Bone] = true
			out = append(out, row.Bone)
		}
	}
	sort.Strings(out)
	return out
}

type suggester struct {
	names  []string
	metric *metrics.Levenshtein
	memo   map[string]Row
}

func newSuggester(names []string) *suggester {
	m := metrics.NewLevenshtein()
	m.CaseSensitive = false

	uniq := make([]string, 0, len(names))
	seen := make(map[string]bool)
	for _, n := range names {
		if n != "" && !seen[n] {
			seen[n] = true
			uniq = append(uniq, n)
		}
	}
	return &suggester{names: uniq, metric: m, memo: make(map[string]Row)}
}

// suggest returns the most similar target bone name, or "" when nothing
// scores at least MinSuggestScore. Ties keep the first name.
func (s *suggester) suggest(bone string) (string, float64) {
	if bone == "" || bone == retarget.MissingBonePlaceholder {
		return "", 0
	}
	if hit, ok := s.memo[bone]; ok {
		return hit.Suggestion, hit.Score
	}

	best, bestScore := "", 0.0
	for _, n := range s.names {
		score := strutil.Similarity(strings.TrimSpace(bone), n, s.metric)
		if score > bestScore {
			best, bestScore = n, score
		}
	}
	if bestScore < MinSuggestScore {
		best, bestScore = "", 0
	}
	s.memo[bone] = Row{Suggestion: best, Score: bestScore}
	return best, bestScore
}

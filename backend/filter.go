package backend

import (
	"log"
	"regexp"

	"github.com/charlievieth/strcase"
	"github.com/deluan/sanitize"
	"github.com/harmonia-app/harmonia/backend/mediaprovider"
)

type FilterRuleKind string

const (
	FilterByPath     FilterRuleKind = "path"
	FilterByTitle    FilterRuleKind = "title"
	FilterByGenre    FilterRuleKind = "genre"
	FilterByDuration FilterRuleKind = "duration"
)

// A FilterRule excludes matching tracks from play queue mutations.
// Path and title rules hold a regular expression matched case- and
// accent-insensitively; genre rules hold a genre name compared
// case-insensitively; duration rules exclude tracks outside
// [MinSeconds, MaxSeconds] (0 == unset bound).
type FilterRule struct {
	Kind       FilterRuleKind
	Pattern    string
	MinSeconds int
	MaxSeconds int
	Disabled   bool
}

type FilterRuleSet []FilterRule

// FilteredResult is the outcome of applying a FilterRuleSet to a track list.
// Entries preserves the input order of the surviving tracks, and
// IncludedCount + ExcludedCount always equals the input length.
type FilteredResult struct {
	Entries       []*mediaprovider.Track
	IncludedCount int
	ExcludedCount int
}

// Apply evaluates every enabled rule against every track and excludes a track
// if any rule matches it. Pure function of its inputs: no I/O, no mutation of
// the input slice. A malformed rule (e.g. bad regexp) never matches anything
// rather than failing the whole pipeline.
func (rs FilterRuleSet) Apply(tracks []*mediaprovider.Track) FilteredResult {
	matchers := make([]func(*mediaprovider.Track) bool, 0, len(rs))
	for _, rule := range rs {
		if rule.Disabled {
			continue
		}
		if m := rule.matcher(); m != nil {
			matchers = append(matchers, m)
		}
	}

	result := FilteredResult{Entries: make([]*mediaprovider.Track, 0, len(tracks))}
	for _, tr := range tracks {
		excluded := false
		for _, matches := range matchers {
			if matches(tr) {
				excluded = true
				break
			}
		}
		if excluded {
			result.ExcludedCount++
		} else {
			result.Entries = append(result.Entries, tr)
			result.IncludedCount++
		}
	}
	return result
}

func (r FilterRule) matcher() func(*mediaprovider.Track) bool {
	switch r.Kind {
	case FilterByPath:
		if re := compileRulePattern(r.Pattern); re != nil {
			return func(tr *mediaprovider.Track) bool {
				return re.MatchString(sanitize.Accents(tr.FilePath))
			}
		}
	case FilterByTitle:
		if re := compileRulePattern(r.Pattern); re != nil {
			return func(tr *mediaprovider.Track) bool {
				return re.MatchString(sanitize.Accents(tr.Name))
			}
		}
	case FilterByGenre:
		if r.Pattern != "" {
			return func(tr *mediaprovider.Track) bool {
				return strcase.EqualFold(tr.Genre, r.Pattern)
			}
		}
	case FilterByDuration:
		if r.MinSeconds > 0 || r.MaxSeconds > 0 {
			return func(tr *mediaprovider.Track) bool {
				if r.MinSeconds > 0 && tr.Duration < r.MinSeconds {
					return true
				}
				return r.MaxSeconds > 0 && tr.Duration > r.MaxSeconds
			}
		}
	default:
		log.Printf("ignoring filter rule with unknown kind %q", r.Kind)
	}
	return nil
}

// compileRulePattern compiles a user pattern for case-insensitive matching.
// Accents are folded in literal text, but the pattern is otherwise compiled
// verbatim: lowercasing it would rewrite escape classes like \D into \d and
// invert the rule.
func compileRulePattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + sanitize.Accents(pattern))
	if err != nil {
		log.Printf("ignoring malformed filter pattern %q: %v", pattern, err)
		return nil
	}
	return re
}

package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/nikbrunner/bmsync/internal/model"
)

// Field weights. Title matters most, tag names barely break ties.
const (
	weightTitle       = 0.5
	weightDescription = 0.3
	weightURL         = 0.15
	weightTags        = 0.05
)

// minCompactness is the lowest ratio of query length to matched span that
// still counts as a fuzzy hit. Low enough that "router tanstack" finds
// "TanStack Router" term by term.
const minCompactness = 0.25

type field int

const (
	fieldTitle field = iota
	fieldDescription
	fieldURL
	fieldTags
	numFields
)

var weights = [numFields]float64{weightTitle, weightDescription, weightURL, weightTags}

// Result is one ranked search hit.
type Result struct {
	Bookmark model.Bookmark
	Score    float64
}

// Index is an immutable ranking index over a bookmark collection. Build a
// new one whenever the collection changes.
type Index struct {
	bookmarks []model.Bookmark
	fields    [numFields][]string // lowercased, indexed like bookmarks
}

// fieldSource implements fuzzy.Source for one field of every bookmark.
type fieldSource []string

func (fs fieldSource) String(i int) string { return fs[i] }
func (fs fieldSource) Len() int            { return len(fs) }

// NewIndex builds an index over bookmarks. tags resolve tag IDs to names.
func NewIndex(bookmarks []model.Bookmark, tags []model.Tag) *Index {
	names := make(map[string]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}

	idx := &Index{bookmarks: model.CloneBookmarks(bookmarks)}
	for f := range idx.fields {
		idx.fields[f] = make([]string, len(bookmarks))
	}
	for i, b := range bookmarks {
		idx.fields[fieldTitle][i] = strings.ToLower(b.Title)
		if b.Description != nil {
			idx.fields[fieldDescription][i] = strings.ToLower(*b.Description)
		}
		idx.fields[fieldURL][i] = strings.ToLower(b.URL)

		var tagNames []string
		for _, id := range b.TagIDs {
			if name, ok := names[id]; ok {
				tagNames = append(tagNames, strings.ToLower(name))
			}
		}
		idx.fields[fieldTags][i] = strings.Join(tagNames, " ")
	}
	return idx
}

// Len returns the number of indexed bookmarks.
func (idx *Index) Len() int {
	return len(idx.bookmarks)
}

// Search ranks bookmarks against query, best first. Every whitespace
// separated term has to match at least one field. Equal scores keep the
// collection order. A blank query yields an empty, non-nil slice.
func (idx *Index) Search(query string) []Result {
	terms := strings.Fields(strings.ToLower(query))
	results := []Result{}
	if len(terms) == 0 || len(idx.bookmarks) == 0 {
		return results
	}

	scores := make([]float64, len(idx.bookmarks))
	alive := make([]bool, len(idx.bookmarks))
	for i := range alive {
		alive[i] = true
	}

	for _, term := range terms {
		termScores := idx.scoreTerm(term)
		for i := range scores {
			if termScores[i] == 0 {
				alive[i] = false
				continue
			}
			scores[i] += termScores[i]
		}
	}

	for i, ok := range alive {
		if ok {
			results = append(results, Result{Bookmark: idx.bookmarks[i].Clone(), Score: scores[i]})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// scoreTerm returns the weighted quality of term for every bookmark.
func (idx *Index) scoreTerm(term string) []float64 {
	scores := make([]float64, len(idx.bookmarks))
	termLen := utf8.RuneCountInString(term)

	for f := field(0); f < numFields; f++ {
		values := idx.fields[f]

		quality := make([]float64, len(values))
		for i, v := range values {
			if pos := strings.Index(v, term); pos >= 0 {
				quality[i] = positionFactor(pos, len(v))
			}
		}

		for _, m := range fuzzy.FindFrom(term, fieldSource(values)) {
			if quality[m.Index] > 0 || len(m.MatchedIndexes) == 0 {
				continue
			}
			first := m.MatchedIndexes[0]
			last := m.MatchedIndexes[len(m.MatchedIndexes)-1]
			span := utf8.RuneCountInString(values[m.Index][first:last+1])
			compactness := float64(termLen) / float64(span)
			if compactness < minCompactness {
				continue
			}
			quality[m.Index] = compactness * positionFactor(first, len(values[m.Index]))
		}

		for i, q := range quality {
			scores[i] += weights[f] * q
		}
	}
	return scores
}

// positionFactor prefers matches near the start of a field.
func positionFactor(pos, length int) float64 {
	if length == 0 {
		return 1
	}
	return 1 - 0.3*float64(pos)/float64(length)
}

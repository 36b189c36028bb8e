// Package catalog holds the immutable emotion index over recommendable tracks.
package catalog

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

// Entry is one posting of a label's index: a track and its affinity.
type Entry struct {
	TrackID  string
	Affinity float64
}

// Index is built once and never mutated. All methods are safe for
// concurrent use without locking.
type Index struct {
	tracks   map[string]domain.Track
	order    []string // insertion order
	byLabel  map[domain.EmotionLabel][]Entry
	defaults []string // popularity desc, id asc
}

// Build validates every track and indexes it by label. Any malformed track
// fails the whole build with a catalog load error.
func Build(tracks []domain.Track) (*Index, error) {
	idx := &Index{
		tracks:  make(map[string]domain.Track, len(tracks)),
		order:   make([]string, 0, len(tracks)),
		byLabel: make(map[domain.EmotionLabel][]Entry),
	}

	for i, t := range tracks {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			return nil, domain.NewError(domain.KindCatalogLoad, "catalog: track at position %d has no id", i)
		}
		if id != t.ID {
			return nil, domain.NewError(domain.KindCatalogLoad, "catalog: track id %q has surrounding whitespace", t.ID)
		}
		if _, dup := idx.tracks[id]; dup {
			return nil, domain.NewError(domain.KindCatalogLoad, "catalog: duplicate track id %q", id)
		}

		profile, err := t.Profile.Canonical()
		if err != nil {
			return nil, domain.WrapError(domain.KindCatalogLoad, err, "catalog: track "+id+" has a malformed emotion profile")
		}
		t.Profile = profile

		idx.tracks[id] = t
		idx.order = append(idx.order, id)
		for label, affinity := range profile {
			if affinity > 0 {
				idx.byLabel[label] = append(idx.byLabel[label], Entry{TrackID: id, Affinity: affinity})
			}
		}
	}

	for _, entries := range idx.byLabel {
		slices.SortFunc(entries, compareEntries)
	}

	idx.defaults = slices.Clone(idx.order)
	slices.SortFunc(idx.defaults, func(a, b string) int {
		pa, pb := idx.tracks[a].Popularity, idx.tracks[b].Popularity
		if pa != pb {
			return cmp.Compare(pb, pa)
		}
		return strings.Compare(a, b)
	})

	return idx, nil
}

func compareEntries(a, b Entry) int {
	if a.Affinity != b.Affinity {
		return cmp.Compare(b.Affinity, a.Affinity)
	}
	return strings.Compare(a.TrackID, b.TrackID)
}

// Lookup returns the tracks with positive affinity for label, affinity
// descending then id ascending. Labels without tracks yield an empty slice.
func (idx *Index) Lookup(label domain.EmotionLabel) []Entry {
	entries := idx.byLabel[label]
	if len(entries) == 0 {
		return []Entry{}
	}
	return slices.Clone(entries)
}

// Track returns a copy of the track stored under id. The profile map is
// cloned so callers may modify it.
func (idx *Index) Track(id string) (domain.Track, bool) {
	t, ok := idx.tracks[id]
	if ok {
		t.Profile = maps.Clone(t.Profile)
	}
	return t, ok
}

// Len reports the number of tracks.
func (idx *Index) Len() int {
	return len(idx.order)
}

// DefaultOrder returns every track id ordered by popularity descending, then
// id ascending. Rankers fall back to it when a request carries no emotion.
func (idx *Index) DefaultOrder() []string {
	return slices.Clone(idx.defaults)
}

// IDs returns track ids in the order the source supplied them.
func (idx *Index) IDs() []string {
	return slices.Clone(idx.order)
}

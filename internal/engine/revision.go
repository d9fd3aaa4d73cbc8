package engine

import (
	"slices"

	"github.com/roach88/weave/internal/subset"
)

// RevID identifies a revision. Ids are opaque tokens issued by the
// engine; callers must not fabricate them.
type RevID int64

// Revision is one immutable entry in the log.
type Revision struct {
	ID RevID

	// FromUnion marks the union positions visible in this revision, over
	// the union as it stood when the revision was created.
	FromUnion subset.Subset

	// UnionLen is the union length when the revision was created.
	UnionLen int

	// Contents is Edit or Undo.
	Contents Contents
}

// Contents is the payload of a revision: Edit or Undo.
type Contents interface {
	// contentsMarker restricts implementations to this package.
	contentsMarker()
}

// Edit is a rebased text edit. Inserts and Deletes are in the union
// coordinates of the revision that carries them.
type Edit struct {
	Priority  int
	UndoGroup int

	// Inserts marks positions this edit introduced.
	Inserts subset.Subset

	// Deletes marks positions this edit removed.
	Deletes subset.Subset
}

// Undo records the groups considered undone from this revision on.
type Undo struct {
	Groups Groups
}

func (Edit) contentsMarker() {}
func (Undo) contentsMarker() {}

// Groups is an immutable, sorted set of undo group ids.
type Groups struct {
	ids []int
}

// NewGroups builds a set from ids, dropping duplicates.
func NewGroups(ids ...int) Groups {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return Groups{ids: slices.Compact(sorted)}
}

// Contains reports whether group is in the set.
func (g Groups) Contains(group int) bool {
	_, found := slices.BinarySearch(g.ids, group)
	return found
}

// IDs returns the members in ascending order.
func (g Groups) IDs() []int {
	return slices.Clone(g.ids)
}

// Len returns the number of members.
func (g Groups) Len() int {
	return len(g.ids)
}

// Equal reports whether both sets have the same members.
func (g Groups) Equal(o Groups) bool {
	return slices.Equal(g.ids, o.ids)
}

// Union returns the members of either set.
func (g Groups) Union(o Groups) Groups {
	return NewGroups(append(g.IDs(), o.ids...)...)
}

// SymmetricDifference returns the members of exactly one set.
func (g Groups) SymmetricDifference(o Groups) Groups {
	var out []int
	for _, id := range g.ids {
		if !o.Contains(id) {
			out = append(out, id)
		}
	}
	for _, id := range o.ids {
		if !g.Contains(id) {
			out = append(out, id)
		}
	}
	return NewGroups(out...)
}

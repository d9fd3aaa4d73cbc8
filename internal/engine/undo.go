package engine

// Undo makes exactly the given groups undone and appends an Undo revision
// recording the set. Returns the new revision id.
//
// Visibility is recomputed from the seed revision on every call. Calling
// Undo with an empty set redoes everything.
func (e *Engine) Undo(groups Groups) RevID {
	rev := e.computeUndo(groups)
	e.revs = append(e.revs, rev)

	e.logger.Debug("undo appended",
		"rev", rev.ID,
		"groups", groups.IDs(),
		"visible", rev.FromUnion.Count(),
	)
	return rev.ID
}

// Toggle flips the undone state of each group in groups relative to the
// current undo set. Toggling the same groups twice restores the prior
// visibility.
func (e *Engine) Toggle(groups Groups) RevID {
	current, _ := e.CurrentUndo()
	return e.Undo(current.SymmetricDifference(groups))
}

// computeUndo replays the whole history. Skipping the prefix before the
// first affected edit would be faster; nothing observable depends on it.
func (e *Engine) computeUndo(groups Groups) Revision {
	fromUnion := e.revs[0].FromUnion
	for _, r := range e.revs[1:] {
		edit, ok := r.Contents.(Edit)
		if !ok {
			continue
		}
		if groups.Contains(edit.UndoGroup) {
			if !edit.Inserts.IsTrivial() {
				fromUnion = fromUnion.TransformIntersect(edit.Inserts)
			}
			continue
		}
		if !edit.Inserts.IsTrivial() {
			fromUnion = fromUnion.TransformExpand(edit.Inserts)
		}
		if !edit.Deletes.IsTrivial() {
			fromUnion = fromUnion.Subtract(edit.Deletes)
		}
	}

	return Revision{
		ID:        e.clock.Next(),
		FromUnion: fromUnion,
		UnionLen:  e.union.Len(),
		Contents:  Undo{Groups: groups},
	}
}

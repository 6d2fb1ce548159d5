// Package refsync keeps denormalized back-reference arrays (author.books,
// book.reviews, user.reviews, user.orders) consistent with the foreign keys
// that are authoritative for them.
//
// Reconciliation is split in two: Plan derives the add/remove operations from
// a snapshot of the authoritative links and the current arrays, and the
// Engine applies them. Applying a plan and planning again yields nothing, so
// a pass can be re-run at any time, including after a partial failure.
package refsync

import (
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Op adds Child to, or removes it from, Parent's back-reference array.
type Op struct {
	Parent primitive.ObjectID
	Child  primitive.ObjectID
	Remove bool
}

type pair struct {
	parent, child primitive.ObjectID
}

// Plan returns the operations that make every holder's refs equal to the set
// of children whose link points at it. Removals come first: refs to children
// owned by another parent, refs to children that no longer exist, and
// duplicated refs (re-added afterwards). Links to parents that do not exist
// are left alone.
func Plan(links []models.Link, holders []models.Holder) []Op {
	parentOf := make(map[primitive.ObjectID]primitive.ObjectID, len(links))
	for _, l := range links {
		parentOf[l.Child] = l.Parent
	}

	var removes, adds []Op
	held := make(map[pair]bool)
	exists := make(map[primitive.ObjectID]bool, len(holders))
	for _, h := range holders {
		exists[h.ID] = true
		counts := lo.CountValues(h.Refs)
		for _, ref := range lo.Uniq(h.Refs) {
			parent, ok := parentOf[ref]
			if !ok || parent != h.ID || counts[ref] > 1 {
				removes = append(removes, Op{Parent: h.ID, Child: ref, Remove: true})
				continue
			}
			held[pair{h.ID, ref}] = true
		}
	}

	for _, l := range links {
		if l.Parent.IsZero() || !exists[l.Parent] || held[pair{l.Parent, l.Child}] {
			continue
		}
		held[pair{l.Parent, l.Child}] = true
		adds = append(adds, Op{Parent: l.Parent, Child: l.Child})
	}
	return append(removes, adds...)
}

// Package order holds the sort-order maintenance rules shared by plans and
// tasks. Every item in a partition (a user's plans of one type, or a plan's
// tasks) carries a sort_order, and the set of orders in a partition must stay
// a dense 0..count-1 permutation across inserts, deletes, moves and partition
// changes. The SQL statements in internal/store mirror these functions
// row-by-row.
package order

// Shift returns the sort order an item at current should hold after the item
// at oldOrder moves to newOrder within the same partition.
//
// The item at exactly oldOrder lands on newOrder. Items between the two
// positions slide by one toward the vacated slot: forward moves close the gap
// behind the item, backward moves open a gap in front of it. Everything else
// keeps its place.
func Shift(current, oldOrder, newOrder int) int {
	switch {
	case current == oldOrder:
		return newOrder
	case current > oldOrder && current <= newOrder:
		return current - 1
	case current >= newOrder && current < oldOrder:
		return current + 1
	default:
		return current
	}
}

// Compact returns the sort order an item at current should hold after the
// item at removed leaves the partition. It must be applied before the
// physical delete, while the removed item's order is still known.
func Compact(current, removed int) int {
	if current > removed {
		return current - 1
	}
	return current
}

// AppendAt returns the sort order for an item appended to a partition that
// currently holds count items.
func AppendAt(count int) int {
	return count
}

// MergeShift returns the sort order a transferred item should hold after its
// whole partition is folded into one that already holds existingCount items.
// Transferred items keep their relative order and line up after the existing
// block, so the combined partition stays dense.
func MergeShift(current, existingCount int) int {
	return current + existingCount
}

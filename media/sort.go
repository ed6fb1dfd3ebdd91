package media

import (
	"sort"

	"github.com/facette/natsort"
)

const (
	SortNameNat  = "name_nat"
	SortNameAsc  = "name_asc"
	SortDateDesc = "date_desc"
	SortDateAsc  = "date_asc"
)

const DefaultSortOrder = SortNameNat

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortNameNat, SortNameAsc, SortDateDesc, SortDateAsc:
		return true
	default:
		return false
	}
}

// SortObjects orders objects in place. Unknown orders fall back to natural name order.
func SortObjects(objects []ObjectInfo, order string) {
	switch order {
	case SortNameAsc:
		sort.SliceStable(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	case SortDateDesc:
		sort.SliceStable(objects, func(i, j int) bool { return objects[i].Uploaded.After(objects[j].Uploaded) })
	case SortDateAsc:
		sort.SliceStable(objects, func(i, j int) bool { return objects[i].Uploaded.Before(objects[j].Uploaded) })
	default:
		sort.SliceStable(objects, func(i, j int) bool { return natsort.Compare(objects[i].Key, objects[j].Key) })
	}
}

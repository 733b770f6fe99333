package core

import (
	"sort"
	"strings"

	"github.com/jmylchreest/fademix/internal/mixer"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByKey      SortField = "key"
	SortByVolume   SortField = "volume"
	SortByOutput   SortField = "output"
	SortByLeft     SortField = "left"
	SortByDuration SortField = "duration"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField // Field to sort by
	Order SortOrder // Sort order (asc/desc)
}

// DefaultSortOptions returns default sort options (by key, A to Z).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByKey,
		Order: SortAsc,
	}
}

// Sort sorts sounds in place based on the provided options. Ties keep
// their key order.
func Sort(sounds []mixer.SoundState, opts SortOptions) {
	if len(sounds) == 0 {
		return
	}

	sort.SliceStable(sounds, func(i, j int) bool {
		a, b := sounds[i], sounds[j]

		var less, equal bool
		switch opts.Field {
		case SortByVolume:
			less, equal = a.Volume < b.Volume, a.Volume == b.Volume
		case SortByOutput:
			less, equal = a.OutputVolume < b.OutputVolume, a.OutputVolume == b.OutputVolume
		case SortByLeft:
			less, equal = a.Left < b.Left, a.Left == b.Left
		case SortByDuration:
			less, equal = a.Duration < b.Duration, a.Duration == b.Duration
		default:
			less, equal = a.Key < b.Key, a.Key == b.Key
		}

		if equal {
			return a.Key < b.Key
		}
		if opts.Order == SortDesc {
			return !less
		}
		return less
	})
}

// ParseSortField parses a sort field string. Unknown fields sort by key.
func ParseSortField(s string) SortField {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "volume", "vol", "v":
		return SortByVolume
	case "output", "out", "o":
		return SortByOutput
	case "left", "remaining", "l":
		return SortByLeft
	case "duration", "length", "d":
		return SortByDuration
	default:
		return SortByKey
	}
}

// ParseSortOrder parses a sort order string. Unknown orders are ascending.
func ParseSortOrder(s string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending", "d":
		return SortDesc
	default:
		return SortAsc
	}
}

package nskeyed

import (
	"math"

	"howett.net/plist"
)

// Parsed property lists arrive as untyped value trees. The accessors below
// shape-check individual nodes; all of them tolerate nil.

func asDict(v any) (map[string]any, bool) {
	dict, ok := v.(map[string]any)
	return dict, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asUID accepts both genuine UID nodes and the {CF$UID: n} dictionary
// spelling that XML property lists use for them.
func asUID(v any) (plist.UID, bool) {
	switch v := v.(type) {
	case plist.UID:
		return v, true
	case map[string]any:
		if len(v) == 1 {
			if n, ok := asSignedInteger(v["CF$UID"]); ok && n >= 0 {
				return plist.UID(n), true
			}
		}
	}
	return 0, false
}

// asSignedInteger coerces integer nodes of any width. Unsigned values beyond
// the int64 range do not count as integers here.
func asSignedInteger(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	}
	return 0, false
}

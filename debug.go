package nskeyed

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"howett.net/plist"
)

// Dump renders the archive as one line per table slot, for debugging and
// tooling. Object references print as #n; references past the end of the
// table are flagged. The output is deterministic: record keys are sorted.
func Dump(data []byte) (string, error) {
	var v any
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return "", malformedData(err)
	}
	return DumpValue(v)
}

// DumpValue renders an already parsed archive value tree like Dump does.
func DumpValue(v any) (string, error) {
	arch, err := archiveFromValue(v)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "%s = %s\n", archiverKey, arch.Archiver)
	fmt.Fprintf(&buf, "%s = %d\n", versionKey, arch.Version)
	topKeys := make([]string, 0, len(arch.Top))
	for key := range arch.Top {
		topKeys = append(topKeys, key)
	}
	slices.Sort(topKeys)
	for _, key := range topKeys {
		fmt.Fprintf(&buf, "%s.%s = %s\n", topKey, key, dumpRef(arch.Top[key], len(arch.Objects)))
	}
	for i, slot := range arch.Objects {
		fmt.Fprintf(&buf, "%s[%d] = %s\n", objectsKey, i, dumpNode(slot, len(arch.Objects)))
	}
	return buf.String(), nil
}

func dumpRef(ref plist.UID, n int) string {
	if uint64(ref) >= uint64(n) {
		return fmt.Sprintf("#%d **DANGLING**", ref)
	}
	return fmt.Sprintf("#%d", ref)
}

func dumpNode(v any, n int) string {
	if ref, ok := asUID(v); ok {
		return dumpRef(ref, n)
	}
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case map[string]any:
		var buf strings.Builder
		buf.WriteByte('{')
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for i, key := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(key)
			buf.WriteString(": ")
			buf.WriteString(dumpNode(v[key], n))
		}
		buf.WriteByte('}')
		return buf.String()
	case []any:
		var buf strings.Builder
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(dumpNode(item, n))
		}
		buf.WriteByte(']')
		return buf.String()
	case []string:
		var buf strings.Builder
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(strconv.Quote(item))
		}
		buf.WriteByte(']')
		return buf.String()
	case []byte:
		return fmt.Sprintf("<%d bytes: %s>", len(v), hexstr(v))
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

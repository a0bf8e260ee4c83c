package nskeyed

import (
	"os"

	"howett.net/plist"
)

// Non-keyed archivers are not supported since NSArchiver is deprecated
// for better forward and backward compatibility.
const keyedArchiverClassName = "NSKeyedArchiver"

const archiveVersion = 100000

const (
	archiverKey = "$archiver"
	objectsKey  = "$objects"
	topKey      = "$top"
	versionKey  = "$version"

	classKey     = "$class"
	classesKey   = "$classes"
	classNameKey = "$classname"

	nullSentinel = "$null"
	rootKey      = "root"
)

type archive struct {
	Archiver string               `plist:"$archiver"`
	Objects  []any                `plist:"$objects"`
	Top      map[string]plist.UID `plist:"$top"`
	Version  uint64               `plist:"$version"`
}

// Marshal archives the object graph rooted at obj and returns it as a binary
// property list.
func Marshal(obj Object) ([]byte, error) {
	ar := newArchiver()
	root := ar.encodeNewObject(obj)
	data, err := plist.Marshal(ar.seal(root), plist.BinaryFormat)
	if err != nil {
		return nil, malformedData(err)
	}
	return data, nil
}

// Unmarshal decodes a previously archived object graph and returns its root
// object. The property list format (binary or XML) is detected automatically.
func Unmarshal(data []byte, reg *Registry) (Object, error) {
	var v any
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return Object{}, malformedData(err)
	}
	return UnmarshalValue(v, reg)
}

// UnmarshalFile decodes an archived object graph read from a file.
//
// File read errors are returned as is; everything else behaves like
// Unmarshal.
func UnmarshalFile(path string, reg *Registry) (Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Object{}, err
	}
	return Unmarshal(data, reg)
}

// UnmarshalValue decodes an archived object graph from an already parsed
// property list value tree. Dictionaries must be map[string]any and arrays
// []any, the way the plist codec produces them when decoding into any.
func UnmarshalValue(v any, reg *Registry) (Object, error) {
	arch, err := archiveFromValue(v)
	if err != nil {
		return Object{}, err
	}
	return arch.unarchiveRoot(reg)
}

func archiveFromValue(v any) (*archive, error) {
	dict, ok := asDict(v)
	if !ok {
		return nil, malformedDataf("expected an archive dictionary, got %T", v)
	}
	var arch archive
	if arch.Archiver, ok = asString(dict[archiverKey]); !ok {
		return nil, malformedDataf("missing or invalid %s", archiverKey)
	}
	if arch.Objects, ok = dict[objectsKey].([]any); !ok {
		return nil, malformedDataf("missing or invalid %s", objectsKey)
	}
	top, ok := asDict(dict[topKey])
	if !ok {
		return nil, malformedDataf("missing or invalid %s", topKey)
	}
	arch.Top = make(map[string]plist.UID, len(top))
	for key, tv := range top {
		uid, ok := asUID(tv)
		if !ok {
			return nil, malformedDataf("%s.%s is not an object reference", topKey, key)
		}
		arch.Top[key] = uid
	}
	ver, ok := asSignedInteger(dict[versionKey])
	if !ok || ver < 0 {
		return nil, malformedDataf("missing or invalid %s", versionKey)
	}
	arch.Version = uint64(ver)
	return &arch, nil
}

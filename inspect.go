package nskeyed

import (
	"slices"

	"howett.net/plist"
)

// ArchiveInfo summarizes a keyed archive without decoding any of its
// objects, so no registry is needed. Tools use it to answer "what is in this
// file" for archives whose classes they cannot reconstruct.
type ArchiveInfo struct {
	Archiver  string   // value of $archiver, not necessarily NSKeyedArchiver
	Version   uint64   // value of $version
	Format    string   // property list format name, "" when unknown
	Objects   int      // object table size, including the $null sentinel
	RootClass string   // class name of the root object, "" when unresolvable
	Classes   []string // distinct class names in table order
}

// Inspect parses data as a property list and summarizes the archive
// envelope. Unlike Unmarshal it accepts archives produced by any archiver.
func Inspect(data []byte) (*ArchiveInfo, error) {
	var v any
	format, err := plist.Unmarshal(data, &v)
	if err != nil {
		return nil, malformedData(err)
	}
	info, err := InspectValue(v)
	if err != nil {
		return nil, err
	}
	info.Format = plist.FormatNames[format]
	return info, nil
}

// InspectValue summarizes an already parsed archive value tree. The Format
// field of the result is left empty.
func InspectValue(v any) (*ArchiveInfo, error) {
	arch, err := archiveFromValue(v)
	if err != nil {
		return nil, err
	}
	return &ArchiveInfo{
		Archiver:  arch.Archiver,
		Version:   arch.Version,
		Objects:   len(arch.Objects),
		RootClass: arch.rootClassName(),
		Classes:   arch.classNames(),
	}, nil
}

// rootClassName resolves $top.root to its record's class name. Returns ""
// when any step of the chain is broken.
func (arch *archive) rootClassName() string {
	root, ok := arch.Top[rootKey]
	if !ok || uint64(root) >= uint64(len(arch.Objects)) {
		return ""
	}
	dict, ok := asDict(arch.Objects[root])
	if !ok {
		return ""
	}
	classRef, ok := asUID(dict[classKey])
	if !ok || uint64(classRef) >= uint64(len(arch.Objects)) {
		return ""
	}
	classDict, ok := asDict(arch.Objects[classRef])
	if !ok {
		return ""
	}
	name, _ := asString(classDict[classNameKey])
	return name
}

func (arch *archive) classNames() []string {
	var names []string
	for _, slot := range arch.Objects {
		dict, ok := asDict(slot)
		if !ok {
			continue
		}
		name, ok := asString(dict[classNameKey])
		if !ok {
			continue
		}
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

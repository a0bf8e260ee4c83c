package nskeyed

// Decoder is handed to class decode functions to read back the fields of the
// object being decoded.
type Decoder interface {
	// DecodeInt32 returns the integer stored under key, or 0 when the key is
	// absent or does not hold an integer.
	DecodeInt32(key string) int32

	// DecodeInt64 returns the integer stored under key, or 0 when the key is
	// absent or does not hold an integer.
	DecodeInt64(key string) int64

	// DecodeString returns the string referenced by key. ok is false when
	// the key is absent or does not reference a string in the table.
	DecodeString(key string) (string, bool)

	// DecodeObject decodes the object referenced by key. ok is false when
	// the key is absent, the reference is dangling, or the referenced object
	// fails to decode for any reason.
	DecodeObject(key string) (Object, bool)
}

type unarchiver struct {
	arch *archive
	reg  *Registry
}

func (arch *archive) unarchiveRoot(reg *Registry) (Object, error) {
	// Validate the archiver class before walking the table.
	if arch.Archiver != keyedArchiverClassName {
		return Object{}, &UnsupportedArchiverError{arch.Archiver}
	}

	root, ok := arch.Top[rootKey]
	if !ok {
		return Object{}, ErrNoRootObject
	}
	if uint64(root) >= uint64(len(arch.Objects)) {
		return Object{}, ErrMalformedObject
	}

	un := &unarchiver{arch, reg}
	return un.decodeObjectAt(int(root))
}

// decodeObjectAt resolves the class of the record at idx and dispatches to
// the registered decode function. idx must be in bounds.
func (un *unarchiver) decodeObjectAt(idx int) (Object, error) {
	objects := un.arch.Objects
	dict, ok := asDict(objects[idx])
	if !ok {
		return Object{}, ErrMalformedObject
	}
	classRef, ok := asUID(dict[classKey])
	if !ok {
		return Object{}, ErrMalformedObject
	}
	if uint64(classRef) >= uint64(len(objects)) {
		return Object{}, ErrMalformedObject
	}
	classDict, ok := asDict(objects[classRef])
	if !ok {
		return Object{}, ErrMalformedObject
	}
	name, ok := asString(classDict[classNameKey])
	if !ok {
		return Object{}, ErrMalformedObject
	}

	cl := un.reg.ClassNamed(name)
	if cl == nil {
		return Object{}, &UnknownClassError{name}
	}
	obj, ok := cl.decodeErased(objectDecoder{un, idx})
	if !ok {
		return Object{}, ErrMalformedObject
	}
	return obj, nil
}

// objectDecoder reads the fields of one record slot. Like objectEncoder,
// every recursion frame gets its own value, so decoding a nested object
// leaves the outer frame untouched.
type objectDecoder struct {
	un  *unarchiver
	idx int
}

func (dec objectDecoder) record() (map[string]any, bool) {
	objects := dec.un.arch.Objects
	if dec.idx >= len(objects) {
		panic("internal state of unarchiver is inconsistent")
	}
	return asDict(objects[dec.idx])
}

func (dec objectDecoder) DecodeInt32(key string) int32 {
	return int32(dec.DecodeInt64(key))
}

func (dec objectDecoder) DecodeInt64(key string) int64 {
	dict, ok := dec.record()
	if !ok {
		return 0
	}
	v, ok := asSignedInteger(dict[key])
	if !ok {
		return 0
	}
	return v
}

func (dec objectDecoder) DecodeString(key string) (string, bool) {
	dict, ok := dec.record()
	if !ok {
		return "", false
	}
	ref, ok := asUID(dict[key])
	if !ok {
		return "", false
	}
	objects := dec.un.arch.Objects
	if uint64(ref) >= uint64(len(objects)) {
		return "", false
	}
	return asString(objects[ref])
}

func (dec objectDecoder) DecodeObject(key string) (Object, bool) {
	dict, ok := dec.record()
	if !ok {
		return Object{}, false
	}
	ref, ok := asUID(dict[key])
	if !ok {
		return Object{}, false
	}
	objects := dec.un.arch.Objects
	if uint64(ref) >= uint64(len(objects)) {
		return Object{}, false
	}

	// Failures below the root degrade to an absent object; only the
	// outermost decode surfaces structured errors.
	obj, err := dec.un.decodeObjectAt(int(ref))
	if err != nil {
		return Object{}, false
	}
	return obj, true
}

package nskeyed

import (
	"howett.net/plist"
)

// Encoder is handed to class encode functions to write the fields of the
// object being archived. Integers are stored inline in the object record;
// strings and objects are stored as separate table entries and referenced.
//
// Encoding the same key twice overwrites the earlier value.
type Encoder interface {
	// EncodeInt32 stores an integer field under key.
	EncodeInt32(v int32, key string)

	// EncodeInt64 stores an integer field under key.
	EncodeInt64(v int64, key string)

	// EncodeString stores a string field under key.
	EncodeString(v string, key string)

	// EncodeObject archives obj and stores a reference to it under key.
	EncodeObject(obj Object, key string)
}

// archiver accumulates the object table. Index 0 is the $null sentinel, so
// UID 0 never refers to a live object.
type archiver struct {
	objects []any
}

func newArchiver() *archiver {
	return &archiver{objects: []any{nullSentinel}}
}

// encodeNewObject appends a record for obj and returns a reference to it.
// The record slot is claimed before the object's fields are encoded, fixing
// its UID even when nested objects grow the table midway. The class info
// record is emitted fresh for every object and linked via $class.
func (ar *archiver) encodeNewObject(obj Object) plist.UID {
	if obj.class == nil {
		panic("nskeyed: cannot encode a zero Object")
	}

	idx := len(ar.objects)
	ar.objects = append(ar.objects, make(map[string]any))

	enc := objectEncoder{ar, idx}
	obj.encode(enc)

	chain := obj.class.Classes()
	if len(chain) == 0 {
		panic("internal state of archiver is inconsistent")
	}
	classIdx := len(ar.objects)
	ar.objects = append(ar.objects, map[string]any{
		classesKey:   chain,
		classNameKey: chain[0],
	})
	enc.record()[classKey] = plist.UID(classIdx)

	return plist.UID(idx)
}

func (ar *archiver) seal(root plist.UID) *archive {
	return &archive{
		Archiver: keyedArchiverClassName,
		Objects:  ar.objects,
		Top:      map[string]plist.UID{rootKey: root},
		Version:  archiveVersion,
	}
}

// objectEncoder writes fields into one claimed record slot. Every archived
// object gets its own encoder value, so encoding a nested object cannot
// redirect writes meant for the outer record.
type objectEncoder struct {
	ar  *archiver
	idx int
}

func (enc objectEncoder) record() map[string]any {
	if enc.idx >= len(enc.ar.objects) {
		panic("internal state of archiver is inconsistent")
	}
	dict, ok := enc.ar.objects[enc.idx].(map[string]any)
	if !ok {
		panic("internal state of archiver is inconsistent")
	}
	return dict
}

func (enc objectEncoder) EncodeInt32(v int32, key string) {
	enc.EncodeInt64(int64(v), key)
}

func (enc objectEncoder) EncodeInt64(v int64, key string) {
	enc.record()[key] = v
}

func (enc objectEncoder) EncodeString(v string, key string) {
	idx := len(enc.ar.objects)
	enc.ar.objects = append(enc.ar.objects, v)
	enc.record()[key] = plist.UID(idx)
}

func (enc objectEncoder) EncodeObject(obj Object, key string) {
	ref := enc.ar.encodeNewObject(obj)
	enc.record()[key] = ref
}

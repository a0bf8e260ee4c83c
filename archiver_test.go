package nskeyed

import (
	"testing"

	"howett.net/plist"
)

func TestArchiverTableLayout(t *testing.T) {
	ar := newArchiver()
	root := ar.encodeNewObject(personClass.Wrap(&Person{Age: 26, FirstName: "Cyan", LastName: "Yang"}))

	deepEqual(t, root, plist.UID(1))
	deepEqual(t, len(ar.objects), 5)
	deepEqual(t, ar.objects[0], any(nullSentinel))
	deepEqual(t, ar.objects[1], any(map[string]any{
		"Age":       int64(26),
		"FirstName": plist.UID(2),
		"LastName":  plist.UID(3),
		"$class":    plist.UID(4),
	}))
	deepEqual(t, ar.objects[2], any("Cyan"))
	deepEqual(t, ar.objects[3], any("Yang"))
	deepEqual(t, ar.objects[4], any(map[string]any{
		"$classes":   []string{"RCDPerson", "NSObject"},
		"$classname": "RCDPerson",
	}))

	arch := ar.seal(root)
	deepEqual(t, arch.Archiver, "NSKeyedArchiver")
	deepEqual(t, arch.Top, map[string]plist.UID{"root": 1})
	deepEqual(t, arch.Version, uint64(100000))
}

// Nested objects are archived depth-first, but the outer record's slot is
// claimed before its fields run, so references stay stable.
func TestArchiverNestedObjectLayout(t *testing.T) {
	team := &Team{Name: "Research", Lead: &Person{Age: 26, FirstName: "Cyan", LastName: "Yang"}}

	ar := newArchiver()
	root := ar.encodeNewObject(teamClass.Wrap(team))

	deepEqual(t, root, plist.UID(1))
	deepEqual(t, len(ar.objects), 8)
	deepEqual(t, ar.objects[1], any(map[string]any{
		"Name":   plist.UID(2),
		"Lead":   plist.UID(3),
		"$class": plist.UID(7),
	}))
	deepEqual(t, ar.objects[2], any("Research"))
	deepEqual(t, ar.objects[3], any(map[string]any{
		"Age":       int64(26),
		"FirstName": plist.UID(4),
		"LastName":  plist.UID(5),
		"$class":    plist.UID(6),
	}))
	deepEqual(t, ar.objects[6].(map[string]any)["$classname"], any("RCDPerson"))
	deepEqual(t, ar.objects[7].(map[string]any)["$classname"], any("RCDTeam"))
}

// Class info records are written per object, never shared, even for objects
// of the same class.
func TestArchiverClassInfoNotShared(t *testing.T) {
	team := &Team{Name: "Pair", Lead: &Person{Age: 1, FirstName: "A", LastName: "B"}}

	ar := newArchiver()
	ar.encodeNewObject(teamClass.Wrap(team))
	before := len(ar.objects)
	ar.encodeNewObject(personClass.Wrap(&Person{Age: 2, FirstName: "C", LastName: "D"}))

	var infos int
	for _, slot := range ar.objects {
		if dict, ok := asDict(slot); ok {
			if _, ok := asString(dict["$classname"]); ok {
				infos++
			}
		}
	}
	deepEqual(t, infos, 3)
	if len(ar.objects) <= before {
		t.Errorf("** second object did not grow the table")
	}
}

func TestArchiverStringsNotDeduped(t *testing.T) {
	cl := NewClass("RCDPair", NSObject,
		func(v *string, enc Encoder) {
			enc.EncodeString(*v, "A")
			enc.EncodeString(*v, "B")
		}, nil)

	s := "same"
	ar := newArchiver()
	ar.encodeNewObject(cl.Wrap(&s))

	rec := ar.objects[1].(map[string]any)
	deepEqual(t, rec["A"], any(plist.UID(2)))
	deepEqual(t, rec["B"], any(plist.UID(3)))
	deepEqual(t, ar.objects[2], any("same"))
	deepEqual(t, ar.objects[3], any("same"))
}

func TestEncodeDuplicateKeyLastWins(t *testing.T) {
	cl := NewClass("RCDCounter", NSObject,
		func(v *int64, enc Encoder) {
			enc.EncodeInt64(1, "N")
			enc.EncodeInt64(*v, "N")
		}, nil)

	n := int64(7)
	ar := newArchiver()
	ar.encodeNewObject(cl.Wrap(&n))

	deepEqual(t, ar.objects[1].(map[string]any)["N"], any(int64(7)))
}

func TestMarshalZeroObjectPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("** Marshal(Object{}) did not panic")
		}
	}()
	Marshal(Object{})
}

// Every reference in a produced archive points into the table, slot 0 is the
// $null sentinel, and every record's class info is well formed.
func TestMarshalTableInvariants(t *testing.T) {
	team := &Team{Name: "Research", Lead: &Person{Age: 26, FirstName: "Cyan", LastName: "Yang"}}
	data := must(Marshal(teamClass.Wrap(team)))

	var v any
	_, err := plist.Unmarshal(data, &v)
	if err != nil {
		t.Fatalf("** produced archive does not parse: %v", err)
	}
	arch, err := archiveFromValue(v)
	if err != nil {
		t.Fatalf("** produced archive has a bad envelope: %v", err)
	}

	n := uint64(len(arch.Objects))
	checkRef := func(ref plist.UID, what string) {
		if uint64(ref) >= n {
			t.Errorf("** %s reference #%d outside table of %d", what, ref, n)
		}
	}

	deepEqual(t, arch.Archiver, "NSKeyedArchiver")
	deepEqual(t, arch.Version, uint64(100000))
	deepEqual(t, arch.Objects[0], any("$null"))
	for key, ref := range arch.Top {
		checkRef(ref, "$top."+key)
	}
	for i, slot := range arch.Objects {
		dict, ok := asDict(slot)
		if !ok {
			continue
		}
		for key, value := range dict {
			if ref, ok := asUID(value); ok {
				checkRef(ref, key)
			}
		}
		if classRef, ok := asUID(dict["$class"]); ok {
			if uint64(classRef) >= n {
				continue
			}
			classDict, ok := asDict(arch.Objects[classRef])
			if !ok {
				t.Errorf("** $class of slot %d does not reference a dictionary", i)
				continue
			}
			if _, ok := asString(classDict["$classname"]); !ok {
				t.Errorf("** class info at #%d has no $classname", classRef)
			}
		}
	}
}

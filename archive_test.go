package nskeyed

import (
	"reflect"
	"testing"
)

type (
	Person struct {
		Age       int32
		FirstName string
		LastName  string
	}

	Employee struct {
		Person
		Salary int64
	}

	Team struct {
		Name string
		Lead *Person
	}
)

var personClass = NewClass("RCDPerson", NSObject,
	func(p *Person, enc Encoder) {
		enc.EncodeInt32(p.Age, "Age")
		enc.EncodeString(p.FirstName, "FirstName")
		enc.EncodeString(p.LastName, "LastName")
	},
	func(dec Decoder) *Person {
		first, ok := dec.DecodeString("FirstName")
		if !ok {
			return nil
		}
		last, ok := dec.DecodeString("LastName")
		if !ok {
			return nil
		}
		return &Person{Age: dec.DecodeInt32("Age"), FirstName: first, LastName: last}
	})

var employeeClass = NewClass("RCDEmployee", personClass,
	func(e *Employee, enc Encoder) {
		enc.EncodeInt32(e.Age, "Age")
		enc.EncodeString(e.FirstName, "FirstName")
		enc.EncodeString(e.LastName, "LastName")
		enc.EncodeInt64(e.Salary, "Salary")
	},
	func(dec Decoder) *Employee {
		first, ok := dec.DecodeString("FirstName")
		if !ok {
			return nil
		}
		last, ok := dec.DecodeString("LastName")
		if !ok {
			return nil
		}
		return &Employee{
			Person: Person{Age: dec.DecodeInt32("Age"), FirstName: first, LastName: last},
			Salary: dec.DecodeInt64("Salary"),
		}
	})

var teamClass = NewClass("RCDTeam", NSObject,
	func(tm *Team, enc Encoder) {
		enc.EncodeString(tm.Name, "Name")
		enc.EncodeObject(personClass.Wrap(tm.Lead), "Lead")
	},
	func(dec Decoder) *Team {
		name, ok := dec.DecodeString("Name")
		if !ok {
			return nil
		}
		obj, ok := dec.DecodeObject("Lead")
		if !ok {
			return nil
		}
		lead, ok := Downcast[Person](obj)
		if !ok {
			return nil
		}
		return &Team{Name: name, Lead: lead}
	})

func TestRoundTrip(t *testing.T) {
	person := &Person{Age: 26, FirstName: "Cyan", LastName: "Yang"}

	data := must(Marshal(personClass.Wrap(person)))

	reg := NewRegistry()
	reg.Register(personClass)

	obj := mustUnmarshal(t, data, reg)
	deepEqual(t, obj.ClassName(), "RCDPerson")
	deepEqual(t, downcast[Person](t, obj), person)
}

func TestRoundTripNestedObject(t *testing.T) {
	team := &Team{Name: "Research", Lead: &Person{Age: 26, FirstName: "Cyan", LastName: "Yang"}}

	data := must(Marshal(teamClass.Wrap(team)))

	reg := NewRegistry()
	reg.Register(teamClass, personClass)

	obj := mustUnmarshal(t, data, reg)
	deepEqual(t, downcast[Team](t, obj), team)
}

func TestRoundTripSubclass(t *testing.T) {
	emp := &Employee{Person: Person{Age: 31, FirstName: "Maria", LastName: "Ko"}, Salary: 185000}

	data := must(Marshal(employeeClass.Wrap(emp)))

	reg := NewRegistry()
	reg.Register(employeeClass)

	obj := mustUnmarshal(t, data, reg)
	deepEqual(t, obj.Class().Classes(), []string{"RCDEmployee", "RCDPerson", "NSObject"})
	deepEqual(t, downcast[Employee](t, obj), emp)
}

func TestRoundTripRootObject(t *testing.T) {
	data := must(Marshal(NSObject.Wrap(&RootObject{})))

	reg := NewRegistry()
	reg.Register(NSObject)

	obj := mustUnmarshal(t, data, reg)
	deepEqual(t, obj.ClassName(), "NSObject")
	deepEqual(t, downcast[RootObject](t, obj), &RootObject{})
}

// A decoded handle carries enough captured behavior to be archived again.
func TestReencodeDecodedObject(t *testing.T) {
	person := &Person{Age: 26, FirstName: "Cyan", LastName: "Yang"}
	reg := NewRegistry()
	reg.Register(personClass)

	data := must(Marshal(personClass.Wrap(person)))
	obj := mustUnmarshal(t, data, reg)

	data2 := must(Marshal(obj))
	obj2 := mustUnmarshal(t, data2, reg)
	deepEqual(t, downcast[Person](t, obj2), person)
}

func mustUnmarshal(t testing.TB, data []byte, reg *Registry) Object {
	t.Helper()
	obj, err := Unmarshal(data, reg)
	if err != nil {
		t.Fatalf("** Unmarshal failed: %v", err)
	}
	return obj
}

func downcast[T any](t testing.TB, obj Object) *T {
	t.Helper()
	v, ok := Downcast[T](obj)
	if !ok {
		t.Fatalf("** got %s, wanted %T", obj.ClassName(), (*T)(nil))
	}
	return v
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

package nskeyed

import (
	"fmt"
)

// Object is a type-erased handle to an archivable value. A handle owns one
// concrete value together with captured behavior for re-encoding and debug
// formatting, so decoded objects of different classes can travel through the
// same APIs and be archived again without knowing their Go types.
//
// The zero Object is the absent object; IsZero reports it.
type Object struct {
	class  AnyClass
	value  any
	encode func(enc Encoder)
	debug  func() string
}

// Wrap erases v into an Object handle. Panics if v is nil.
func (c *Class[T]) Wrap(v *T) Object {
	if v == nil {
		panic(fmt.Sprintf("nskeyed: cannot wrap a nil %s", c.name))
	}
	return Object{
		class: c,
		value: v,
		encode: func(enc Encoder) {
			if c.encode != nil {
				c.encode(v, enc)
			}
		},
		debug: func() string {
			return fmt.Sprintf("%s%+v", c.name, *v)
		},
	}
}

// Downcast returns the concrete value behind obj if its dynamic type is *T.
func Downcast[T any](obj Object) (*T, bool) {
	v, ok := obj.value.(*T)
	return v, ok
}

// Class returns the class descriptor of the wrapped value, or nil for the
// zero Object.
func (obj Object) Class() AnyClass {
	return obj.class
}

// ClassName returns the Cocoa class name of the wrapped value, or "" for the
// zero Object.
func (obj Object) ClassName() string {
	if obj.class == nil {
		return ""
	}
	return obj.class.Name()
}

// Value returns the wrapped value as stored, a pointer to the concrete type.
// Use [Downcast] when the type is known.
func (obj Object) Value() any {
	return obj.value
}

func (obj Object) IsZero() bool {
	return obj.class == nil
}

func (obj Object) String() string {
	if obj.debug == nil {
		return "<nil>"
	}
	return obj.debug()
}

package nskeyed

import (
	"fmt"
	"slices"
)

// AnyClass describes an archivable class without reference to the Go type
// behind it: its Cocoa class name and its place in the class hierarchy.
// The only implementation is [Class]; the interface exists so that classes
// of different Go types can share registries, superclass slots and handles.
type AnyClass interface {
	// Name returns the Cocoa class name.
	Name() string

	// Super returns the superclass descriptor. The root class returns
	// itself.
	Super() AnyClass

	// Classes returns the class chain, most derived class first, ending
	// with the root class name.
	Classes() []string

	decodeErased(dec Decoder) (Object, bool)
}

// Class binds a Go type to a Cocoa class name and its archiving behavior.
// Define one Class value per archivable type, typically in a package-level
// var, and pass it to [Registry.Register] before decoding.
type Class[T any] struct {
	name   string
	super  AnyClass // nil marks the root class
	chain  []string
	encode func(v *T, enc Encoder)
	decode func(dec Decoder) *T
}

// NewClass defines an archivable class named name whose superclass is super.
// Pass [NSObject] as super for classes that inherit directly from the root.
//
// The encode function writes the fields of v using enc. The decode function
// reconstructs a value from previously encoded fields, returning nil when a
// required field is missing. Either can be nil: a nil encode archives an
// object with no fields of its own, a nil decode makes the class
// encode-only.
func NewClass[T any](name string, super AnyClass, encode func(v *T, enc Encoder), decode func(dec Decoder) *T) *Class[T] {
	if name == "" {
		panic("nskeyed: class name cannot be empty")
	}
	if super == nil {
		panic(fmt.Sprintf("nskeyed: class %s has no superclass, use NSObject to derive from the root class", name))
	}
	c := &Class[T]{name: name, super: super, encode: encode, decode: decode}
	c.chain = append([]string{name}, super.Classes()...)
	return c
}

// RootObject is the value type behind [NSObject]. Decoding an archive whose
// root was an NSObject yields a *RootObject.
type RootObject struct{}

// NSObject is the root of every class hierarchy, mirroring the Cocoa class
// of the same name. It is its own superclass.
var NSObject = rootClass()

func rootClass() *Class[RootObject] {
	c := &Class[RootObject]{
		name:   "NSObject",
		decode: func(dec Decoder) *RootObject { return &RootObject{} },
	}
	c.chain = []string{c.name}
	return c
}

func (c *Class[T]) Name() string {
	return c.name
}

func (c *Class[T]) Super() AnyClass {
	if c.super == nil {
		return c
	}
	return c.super
}

func (c *Class[T]) Classes() []string {
	return slices.Clone(c.chain)
}

func (c *Class[T]) decodeErased(dec Decoder) (Object, bool) {
	if c.decode == nil {
		return Object{}, false
	}
	v := c.decode(dec)
	if v == nil {
		return Object{}, false
	}
	return c.Wrap(v), true
}

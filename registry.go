package nskeyed

// Registry maps class names recorded in archives to the classes that decode
// them. Registries are append-only: build one up front, then share it across
// any number of concurrent Unmarshal calls.
//
// A nil *Registry is valid and knows no classes.
type Registry struct {
	classes map[string]AnyClass
}

func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]AnyClass)}
}

// Register adds the given classes and all of their ancestors. The first
// class registered under a name wins; registering the same name again does
// nothing.
func (reg *Registry) Register(classes ...AnyClass) {
	for _, cl := range classes {
		reg.registerChain(cl)
	}
}

func (reg *Registry) registerChain(cl AnyClass) {
	if super := cl.Super(); super != cl {
		reg.registerChain(super)
	}
	if _, ok := reg.classes[cl.Name()]; !ok {
		reg.classes[cl.Name()] = cl
	}
}

// ClassNamed returns the registered class with the given name, or nil.
func (reg *Registry) ClassNamed(name string) AnyClass {
	if reg == nil {
		return nil
	}
	return reg.classes[name]
}

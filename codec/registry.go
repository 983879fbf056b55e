package codec

import (
	"strings"
	"sync"
)

// Class describes a record type.
type Class struct {
	// Name is the full name as written in the c attribute, e.g. "Shop::Item".
	Name string
	// Fields are the known field names in order.
	Fields []string
	// Struct selects the u tag instead of o.
	Struct bool
	// Placeholder is set on classes created by EffortAutoDefine.
	Placeholder bool
	// Parent is the enclosing namespace, nil at the top level.
	Parent *Class
}

// Registry maps class names to classes. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Define registers a class with the given field names, replacing any
// class of the same name.
func (r *Registry) Define(name string, fields ...string) *Class {
	c := &Class{Name: name, Fields: fields}
	r.mu.Lock()
	r.classes[classKey(name)] = c
	r.mu.Unlock()
	return c
}

// Lookup returns the class registered under name. "a.b" and "a::b" name
// the same class.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	c, ok := r.classes[classKey(name)]
	r.mu.RUnlock()
	return c, ok
}

// Len returns the number of classes including auto-defined namespaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// autoDefine returns the class for name, creating placeholder classes
// for every missing segment of its path.
func (r *Registry) autoDefine(name string, asStruct bool) *Class {
	segments := splitClassName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	var parent *Class
	for i := range segments {
		key := strings.Join(segments[:i+1], "::")
		c, ok := r.classes[key]
		if !ok {
			c = &Class{Name: key, Placeholder: true, Parent: parent}
			r.classes[key] = c
		}
		parent = c
	}
	if parent.Placeholder {
		parent.Name = name
		parent.Struct = asStruct
	}
	return parent
}

// addField records a field name seen on a placeholder class.
func (r *Registry) addField(c *Class, field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range c.Fields {
		if f == field {
			return
		}
	}
	c.Fields = append(c.Fields, field)
}

func splitClassName(name string) []string {
	name = strings.ReplaceAll(name, "::", ".")
	parts := strings.Split(name, ".")
	res := parts[:0]
	for _, p := range parts {
		if p != "" {
			res = append(res, p)
		}
	}
	if len(res) == 0 {
		return []string{name}
	}
	return res
}

func classKey(name string) string {
	return strings.Join(splitClassName(name), "::")
}

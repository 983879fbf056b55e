package oxml

import "errors"

// NamespaceModifier tracks namespace declarations so that the effective
// namespace of a name can be obtained via NamespaceOf. As an encoder
// Middleware it can also strip prefixes and canonicalize/minify namespace
// declarations. A Decoder uses one internally for Config.Prefix.
type NamespaceModifier struct {
	// Mode selects which prefixes are removed from element and attribute names.
	Mode PrefixMode
	// Prefix is the prefix removed under PrefixStripOne.
	Prefix string
	// Minify rewrites prefixes to short generated aliases and drops
	// declarations of namespaces that are already bound. Only the
	// Encoder sees whole start tags, so only it honours Minify.
	Minify bool

	openNames []Name
	nsOffs    []int32
	aliasOffs []int32

	// prefix, namespace pairs
	namespaces []string
	// original, alias pairs
	prefixAliases []string
}

// NewNamespaceModifier creates a new NamespaceModifier and returns a pointer to it.
func NewNamespaceModifier() *NamespaceModifier {
	return &NamespaceModifier{
		openNames:     make([]Name, 0, 32),
		nsOffs:        make([]int32, 1, 32),
		aliasOffs:     make([]int32, 1, 32),
		namespaces:    make([]string, 0, 64),
		prefixAliases: make([]string, 0, 16),
	}
}

// Reset resets this NamespaceModifier.
func (thiz *NamespaceModifier) Reset() {
	thiz.openNames = thiz.openNames[:0]
	thiz.nsOffs = thiz.nsOffs[:1]
	thiz.nsOffs[0] = 0
	thiz.aliasOffs = thiz.aliasOffs[:1]
	thiz.aliasOffs[0] = 0
	thiz.namespaces = thiz.namespaces[:0]
	thiz.prefixAliases = thiz.prefixAliases[:0]
}

// StartElement implements Middleware.
func (thiz *NamespaceModifier) StartElement(name *Name, attrs []Attr) ([]Attr, error) {
	thiz.push(*name)
	attrs = thiz.processNamespaces(name, attrs)
	if len(thiz.prefixAliases) > 0 {
		for i := range attrs {
			if alias, ok := thiz.findPrefixAlias(attrs[i].Name.Prefix); ok && attrs[i].Name.Prefix != "" {
				attrs[i].Name.Prefix = alias
			}
		}
		if alias, ok := thiz.findPrefixAlias(name.Prefix); ok {
			name.Prefix = alias
		}
	}
	for i := range attrs {
		attrs[i].Name = thiz.strip(attrs[i].Name)
	}
	*name = thiz.strip(*name)
	thiz.openNames[len(thiz.openNames)-1] = *name
	return attrs, nil
}

// EndElement implements Middleware. The name is replaced by the
// (possibly rewritten) name of the matching start element.
func (thiz *NamespaceModifier) EndElement(name *Name) error {
	if len(thiz.openNames) == 0 {
		return errors.New("namespace stack underflow")
	}
	*name = thiz.openNames[len(thiz.openNames)-1]
	thiz.pop()
	return nil
}

func (thiz *NamespaceModifier) push(name Name) {
	thiz.openNames = append(thiz.openNames, name)
	thiz.nsOffs = append(thiz.nsOffs, int32(len(thiz.namespaces)))
	thiz.aliasOffs = append(thiz.aliasOffs, int32(len(thiz.prefixAliases)))
}

func (thiz *NamespaceModifier) pop() {
	if len(thiz.openNames) == 0 {
		return
	}
	top := len(thiz.openNames)
	thiz.namespaces = thiz.namespaces[:thiz.nsOffs[top]]
	thiz.prefixAliases = thiz.prefixAliases[:thiz.aliasOffs[top]]
	thiz.openNames = thiz.openNames[:top-1]
	thiz.nsOffs = thiz.nsOffs[:top]
	thiz.aliasOffs = thiz.aliasOffs[:top]
}

// stripped reports whether Mode removes the prefix of n.
func (thiz *NamespaceModifier) stripped(n Name) bool {
	if n.Prefix == "" || n.Prefix == "xmlns" || n.Prefix == "xml" {
		return false
	}
	switch thiz.Mode {
	case PrefixStripAll:
		return true
	case PrefixStripOne:
		return n.Prefix == thiz.Prefix
	}
	return false
}

func (thiz *NamespaceModifier) strip(n Name) Name {
	if thiz.stripped(n) {
		return Name{Local: n.Local, Slot: -1}
	}
	return n
}

// processNamespaces scans the attributes for namespace declarations,
// either with or without a binding prefix, and with Minify re-assigns
// prefixes to existing or new aliases and drops redundant declarations.
func (thiz *NamespaceModifier) processNamespaces(name *Name, attrs []Attr) []Attr {
	j := 0
	for i := range attrs {
		attr := attrs[i]
		if attr.Name.Prefix == "xmlns" {
			// xmlns:prefix
			uri := string(attr.Value)
			if !thiz.Minify {
				thiz.addNamespaceBinding(attr.Name.Local, uri)
			} else if prefix, ok := thiz.findPrefixForNamespace(uri); ok {
				// we know that namespace by another prefix, so establish a
				// rewrite for the prefix and drop the declaration
				if prefix != attr.Name.Local {
					thiz.addPrefixRewrite(attr.Name.Local, prefix)
				}
				continue
			} else {
				alias := aliasName(len(thiz.namespaces) / 2)
				thiz.addPrefixRewrite(attr.Name.Local, alias)
				thiz.addNamespaceBinding(alias, uri)
				attr.Name.Local = alias
			}
		} else if attr.Name.Prefix == "" && attr.Name.Local == "xmlns" {
			uri := string(attr.Value)
			if thiz.Minify {
				// the element is already in that namespace
				if current, ok := thiz.findNamespaceForPrefix(""); ok && current == uri {
					continue
				}
				// use a known prefix instead of the declaration
				if prefix, ok := thiz.findPrefixForNamespace(uri); ok && prefix != "" {
					thiz.addPrefixRewrite("", prefix)
					name.Prefix = prefix
					continue
				}
			}
			thiz.addNamespaceBinding("", uri)
		}
		attrs[j] = attr
		j++
	}
	return attrs[:j]
}

// aliasName returns the i-th generated prefix: a, b, ..., z, aa, ab, ...
func aliasName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return letters[i : i+1]
	}
	return aliasName(i/len(letters)-1) + letters[i%len(letters):i%len(letters)+1]
}

// findNamespaceForPrefix finds the namespace bound to the given prefix (if any)
// within the stack frame of the current element.
// This is the reverse operation of findPrefixForNamespace.
func (thiz *NamespaceModifier) findNamespaceForPrefix(prefix string) (string, bool) {
	for i := len(thiz.namespaces)/2 - 1; i >= 0; i-- {
		if thiz.namespaces[2*i] == prefix {
			return thiz.namespaces[2*i+1], true
		}
	}
	return "", false
}

// findPrefixForNamespace finds the prefix which binds the given namespace (if any).
func (thiz *NamespaceModifier) findPrefixForNamespace(namespace string) (string, bool) {
	for i := len(thiz.namespaces)/2 - 1; i >= 0; i-- {
		if thiz.namespaces[2*i+1] == namespace {
			prefix := thiz.namespaces[2*i]
			// shadowed by a later binding of the same prefix
			if uri, _ := thiz.findNamespaceForPrefix(prefix); uri != namespace {
				continue
			}
			return prefix, true
		}
	}
	return "", false
}

// findPrefixAlias finds the alias a prefix was rewritten to.
func (thiz *NamespaceModifier) findPrefixAlias(prefix string) (string, bool) {
	for i := len(thiz.prefixAliases)/2 - 1; i >= 0; i-- {
		if thiz.prefixAliases[2*i] == prefix {
			return thiz.prefixAliases[2*i+1], true
		}
	}
	return "", false
}

func (thiz *NamespaceModifier) addNamespaceBinding(prefix, namespace string) {
	thiz.namespaces = append(thiz.namespaces, prefix, namespace)
}

func (thiz *NamespaceModifier) addPrefixRewrite(original, prefix string) {
	thiz.prefixAliases = append(thiz.prefixAliases, original, prefix)
}

// NamespaceOf returns the namespace the prefix of n is bound to in the
// current element scope, or "" if it is unbound.
func (thiz *NamespaceModifier) NamespaceOf(n Name) string {
	prefix := n.Prefix
	if alias, ok := thiz.findPrefixAlias(prefix); ok {
		prefix = alias
	}
	uri, _ := thiz.findNamespaceForPrefix(prefix)
	return uri
}

package indexer

// Filter's isFilter method is unexported, which in Go means only types
// declared in this package can satisfy it: external VectorStore
// implementations (internal/vectorstore) cannot invent their own filter
// kinds, they can only build and interpret the two this package exports.

type extensionFilter struct{ extensions []string }

func (extensionFilter) isFilter() {}

type pathFilter struct{ relativePath string }

func (pathFilter) isFilter() {}

// NewExtensionFilter builds the extension-allow-list Filter every
// VectorStore.ExtensionFilter implementation should return.
func NewExtensionFilter(extensions []string) Filter {
	return extensionFilter{extensions: extensions}
}

// NewPathFilter builds the single-relative-path Filter every
// VectorStore.PathFilter implementation should return.
func NewPathFilter(relativePath string) Filter {
	return pathFilter{relativePath: relativePath}
}

// AsExtensionFilter reports whether f was built by NewExtensionFilter and,
// if so, returns its extension list.
func AsExtensionFilter(f Filter) ([]string, bool) {
	ef, ok := f.(extensionFilter)
	if !ok {
		return nil, false
	}
	return ef.extensions, true
}

// AsPathFilter reports whether f was built by NewPathFilter and, if so,
// returns its relative path.
func AsPathFilter(f Filter) (string, bool) {
	pf, ok := f.(pathFilter)
	if !ok {
		return "", false
	}
	return pf.relativePath, true
}

package page

// Store exposes page lookup for the dispatcher and the HTTP host.
type Store interface {
	List() []Page
	FindByID(id ID) (Page, bool)
	FindByPath(path string) (Page, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Page
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied pages.
func NewMemoryStore(items []Page) *MemoryStore {
	return &MemoryStore{items: append([]Page(nil), items...)}
}

// List returns the declared pages in registration order.
func (s *MemoryStore) List() []Page {
	return append([]Page(nil), s.items...)
}

// FindByID looks up a page by identifier.
func (s *MemoryStore) FindByID(id ID) (Page, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Page{}, false
}

// FindByPath looks up a page by its address.
func (s *MemoryStore) FindByPath(path string) (Page, bool) {
	for _, item := range s.items {
		if item.Path == path {
			return item, true
		}
	}
	return Page{}, false
}

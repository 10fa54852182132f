package view

import (
	"html/template"
	"sync"

	"github.com/google/uuid"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/page"
)

// Block is one rendered element inside a region.
type Block struct {
	Class string        `json:"class,omitempty"`
	HTML  template.HTML `json:"html"`
}

// Change kinds emitted to subscribers.
const (
	KindRegion   = "region"
	KindField    = "field"
	KindFocus    = "focus"
	KindNotice   = "notice"
	KindNavigate = "navigate"
)

// Region operations.
const (
	OpReplace = "replace"
	OpAppend  = "append"
)

// Change describes one mutation of a view, in the order it happened.
type Change struct {
	Kind   string  `json:"type"`
	Region string  `json:"region,omitempty"`
	Op     string  `json:"op,omitempty"`
	Blocks []Block `json:"blocks,omitempty"`
	Field  string  `json:"field,omitempty"`
	Value  string  `json:"value,omitempty"`
	Text   string  `json:"text,omitempty"`
	Path   string  `json:"path,omitempty"`
}

// View is the rendered state of one loaded page: its regions, form fields,
// blocking notices and a pending navigation.
type View struct {
	mu        sync.Mutex
	id        string
	page      page.Page
	order     []string
	regions   map[string][]Block
	fields    map[string]string
	focus     string
	notices   []string
	target    *page.Page
	listeners map[int]func(Change)
	nextID    int
}

// New returns an empty view of p.
func New(p page.Page) *View {
	return &View{
		id:        uuid.NewString(),
		page:      p,
		regions:   make(map[string][]Block),
		fields:    make(map[string]string),
		listeners: make(map[int]func(Change)),
	}
}

// ID identifies this view instance.
func (v *View) ID() string { return v.id }

// Page returns the page this view renders.
func (v *View) Page() page.Page { return v.page }

// Replace swaps the whole content of a region.
func (v *View) Replace(region string, blocks ...Block) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.touch(region)
	v.regions[region] = append([]Block(nil), blocks...)
	v.emit(Change{Kind: KindRegion, Region: region, Op: OpReplace, Blocks: append([]Block(nil), blocks...)})
}

// Append adds blocks after the existing content of a region.
func (v *View) Append(region string, blocks ...Block) {
	if len(blocks) == 0 {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.touch(region)
	v.regions[region] = append(v.regions[region], blocks...)
	v.emit(Change{Kind: KindRegion, Region: region, Op: OpAppend, Blocks: append([]Block(nil), blocks...)})
}

// Blocks returns a copy of a region's content.
func (v *View) Blocks(region string) []Block {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Block(nil), v.regions[region]...)
}

// SetField sets the value shown in an input field.
func (v *View) SetField(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.fields[name] = value
	v.emit(Change{Kind: KindField, Field: name, Value: value})
}

// Field returns the value of an input field.
func (v *View) Field(name string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fields[name]
}

// Focus moves input focus to a field.
func (v *View) Focus(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.focus = name
	v.emit(Change{Kind: KindFocus, Field: name})
}

// Focused returns the focused field name.
func (v *View) Focused() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.focus
}

// Notify queues a blocking notice for the user.
func (v *View) Notify(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.notices = append(v.notices, text)
	v.emit(Change{Kind: KindNotice, Text: text})
}

// Notices returns the queued notices in order.
func (v *View) Notices() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.notices...)
}

// Navigate abandons this view in favour of p. The last call wins.
func (v *View) Navigate(p page.Page) {
	v.mu.Lock()
	defer v.mu.Unlock()

	target := p
	v.target = &target
	v.emit(Change{Kind: KindNavigate, Path: p.Path})
}

// Navigation returns the pending navigation target.
func (v *View) Navigation() (page.Page, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.target == nil {
		return page.Page{}, false
	}
	return *v.target, true
}

// Subscribe registers fn for every later change and returns a function that
// removes it. fn runs with the view locked and must not call back into it.
func (v *View) Subscribe(fn func(Change)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.listeners[id] = fn

	return func() {
		v.mu.Lock()
		delete(v.listeners, id)
		v.mu.Unlock()
	}
}

// Snapshot describes the current state as a replayable list of changes.
// Notices and navigation are not included; they are one-shot.
func (v *View) Snapshot() []Change {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Change, 0, len(v.order)+len(v.fields)+1)
	for _, region := range v.order {
		out = append(out, Change{
			Kind:   KindRegion,
			Region: region,
			Op:     OpReplace,
			Blocks: append([]Block(nil), v.regions[region]...),
		})
	}
	for name, value := range v.fields {
		out = append(out, Change{Kind: KindField, Field: name, Value: value})
	}
	if v.focus != "" {
		out = append(out, Change{Kind: KindFocus, Field: v.focus})
	}
	return out
}

func (v *View) touch(region string) {
	if _, ok := v.regions[region]; !ok {
		v.order = append(v.order, region)
	}
}

func (v *View) emit(c Change) {
	for _, fn := range v.listeners {
		fn(c)
	}
}

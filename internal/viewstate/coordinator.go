package viewstate

import (
	"sync"

	"pkt.systems/pslog"

	"github.com/kpumuk/treescope/internal/prefs"
)

// Persisted is the on-disk document for view state. Each field is restored
// independently at startup; an unrecognized value falls back to its
// documented default rather than propagating invalid state.
type Persisted struct {
	View          MiddleView    `json:"view"`
	Variant       Variant       `json:"variant"`
	FormatterView FormatterView `json:"formatterView"`
	Layout        PanelLayout   `json:"layout"`
}

// Coordinator tracks the active views and panel layout. All fields are
// independently toggled and independently persisted. Collapse/expand of the
// tree view is modeled as monotonically increasing counters observed by
// every tree node component.
type Coordinator struct {
	store *prefs.Store
	log   pslog.Logger

	mu          sync.Mutex
	state       Persisted
	collapseSeq uint64
	expandSeq   uint64
}

// NewCoordinator restores persisted state through store, validating each
// field separately. A nil store keeps everything in memory.
func NewCoordinator(store *prefs.Store, logger pslog.Logger) *Coordinator {
	if logger != nil {
		logger = logger.With("component", "viewstate")
	}
	c := &Coordinator{store: store, log: logger}

	var saved Persisted
	if store != nil {
		if _, err := store.Load(&saved); err != nil && logger != nil {
			logger.Warn("view state restore failed, using defaults", "err", err)
		}
	}
	c.state = sanitize(saved)
	return c
}

func sanitize(p Persisted) Persisted {
	if !p.View.Valid() {
		p.View = DefaultView
	}
	if !p.Variant.Valid() {
		p.Variant = DefaultVariant
	}
	if !p.FormatterView.Valid() {
		p.FormatterView = DefaultFormatterView
	}
	if !p.Layout.Valid() {
		p.Layout = DefaultLayout()
	}
	return p
}

// Snapshot returns the current persisted state.
func (c *Coordinator) Snapshot() Persisted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns the active middle-pane view.
func (c *Coordinator) View() MiddleView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.View
}

// SetView activates a middle-pane view. Invalid values are ignored.
func (c *Coordinator) SetView(v MiddleView) {
	if !v.Valid() {
		return
	}
	c.mu.Lock()
	c.state.View = v
	state := c.state
	c.mu.Unlock()
	c.persist(state)
}

// Variant returns the active AST variant.
func (c *Coordinator) Variant() Variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Variant
}

// SetVariant switches between the surface and lowered tree.
func (c *Coordinator) SetVariant(v Variant) {
	if !v.Valid() {
		return
	}
	c.mu.Lock()
	c.state.Variant = v
	state := c.state
	c.mu.Unlock()
	c.persist(state)
}

// FormatterView returns the active formatter sub-view.
func (c *Coordinator) FormatterView() FormatterView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.FormatterView
}

// SetFormatterView switches the formatter sub-view.
func (c *Coordinator) SetFormatterView(v FormatterView) {
	if !v.Valid() {
		return
	}
	c.mu.Lock()
	c.state.FormatterView = v
	state := c.state
	c.mu.Unlock()
	c.persist(state)
}

// Layout returns the current panel proportions.
func (c *Coordinator) Layout() PanelLayout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Layout
}

// SetLayout applies resized panel proportions, normalized and clamped to
// the minimum-width floor.
func (c *Coordinator) SetLayout(l PanelLayout) {
	c.mu.Lock()
	c.state.Layout = l.ClampMin(MinPanelFraction)
	state := c.state
	c.mu.Unlock()
	c.persist(state)
}

// CollapseAll signals every non-root tree node to collapse and returns the
// new counter value.
func (c *Coordinator) CollapseAll() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collapseSeq++
	return c.collapseSeq
}

// ExpandAll signals every tree node to expand and returns the new counter
// value.
func (c *Coordinator) ExpandAll() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expandSeq++
	return c.expandSeq
}

// Seqs returns the collapse and expand counters for tree node components
// to observe.
func (c *Coordinator) Seqs() (collapse, expand uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collapseSeq, c.expandSeq
}

// SetAll replaces the whole persisted document at once (the PUT /api/prefs
// path), with the same per-field validation as startup restore.
func (c *Coordinator) SetAll(p Persisted) Persisted {
	clean := sanitize(p)
	clean.Layout = clean.Layout.ClampMin(MinPanelFraction)
	c.mu.Lock()
	c.state = clean
	c.mu.Unlock()
	c.persist(clean)
	return clean
}

func (c *Coordinator) persist(state Persisted) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(state); err != nil && c.log != nil {
		c.log.Warn("view state persist failed", "err", err)
	}
}

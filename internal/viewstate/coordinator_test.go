package viewstate

import (
	"path/filepath"
	"testing"

	"github.com/kpumuk/treescope/internal/prefs"
)

func tempStore(t *testing.T) *prefs.Store {
	t.Helper()
	store, err := prefs.NewStore(filepath.Join(t.TempDir(), "viewstate.json"), nil)
	if err != nil {
		t.Fatalf("NewStore error = %v", err)
	}
	return store
}

func TestDefaultsWithoutPersistedState(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil, nil)
	if c.View() != DefaultView {
		t.Fatalf("view = %v, want default", c.View())
	}
	if c.Variant() != DefaultVariant {
		t.Fatalf("variant = %v, want default", c.Variant())
	}
	if c.FormatterView() != DefaultFormatterView {
		t.Fatalf("formatter view = %v, want default", c.FormatterView())
	}
	if c.Layout() != DefaultLayout() {
		t.Fatalf("layout = %+v, want default", c.Layout())
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	t.Parallel()

	store := tempStore(t)

	c := NewCoordinator(store, nil)
	c.SetView(ViewFormatter)
	c.SetVariant(VariantLowered)
	c.SetFormatterView(FormatterVirtual)
	c.SetLayout(PanelLayout{Left: 0.25, Middle: 0.5, Right: 0.25})

	// A fresh coordinator over the same store restores everything.
	restored := NewCoordinator(store, nil)
	if restored.View() != ViewFormatter {
		t.Fatalf("restored view = %v", restored.View())
	}
	if restored.Variant() != VariantLowered {
		t.Fatalf("restored variant = %v", restored.Variant())
	}
	if restored.FormatterView() != FormatterVirtual {
		t.Fatalf("restored formatter view = %v", restored.FormatterView())
	}
	if got := restored.Layout(); got.Middle != 0.5 {
		t.Fatalf("restored layout = %+v", got)
	}
}

func TestInvalidPersistedValuesFallBack(t *testing.T) {
	t.Parallel()

	store := tempStore(t)
	if err := store.Save(Persisted{
		View:          "hexdump",
		Variant:       "optimized",
		FormatterView: "raw",
		Layout:        PanelLayout{Left: 5, Middle: 0, Right: -1},
	}); err != nil {
		t.Fatalf("Save error = %v", err)
	}

	c := NewCoordinator(store, nil)
	if c.View() != DefaultView || c.Variant() != DefaultVariant || c.FormatterView() != DefaultFormatterView {
		t.Fatalf("invalid saved values not replaced: %+v", c.Snapshot())
	}
	if c.Layout() != DefaultLayout() {
		t.Fatalf("invalid layout not replaced: %+v", c.Layout())
	}
}

func TestSettersIgnoreInvalidValues(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil, nil)
	c.SetView("bogus")
	c.SetVariant("bogus")
	c.SetFormatterView("bogus")
	if c.View() != DefaultView || c.Variant() != DefaultVariant || c.FormatterView() != DefaultFormatterView {
		t.Fatalf("invalid setter value accepted: %+v", c.Snapshot())
	}
}

func TestSetLayoutClamps(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil, nil)
	c.SetLayout(PanelLayout{Left: 0.01, Middle: 0.5, Right: 0.49})
	if got := c.Layout(); got.Left < MinPanelFraction-1e-9 {
		t.Fatalf("layout floor not enforced: %+v", got)
	}
}

func TestCollapseExpandCountersMonotonic(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil, nil)

	if got := c.CollapseAll(); got != 1 {
		t.Fatalf("first collapse = %d", got)
	}
	if got := c.CollapseAll(); got != 2 {
		t.Fatalf("second collapse = %d", got)
	}
	if got := c.ExpandAll(); got != 1 {
		t.Fatalf("first expand = %d", got)
	}

	collapse, expand := c.Seqs()
	if collapse != 2 || expand != 1 {
		t.Fatalf("seqs = %d, %d", collapse, expand)
	}
}

func TestSetAll(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil, nil)
	got := c.SetAll(Persisted{
		View:    ViewTree,
		Variant: "bogus",
		Layout:  PanelLayout{Left: 1, Middle: 1, Right: 2},
	})
	if got.View != ViewTree {
		t.Fatalf("view = %v", got.View)
	}
	if got.Variant != DefaultVariant {
		t.Fatalf("invalid variant accepted: %v", got.Variant)
	}
	if !got.Layout.Valid() {
		t.Fatalf("layout not normalized: %+v", got.Layout)
	}
}

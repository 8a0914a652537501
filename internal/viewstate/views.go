// Package viewstate tracks which views are active, panel layout ratios,
// and the tree collapse/expand signal counters. Everything here derives its
// displayed content from the current compilation result; switching a view
// never triggers a compile.
package viewstate

// MiddleView selects the middle pane content.
type MiddleView string

// Middle pane views.
const (
	ViewTokens    MiddleView = "tokens"
	ViewTree      MiddleView = "tree"
	ViewRecovery  MiddleView = "recovery"
	ViewFormatter MiddleView = "formatter"
	ViewExecution MiddleView = "execution"
)

// DefaultView is used when no valid persisted value exists.
const DefaultView = ViewTokens

// Valid reports whether the value is a known view.
func (v MiddleView) Valid() bool {
	switch v {
	case ViewTokens, ViewTree, ViewRecovery, ViewFormatter, ViewExecution:
		return true
	}
	return false
}

// Variant selects which of the two ASTs the tree view shows.
type Variant string

// AST variants.
const (
	VariantSurface Variant = "surface"
	VariantLowered Variant = "lowered"
)

// DefaultVariant is used when no valid persisted value exists.
const DefaultVariant = VariantSurface

// Valid reports whether the value is a known variant.
func (v Variant) Valid() bool {
	return v == VariantSurface || v == VariantLowered
}

// FormatterView selects the formatter sub-view.
type FormatterView string

// Formatter sub-views.
const (
	FormatterEmitted FormatterView = "emitted"
	FormatterVirtual FormatterView = "virtual"
	FormatterFixed   FormatterView = "fixed"
)

// DefaultFormatterView is used when no valid persisted value exists.
const DefaultFormatterView = FormatterEmitted

// Valid reports whether the value is a known formatter sub-view.
func (v FormatterView) Valid() bool {
	switch v {
	case FormatterEmitted, FormatterVirtual, FormatterFixed:
		return true
	}
	return false
}

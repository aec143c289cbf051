// Package render implements a pure template expander: a template string
// plus a variable mapping goes in, a rendered string comes out. Rendering
// has no side effects and strict
// undefined-variable semantics — any reference to a key absent from the
// merged scope fails the render rather than substituting an empty string.
package render

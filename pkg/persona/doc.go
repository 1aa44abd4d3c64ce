// Package persona defines the selectable assistant characters and renders
// their Live system instructions.
package persona

// Package viz renders a running particulator in the terminal using
// Bubble Tea.
//
//   - [Model]: steps a particulator on every tick, plots the selected
//     product with asciigraph and draws a phase map of the super-droplets
//   - [NewInteractiveApp]: preset browser that hands over to a [Model]
//   - [Canvas]: braille pixel grid behind the phase map
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	Tab/←/→ - Select product
//	+/-     - Steps per frame
//	R       - Rebuild from the initial configuration
//	T       - Cycle colour themes
//	?       - Show help
package viz

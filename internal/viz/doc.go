// Package viz renders a streaming session in the terminal.
//
// [Board] is the session renderer the TUI reads back when drawing; [Printer]
// is the line-oriented renderer used without a terminal. [Model] is the
// Bubble Tea application that hosts the session controller:
//
//	space     start, pause or resume
//	r         reset
//	[ ]       scrub back or forward; end returns to the live edge
//	tab       cycle modes
//	1 2 3     toggle displacement, velocity, acceleration
//	f         force at the selected mode's natural frequency
//	m         recompute the modal analysis
//	s         save the frame schematic
//	t         cycle themes
//	?         help
//
// Charts are drawn with asciigraph over each mode's visible window; the frame
// schematic is drawn on a braille [Canvas].
package viz

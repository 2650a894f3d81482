// Package sim drives a percolation grid from its seeded state until it is
// stable.
//
// A Runner builds a grid from a config.Simulation, applies the configured
// seeds, and emits a Frame for the initial grid and after every Step until
// the grid reports no change. Frames are stamped with a monotonic logical
// clock; each run gets a time-sortable UUIDv7 run id.
//
// Termination: every step that reports a change has infected at least one
// Naive cell, and no step ever creates a Naive cell, so a grid of N cells
// settles within N steps. The step quota (default N+1) only trips when a
// caller-supplied limit is smaller.
package sim

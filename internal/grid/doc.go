// Package grid implements the percolation grid: a rectangular array of cells,
// each Naive, Infected, Recovered or Vaccinated, advanced one synchronous step
// at a time.
//
// ADDRESSING:
//
// Callers address cells by a single linear id in [0, rows*cols), mapped
// row-major to (id / cols, id % cols). Every addressing operation validates the
// id before touching the cell array and returns a *RangeError otherwise.
//
// STEP RULE:
//
// Step scans cells in increasing id order. Each Infected cell is marked to
// recover, and each of its Naive neighbors gets exactly one draw from the
// grid's Source; a draw below the transmission probability marks the neighbor
// to become Infected. Recoveries are applied after the scan, then infections.
// The scan never observes its own writes, so an infection created in a step
// cannot spread further within that step.
//
// Vaccinated and Recovered cells never change under Step. Only SetState can
// move a cell to an arbitrary state.
package grid

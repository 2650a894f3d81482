// Package scenario runs percolation scenarios described in YAML and checks
// their outcome.
//
// # Scenario Format
//
//	name: no_self_reinfection
//	description: "Middle cell infects both ends, then everything recovers"
//	rows: 1
//	cols: 3
//	random: [0]          # forced draw sequence, cycled
//	seeds:
//	  - {cell: 1, state: infected}
//	expect:
//	  - step: 1
//	    changed: true
//	    cells: {0: infected, 1: recovered, 2: infected}
//	final:
//	  steps: 2
//	  changed: false
//	  counts: {naive: 0, infected: 0, recovered: 3, vaccinated: 0}
//
// Optional fields: transmission (default 0.4), seed (PCG seed used when no
// random sequence is given), max_steps, run_id.
//
// # Deterministic Testing
//
// A scenario must pin its randomness with either random or seed, and runs
// with a fixed run id, so its trace is byte-identical across runs. RunWithGolden
// compares that trace against testdata/golden/<name>.golden.
package scenario

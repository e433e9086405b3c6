// Package harness replays click scenarios against a real engine and store.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: tap_tap_reset
//	description: "Two taps, then a reset"
//	steps:
//	  - tap: {x: 5, y: 5}
//	  - tap: {x: 10.4, y: 10.9}
//	  - expect:
//	      count: 2
//	      history: [{x: 5, y: 5}, {x: 10, y: 10}]
//	  - restart: true
//	  - reset: true
//	  - expect: {count: 0, history: []}
//
// Each step holds exactly one of tap, reset, restart or expect. The document
// is checked against the CUE definition #Scenario (scenario.cue) before it is
// decoded, so unknown keys and mixed steps are rejected with a path.
//
// # Step Semantics
//
//   - tap: records a click at device coordinates (truncated toward zero)
//   - reset: deletes every click
//   - restart: stops the engine, closes the handle, reopens it and hydrates
//   - expect: compares count and (x, y) history against both the in-memory
//     mirror and the persisted rows
//
// # Deterministic Testing
//
// The harness uses:
//   - A fresh temporary root per run
//   - A stepping clock (2024-01-01T00:00:00Z, one second per tap)
//   - Sequential request ids
//
// This ensures identical traces across runs for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/tap_tap_reset.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if !result.Pass {
//	    for _, f := range result.Failures {
//	        log.Println(f)
//	    }
//	}
package harness

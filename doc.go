/*
Package breadboard is an event-driven digital logic circuit simulator.

Circuits are graphs of components (gates, buttons, keyboard inputs, lamps,
displays and user defined blocks) joined by wires from output pins to input
pins. Signals are boolean levels latched by each component. The engine offers
two evaluation modes:

  - Step: one pass in component order, pushing each new level downstream as
    soon as it is computed. This is what an interactive editor runs after every
    user action.
  - Stabilize: repeated passes over a snapshot until nothing changes, bounded
    by a pass budget so oscillating circuits terminate.

On top of Stabilize the enumerator drives every assignment of the primary
inputs (components without input pins) and records the sink levels, producing
a truth table.

Circuits are persisted as .lmccircuit documents: base64 encoded JSON with
filler characters interleaved. Custom blocks travel inside the document as
structured expression trees or truth tables.

# Usage

	sim, err := breadboard.New(config.Default())
	if err != nil {
		log.Fatal(err)
	}
	defer sim.Close()

	table, err := sim.TruthTableFile(ctx, "adder.lmccircuit")

The HTTP adapter in pkg/adapters/http exposes the session manager to a
rendering client; cmd/breadboard is the command line entry point.
*/
package breadboard

/*
Package domain contains the core models of the circuit engine.

It defines component kinds, component instances, the connections between their
pins, signal levels and the truth table report. The package is free of I/O and
persistence concerns so every adapter can share it.

# Key Entities

  - Kind: A component template with fixed arity and a behavior or an interaction.
  - Component: A placed instance of a Kind with a position, a latched Signal and an optional trigger key.
  - Connection: A wire from an output pin of one component to an input pin of another.
  - TruthTable: The exhaustive input/output trace produced by the enumerator.
*/
package domain

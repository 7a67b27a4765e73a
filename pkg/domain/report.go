package domain

// Sample is the level of one component in a truth table slot.
type Sample struct {
	ID    string `json:"id"`
	Kind  string `json:"type"`
	State bool   `json:"state"`
	// Pins holds the live input vector of multi-input sinks (displays), which
	// do not latch a state of their own.
	Pins []bool `json:"pins,omitempty"`
}

// Slot is one row of a truth table: the assignment of the primary inputs for
// time T and the resulting sink levels.
type Slot struct {
	Time    int      `json:"time"`
	Inputs  []Sample `json:"inputs"`
	Outputs []Sample `json:"outputs"`
	// Unstable is set when stabilization ran out of passes; Outputs is empty.
	Unstable bool `json:"unstable,omitempty"`
	Passes   int  `json:"passes"`
}

// TruthTable is the exhaustive trace of a circuit, ordered by Time.
type TruthTable struct {
	Slots []Slot `json:"slots"`
}

// Unstable returns the number of slots that did not stabilize.
func (t *TruthTable) Unstable() int {
	n := 0
	for _, s := range t.Slots {
		if s.Unstable {
			n++
		}
	}
	return n
}

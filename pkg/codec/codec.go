// Package codec reads and writes circuit documents.
//
// A document is the JSON form of a graph, base64 encoded and interleaved with
// filler characters. Decoding never yields ids of the stored document: every
// component and connection gets a fresh id so a document can be imported
// into a graph that already holds a copy of it.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/breadboard/internal/logging"
	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/google/uuid"
)

const (
	// Extension marks circuit documents.
	Extension = ".lmccircuit"
	// DefaultFileName is offered when saving a circuit without a name.
	DefaultFileName = "circuit" + Extension
	// ImportOffset shifts imported components on both axes.
	ImportOffset = 10
)

// KindResolver finds component kinds by name.
type KindResolver interface {
	Lookup(name string) (*domain.Kind, error)
}

// Fragment is a decoded document, ready to be merged into a graph.
type Fragment struct {
	Components  []*domain.Component
	Connections []*domain.Connection
	// Kinds lists the custom blocks defined by the document that the
	// resolver did not know. Callers register them before merging.
	Kinds []*domain.Kind
	// Warnings lists the records that were dropped and the custom blocks
	// that conflict with a registered one.
	Warnings []error
}

type options struct {
	newID   func() string
	offset  float64
	keepIDs bool
	logger  *slog.Logger
}

// Option configures Decode.
type Option func(*options)

// WithIDGenerator replaces the UUID generator used for remapped ids.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// WithOffset overrides ImportOffset.
func WithOffset(d float64) Option {
	return func(o *options) { o.offset = d }
}

// Restore keeps the stored ids and geometry. It is meant for reloading a
// circuit that was saved by its owner, not for importing into a live graph.
func Restore() Option {
	return func(o *options) {
		o.keepIDs = true
		o.offset = 0
	}
}

func (o *options) id(stored string) string {
	if o.keepIDs && stored != "" {
		return stored
	}
	return o.newID()
}

// WithLogger reports dropped records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Marshal returns the plaintext document of a graph.
func Marshal(g *circuit.Graph) *Document {
	doc := &Document{
		Components:  make([]ComponentRecord, 0, g.Len()),
		Connections: []ConnectionRecord{},
	}
	for _, c := range g.Components() {
		doc.Components = append(doc.Components, ComponentRecord{
			ID:       c.ID,
			Type:     c.Kind.Name,
			X:        c.X,
			Y:        c.Y,
			Inputs:   c.Kind.Inputs,
			Outputs:  c.Kind.Outputs,
			State:    c.State,
			Key:      c.Key,
			Width:    c.Kind.Width,
			Behavior: c.Kind.Program,
		})
	}
	for _, conn := range g.Connections() {
		doc.Connections = append(doc.Connections, ConnectionRecord{
			ID:         conn.ID,
			From:       conn.From,
			FromOutput: conn.FromOutput,
			To:         conn.To,
			ToInput:    conn.ToInput,
			Style:      conn.Style,
		})
	}
	return doc
}

// Encode serializes a graph into a circuit document.
func Encode(g *circuit.Graph) ([]byte, error) {
	raw, err := json.Marshal(Marshal(g))
	if err != nil {
		return nil, fmt.Errorf("failed to encode circuit: %w", err)
	}
	text := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(text, raw)
	return scramble(text), nil
}

// Unwrap strips the document envelope and returns the raw records without
// resolving kinds or remapping ids.
func Unwrap(data []byte) (*Document, error) {
	text, err := unscramble(data)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(raw, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFormat, err)
	}
	var tree map[string]any
	if err := json.Unmarshal(raw[:n], &tree); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFormat, err)
	}
	doc, err := decodeDocument(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFormat, err)
	}
	return doc, nil
}

// Decode reads a circuit document.
//
// Component records are all or nothing: an invalid record, a duplicate id or
// an unknown kind without a stored behavior fails the whole document with
// ErrFormat, and so does an arity that disagrees with the registered kind.
// Custom blocks keep the behavior stored in the document; when it differs
// from the registered block of the same name, Fragment.Warnings says so. Connection records are repaired or dropped: unknown styles fall
// back to the default, and records pointing at missing components or pins
// are dropped and reported in Fragment.Warnings.
func Decode(data []byte, kinds KindResolver, opts ...Option) (*Fragment, error) {
	o := options{newID: uuid.NewString, offset: ImportOffset, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	doc, err := Unwrap(data)
	if err != nil {
		return nil, err
	}

	frag := &Fragment{}
	remap := make(map[string]*domain.Component, len(doc.Components))
	defined := make(map[string]*domain.Kind)
	conflicts := make(map[string]bool)
	for i := range doc.Components {
		rec := &doc.Components[i]
		if err := recordValidate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: component %d: %w", domain.ErrFormat, i, err)
		}
		if _, dup := remap[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate component id %s", domain.ErrFormat, rec.ID)
		}
		k, warn, err := resolveKind(rec, kinds, defined)
		if err != nil {
			return nil, fmt.Errorf("%w: component %s: %w", domain.ErrFormat, rec.ID, err)
		}
		if warn != nil && !conflicts[rec.Type] {
			conflicts[rec.Type] = true
			o.logger.Warn("custom block conflict", "type", rec.Type)
			frag.Warnings = append(frag.Warnings, warn)
		}
		c := &domain.Component{
			ID:       o.id(rec.ID),
			Kind:     k,
			Position: domain.Position{X: rec.X + o.offset, Y: rec.Y + o.offset},
			State:    rec.State,
			Key:      rec.Key,
		}
		if k.Interaction == domain.InteractionToggle && !c.State.IsSet() {
			c.State = domain.Low
		}
		remap[rec.ID] = c
		frag.Components = append(frag.Components, c)
	}
	for _, c := range frag.Components {
		if defined[c.Kind.Name] != c.Kind {
			continue
		}
		if _, err := kinds.Lookup(c.Kind.Name); errors.Is(err, domain.ErrKindNotFound) {
			frag.Kinds = append(frag.Kinds, c.Kind)
			delete(defined, c.Kind.Name)
		}
	}

	for i := range doc.Connections {
		rec := &doc.Connections[i]
		conn, err := remapConnection(rec, remap)
		if err != nil {
			o.logger.Warn("dropping connection", "id", rec.ID, "err", err)
			frag.Warnings = append(frag.Warnings, err)
			continue
		}
		conn.ID = o.id(rec.ID)
		frag.Connections = append(frag.Connections, conn)
	}
	return frag, nil
}

// resolveKind binds a record to a kind. Records of a registered kind must
// agree with its arity. A stored behavior that differs from the registered
// block of the same name wins for this document: the instances keep the
// logic they were saved with and the conflict is returned as a warning.
func resolveKind(rec *ComponentRecord, kinds KindResolver, defined map[string]*domain.Kind) (*domain.Kind, error, error) {
	if k, ok := defined[rec.Type]; ok {
		if declared(rec) && rec.Inputs != k.Inputs || rec.Outputs != k.Outputs {
			return nil, nil, fmt.Errorf("%w: %s is %dx%d, record declares %dx%d",
				domain.ErrValidation, rec.Type, k.Inputs, k.Outputs, rec.Inputs, rec.Outputs)
		}
		return k, nil, nil
	}
	k, err := kinds.Lookup(rec.Type)
	if err != nil && (!errors.Is(err, domain.ErrKindNotFound) || rec.Behavior == nil) {
		return nil, nil, err
	}
	if err == nil {
		if declared(rec) && (rec.Inputs != k.Inputs || rec.Outputs != k.Outputs) {
			return nil, nil, fmt.Errorf("%w: %s is %dx%d, record declares %dx%d",
				domain.ErrValidation, rec.Type, k.Inputs, k.Outputs, rec.Inputs, rec.Outputs)
		}
		if rec.Behavior == nil {
			return k, nil, nil
		}
		if k.Builtin {
			return nil, nil, fmt.Errorf("%w: built-in %s cannot carry a behavior", domain.ErrKindConflict, rec.Type)
		}
	}

	stored, nerr := domain.NewCustomKind(rec.Type, rec.Inputs, rec.Outputs, rec.Behavior)
	if nerr != nil {
		return nil, nil, nerr
	}
	defined[rec.Type] = stored
	if k == nil {
		return stored, nil, nil
	}
	if k.Equivalent(stored) {
		defined[rec.Type] = k
		return k, nil, nil
	}
	return stored, fmt.Errorf("%w: %s keeps the behavior stored in the document", domain.ErrKindConflict, rec.Type), nil
}

// declared reports whether the record states an arity. Hand written
// documents may leave both counts out.
func declared(rec *ComponentRecord) bool {
	return rec.Inputs != 0 || rec.Outputs != 0
}

func remapConnection(rec *ConnectionRecord, remap map[string]*domain.Component) (*domain.Connection, error) {
	if err := recordValidate.Struct(rec); err != nil {
		return nil, fmt.Errorf("%w: connection %s: %w", domain.ErrDanglingConnection, rec.ID, err)
	}
	src, ok := remap[rec.From]
	if !ok {
		return nil, fmt.Errorf("%w: connection %s: source %s", domain.ErrDanglingConnection, rec.ID, rec.From)
	}
	dst, ok := remap[rec.To]
	if !ok {
		return nil, fmt.Errorf("%w: connection %s: destination %s", domain.ErrDanglingConnection, rec.ID, rec.To)
	}
	if rec.FromOutput >= src.Kind.Outputs || rec.ToInput >= dst.Kind.Inputs {
		return nil, fmt.Errorf("%w: %w: connection %s", domain.ErrDanglingConnection, domain.ErrPinOutOfRange, rec.ID)
	}
	return &domain.Connection{
		From:       src.ID,
		FromOutput: rec.FromOutput,
		To:         dst.ID,
		ToInput:    rec.ToInput,
		Style:      rec.Style.OrDefault(),
	}, nil
}

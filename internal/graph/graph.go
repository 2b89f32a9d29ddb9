// Package graph owns the nodes of the processing graph. Nodes are shared by
// several consumers and addressed through generation-checked handles, so a
// removed node can never be reached through a stale reference.
package graph

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

// ErrStaleHandle is returned when a handle refers to a released node.
var ErrStaleHandle = errors.New("stale node handle")

// Handle addresses a node of the arena.
type Handle struct {
	index      int
	generation uint32
}

// Valid reports whether h was ever issued. It does not tell whether the node
// is still alive, use Graph.Alive for that.
func (h Handle) Valid() bool {
	return h.generation != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("node(%d:%d)", h.index, h.generation)
}

type slot struct {
	generation uint32
	refs       int
	source     sample.Source
	parents    []Handle
	subscriber sample.Subscriber
}

// WithLogger sets the logger for the graph.
func WithLogger(logger *slog.Logger) func(g *Graph) {
	return func(g *Graph) {
		g.logger = logger
	}
}

// Graph is an arena of reference-counted sample sources.
type Graph struct {
	slots []slot
	free  []int

	logger *slog.Logger
}

func New(options ...func(g *Graph)) *Graph {
	g := &Graph{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(g)
	}
	return g
}

// Add stores src with a single reference and retains every parent. When src
// implements sample.Subscriber it is subscribed to its parents, and
// unsubscribed again when released.
func (g *Graph) Add(src sample.Source, parents ...Handle) (Handle, error) {
	for _, p := range parents {
		if !g.Alive(p) {
			return Handle{}, fmt.Errorf("adding node: parent %s: %w", p, ErrStaleHandle)
		}
	}

	var index int
	if n := len(g.free); n > 0 {
		index = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		g.slots = append(g.slots, slot{})
		index = len(g.slots) - 1
	}

	s := &g.slots[index]
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	s.refs = 1
	s.source = src
	s.parents = append([]Handle(nil), parents...)
	s.subscriber, _ = src.(sample.Subscriber)

	for _, p := range parents {
		ps := &g.slots[p.index]
		ps.refs++
		if s.subscriber != nil {
			ps.source.Subscribe(s.subscriber)
		}
	}

	h := Handle{index: index, generation: s.generation}
	g.logger.Debug("node added", slog.String("node", h.String()), slog.String("type", src.ElementType().String()))
	return h, nil
}

// Alive reports whether h refers to a live node.
func (g *Graph) Alive(h Handle) bool {
	return h.Valid() && h.index < len(g.slots) && g.slots[h.index].generation == h.generation && g.slots[h.index].refs > 0
}

// Get returns the source behind h.
func (g *Graph) Get(h Handle) (sample.Source, error) {
	if !g.Alive(h) {
		return nil, ErrStaleHandle
	}
	return g.slots[h.index].source, nil
}

// Refs returns the reference count of h, 0 for stale handles.
func (g *Graph) Refs(h Handle) int {
	if !g.Alive(h) {
		return 0
	}
	return g.slots[h.index].refs
}

// Retain adds a reference to h.
func (g *Graph) Retain(h Handle) error {
	if !g.Alive(h) {
		return ErrStaleHandle
	}
	g.slots[h.index].refs++
	return nil
}

// Release drops a reference. Releasing the last reference closes the node,
// detaches it from its parents and releases them in turn.
func (g *Graph) Release(h Handle) error {
	if !g.Alive(h) {
		return ErrStaleHandle
	}

	var errs []error
	pending := []Handle{h}
	for len(pending) > 0 {
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		s := &g.slots[cur.index]
		s.refs--
		if s.refs > 0 {
			continue
		}

		for _, p := range s.parents {
			if s.subscriber != nil {
				g.slots[p.index].source.Unsubscribe(s.subscriber)
			}
			pending = append(pending, p)
		}
		if c, ok := s.source.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s: %w", cur, err))
			}
		}

		g.logger.Debug("node released", slog.String("node", cur.String()))
		*s = slot{generation: s.generation}
		g.free = append(g.free, cur.index)
	}
	return errors.Join(errs...)
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return len(g.slots) - len(g.free)
}

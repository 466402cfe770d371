// Package ssa renames the variables of a method's control flow graph into static
// single assignment form and materializes the merge (phi) points that reconcile
// disagreeing versions.
package ssa

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/l3aro/go-flow-graph/internal/log"
	"github.com/l3aro/go-flow-graph/pkg/cfg"
)

var (
	// ErrUndefinedVariable is returned in strict mode when a read has no reaching
	// version. It is a kind of malformed input.
	ErrUndefinedVariable = fmt.Errorf("undefined variable: %w", cfg.ErrMalformed)
	// ErrNoFixpoint is returned when version propagation fails to settle.
	ErrNoFixpoint = errors.New("version propagation did not reach a fixpoint")
)

// Options configures the transformation.
type Options struct {
	// ASCII renders versions as x_1 instead of subscript digits.
	ASCII bool
	// Strict fails on reads no write reaches instead of rendering version 0.
	Strict bool
	Logger log.Logger
}

// Node is a CFG node annotated with versions.
type Node struct {
	cfg.Node
	// In maps each variable to the version live on entry.
	In map[string]int `json:"in"`
	// Writes maps each variable the node defines to its version.
	Writes map[string]int `json:"writes"`
	// ByFrom maps, for merge nodes, each variable to the version contributed by
	// each predecessor.
	ByFrom map[string]map[int]int `json:"by_from,omitempty"`
	Merge  bool                   `json:"merge"`
}

// Phi is a merge point for one variable in front of a merge node.
type Phi struct {
	ID       string `json:"id"`
	Node     int    `json:"node"`
	Var      string `json:"var"`
	Version  int    `json:"version"`
	Operands []int  `json:"operands"`
	Label    string `json:"label"`
}

// Edge connects two node or phi IDs.
type Edge struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Kind cfg.EdgeKind `json:"kind"`
}

// Result is the SSA form of one method.
type Result struct {
	CFG    *cfg.Graph `json:"-"`
	Name   string     `json:"name"`
	Nodes  []Node     `json:"nodes"`
	Phis   []Phi      `json:"phis"`
	Edges  []Edge     `json:"edges"`
	Visits int        `json:"visits"`
}

// NodeID returns the edge endpoint ID of CFG node i.
func NodeID(i int) string {
	return strconv.Itoa(i)
}

// PhiID returns the edge endpoint ID of the phi for variable v in front of node i.
func PhiID(i int, v string) string {
	return strconv.Itoa(i) + "_" + v
}

// PhisAt returns the phis placed in front of node i, in chain order.
func (r *Result) PhisAt(i int) []Phi {
	var out []Phi
	for _, p := range r.Phis {
		if p.Node == i {
			out = append(out, p)
		}
	}
	return out
}

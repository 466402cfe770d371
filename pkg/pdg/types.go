// Package pdg defines data structures for representing data and program dependence
// graphs (DDG/PDG). Both kinds carry the control flow edges of the method plus one
// data edge per dependency; they differ only in whether control edges are drawn.
package pdg

import (
	"github.com/l3aro/go-flow-graph/pkg/cfg"
)

// Kind selects which edges of the dependence graph are visible.
type Kind string

const (
	KindDDG Kind = "ddg" // Data edges shown, control edges kept for layout only
	KindPDG Kind = "pdg" // Data and control edges shown
)

func (k Kind) String() string { return string(k) }

// DepType represents the type of dependence in a PDG edge.
type DepType string

const (
	DepTypeControl DepType = "control" // Control flow edge
	DepTypeData    DepType = "data"    // Data dependence
)

func (d DepType) String() string { return string(d) }

// PDGNode represents a node in the dependence graph. It mirrors one CFG node.
type PDGNode struct {
	Index       int          `json:"index" msgpack:"index"`
	Kind        cfg.NodeKind `json:"kind" msgpack:"kind"`
	Label       string       `json:"label" msgpack:"label"`
	StartLine   int          `json:"start_line" msgpack:"start_line"`
	EndLine     int          `json:"end_line" msgpack:"end_line"`
	Definitions []string     `json:"definitions" msgpack:"definitions"` // Variables written
	Uses        []string     `json:"uses" msgpack:"uses"`               // Variables read
}

// PDGEdge represents a directed edge between two PDG nodes.
type PDGEdge struct {
	From    int          `json:"from" msgpack:"from" toon:"from"`
	To      int          `json:"to" msgpack:"to" toon:"to"`
	DepType DepType      `json:"dep_type" msgpack:"dep_type" toon:"dep_type"`
	Branch  cfg.EdgeKind `json:"branch,omitempty" msgpack:"branch,omitempty" toon:"branch,omitempty"` // Control edges only
	Vars    []string     `json:"vars,omitempty" msgpack:"vars,omitempty" toon:"vars,omitempty"`       // Data edges only
}

// PDGInfo represents the complete dependence graph for a method.
type PDGInfo struct {
	FunctionName string    `json:"function_name" msgpack:"function_name"`
	Kind         Kind      `json:"kind" msgpack:"kind"`
	Nodes        []PDGNode `json:"nodes" msgpack:"nodes"`
	Edges        []PDGEdge `json:"edges" msgpack:"edges"`
}

// HasVar reports whether a data edge carries variable v.
func (e PDGEdge) HasVar(v string) bool {
	for _, x := range e.Vars {
		if x == v {
			return true
		}
	}
	return false
}

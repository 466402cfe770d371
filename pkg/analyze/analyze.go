// Package analyze runs the graph analyses end to end: parse a Java file, select a
// method, build the requested graph and convert it for rendering.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/l3aro/go-flow-graph/internal/log"
	"github.com/l3aro/go-flow-graph/pkg/cache"
	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/dfg"
	"github.com/l3aro/go-flow-graph/pkg/ingest"
	"github.com/l3aro/go-flow-graph/pkg/metrics"
	"github.com/l3aro/go-flow-graph/pkg/pdg"
	"github.com/l3aro/go-flow-graph/pkg/render"
	"github.com/l3aro/go-flow-graph/pkg/ssa"
)

// ErrUnknownKind is returned for a graph kind that is not supported.
var ErrUnknownKind = errors.New("unknown graph kind")

// Kind selects the graph to build.
type Kind string

const (
	KindCFG Kind = "cfg"
	KindDDG Kind = "ddg"
	KindPDG Kind = "pdg"
	KindSSA Kind = "ssa"
)

// Kinds lists the supported kinds.
var Kinds = []Kind{KindCFG, KindDDG, KindPDG, KindSSA}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Request names one method to analyze. Source, when set, is used instead of
// reading Path.
type Request struct {
	Path   string
	Source []byte
	Method string
	Kind   Kind
	// ASCII and Strict configure the SSA transformation.
	ASCII  bool
	Strict bool
}

// optionKey is the part of the cache key that depends on the options.
func (r Request) optionKey() string {
	return "ascii=" + strconv.FormatBool(r.ASCII) + ",strict=" + strconv.FormatBool(r.Strict)
}

// Result holds the graph built for a request. Exactly one of Dependence and SSA is
// set for the dependence and SSA kinds; CFG is always set.
type Result struct {
	Graph      render.Graph
	CFG        *cfg.Graph
	Dependence *pdg.PDGInfo
	SSA        *ssa.Result
	Metrics    metrics.Report
}

// Run parses the request's source and builds the requested graph.
func Run(ctx context.Context, req Request) (*Result, error) {
	f, err := load(ctx, req)
	if err != nil {
		return nil, err
	}
	return RunFile(ctx, f, req)
}

func load(ctx context.Context, req Request) (*ingest.File, error) {
	if req.Source != nil {
		f, err := ingest.ParseJava(ctx, req.Source)
		if err != nil {
			return nil, err
		}
		f.Path = req.Path
		return f, nil
	}
	return ingest.ParseJavaFile(ctx, req.Path)
}

// RunFile builds the requested graph for a method of an already parsed file.
func RunFile(ctx context.Context, f *ingest.File, req Request) (*Result, error) {
	logger := log.FromContext(ctx)

	m, err := f.Method(req.Method)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	switch req.Kind {
	case KindCFG, "":
		res.CFG, err = cfg.Build(m, f.Source)
		if err != nil {
			return nil, err
		}
		res.Graph = render.FromCFG(res.CFG)

	case KindDDG, KindPDG:
		res.CFG, err = cfg.Build(m, f.Source)
		if err != nil {
			return nil, err
		}
		flow := dfg.NewReachingDefsAnalyzer(dfg.WithLogger(logger)).Analyze(res.CFG)
		res.Dependence = pdg.Build(pdg.Kind(req.Kind), flow)
		res.Graph = render.FromPDG(res.Dependence)

	case KindSSA:
		res.SSA, err = ssa.Build(m, f.Source, ssa.Options{ASCII: req.ASCII, Strict: req.Strict, Logger: logger})
		if err != nil {
			return nil, err
		}
		res.CFG = res.SSA.CFG
		res.Graph = render.FromSSA(res.SSA)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(req.Kind))
	}

	res.Metrics = metrics.Compute(res.CFG)
	logger.Debug("analyzed", "file", f.Path, "method", req.Method, "kind", string(req.Kind),
		"nodes", len(res.Graph.Nodes), "edges", len(res.Graph.Edges))
	return res, nil
}

// Outcome is the result of one request of a batch.
type Outcome struct {
	Request Request
	Graph   render.Graph
	Cached  bool
	Err     error
}

// BatchOptions configures RunAll.
type BatchOptions struct {
	// Workers bounds the number of concurrent analyses. 0 means 2x NumCPU.
	Workers int
	// Cache, when set, is consulted before and filled after each analysis.
	Cache *cache.LRUCache
	// OnDone is called after each request completes. It must be safe for concurrent use.
	OnDone func(Outcome)
}

// RunAll analyzes independent requests in parallel. Outcomes are returned in
// request order; a failing request does not stop the others.
func RunAll(ctx context.Context, reqs []Request, opts BatchOptions) []Outcome {
	out := make([]Outcome, len(reqs))
	if len(reqs) == 0 {
		return out
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	var mu sync.Mutex
	files := make(map[string]*ingest.File)
	parse := func(req Request) (*ingest.File, error) {
		if req.Source != nil || req.Path == "" {
			return load(ctx, req)
		}
		mu.Lock()
		f, ok := files[req.Path]
		mu.Unlock()
		if ok {
			return f, nil
		}
		f, err := load(ctx, req)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		files[req.Path] = f
		mu.Unlock()
		return f, nil
	}

	p := pool.New().WithMaxGoroutines(workers)
	for i, req := range reqs {
		p.Go(func() {
			o := runOne(ctx, req, parse, opts.Cache)
			out[i] = o
			if opts.OnDone != nil {
				opts.OnDone(o)
			}
		})
	}
	p.Wait()
	return out
}

func runOne(ctx context.Context, req Request, parse func(Request) (*ingest.File, error), c *cache.LRUCache) Outcome {
	o := Outcome{Request: req}
	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}

	f, err := parse(req)
	if err != nil {
		o.Err = err
		return o
	}

	key := cache.Key(f.Source, req.Method, string(req.Kind), req.optionKey())
	if c != nil {
		if g, ok := c.Get(key); ok {
			o.Graph, o.Cached = g, true
			return o
		}
	}

	res, err := RunFile(ctx, f, req)
	if err != nil {
		o.Err = fmt.Errorf("%s %s: %w", f.Path, req.Method, err)
		return o
	}
	o.Graph = res.Graph
	if c != nil {
		c.Set(key, res.Graph)
	}
	return o
}

// Requests expands a parsed file into one request per method, for the given kind.
func Requests(f *ingest.File, kind Kind) []Request {
	reqs := make([]Request, 0, len(f.Methods))
	for _, m := range f.Methods {
		reqs = append(reqs, Request{Path: f.Path, Method: m.Selector, Kind: kind})
	}
	return reqs
}

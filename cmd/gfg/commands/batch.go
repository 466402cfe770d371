package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-flow-graph/internal/log"
	"github.com/l3aro/go-flow-graph/internal/progress"
	"github.com/l3aro/go-flow-graph/internal/scanner"
	"github.com/l3aro/go-flow-graph/pkg/analyze"
	"github.com/l3aro/go-flow-graph/pkg/cache"
	"github.com/l3aro/go-flow-graph/pkg/ingest"
	"github.com/l3aro/go-flow-graph/pkg/render"
)

// BatchSummary is the result of a batch run.
type BatchSummary struct {
	Root    string   `json:"root"`
	OutDir  string   `json:"out_dir"`
	Kind    string   `json:"kind"`
	Files   int      `json:"files"`
	Methods int      `json:"methods"`
	Written int      `json:"written"`
	Cached  int      `json:"cached"`
	Failed  []string `json:"failed"`
}

var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Render a graph of every method under a directory",
	Long: `Scans a directory for .java files (honoring .gfgignore files), analyzes every
method in parallel and writes one graph per method to
<out-dir>/<file>/<method>.<ext>.

When cache_dir is configured, results are cached by source content and reused
across runs.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		return runBatch(cmd, root)
	},
}

func runBatch(cmd *cobra.Command, root string) error {
	ctx := cmd.Context()
	logger := log.FromContext(ctx)

	kindName := appConfig.Kind
	if cmd.Flags().Changed("kind") {
		kindName, _ = cmd.Flags().GetString("kind")
	}
	kind, err := analyze.ParseKind(kindName)
	if err != nil {
		return err
	}
	f, err := format()
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out-dir")
	workers := appConfig.Workers
	if cmd.Flags().Changed("workers") {
		workers, _ = cmd.Flags().GetInt("workers")
	}
	noCache, _ := cmd.Flags().GetBool("no-cache")

	opts := scanner.DefaultOptions()
	opts.IgnoreFileName = appConfig.IgnoreFile
	files, err := scanner.New(opts).Scan(ctx, root)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}
	logger.Debug("scanned", "root", root, "files", len(files))

	summary := BatchSummary{Root: root, OutDir: outDir, Kind: string(kind), Files: len(files), Failed: []string{}}

	// Output paths keep the scanned file's relative path.
	relPaths := make(map[string]string, len(files))
	var reqs []analyze.Request
	for _, fi := range files {
		parsed, err := ingest.ParseJavaFile(ctx, fi.FullPath)
		if err != nil {
			logger.Warn("skipping file", "path", fi.Path, "error", err)
			summary.Failed = append(summary.Failed, fmt.Sprintf("%s: %v", fi.Path, err))
			continue
		}
		relPaths[parsed.Path] = fi.Path
		for _, req := range analyze.Requests(parsed, kind) {
			req.ASCII = appConfig.ASCIIVersions
			req.Strict = appConfig.Strict
			reqs = append(reqs, req)
		}
	}
	summary.Methods = len(reqs)

	var c *cache.LRUCache
	cacheFile := appConfig.CacheFile()
	if cacheFile != "" && !noCache {
		c = cache.New(cache.Options{MaxSize: appConfig.CacheSize})
		if err := cache.LoadFromFile(c, cacheFile); err != nil {
			logger.Warn("ignoring unreadable cache", "path", cacheFile, "error", err)
			c.Clear()
		}
	}

	tracker := progress.NewTracker(cmd.ErrOrStderr(), "Analyzing", len(reqs))
	var cached atomic.Int64
	outcomes := analyze.RunAll(ctx, reqs, analyze.BatchOptions{
		Workers: workers,
		Cache:   c,
		OnDone: func(o analyze.Outcome) {
			if o.Cached {
				cached.Add(1)
			}
			tracker.Tick()
		},
	})

	renderOpts := appConfig.RenderOptions(false)
	for _, o := range outcomes {
		if o.Err != nil {
			logger.Warn("analysis failed", "path", o.Request.Path, "method", o.Request.Method, "error", o.Err)
			summary.Failed = append(summary.Failed, o.Err.Error())
			continue
		}
		path := graphPath(outDir, relPaths[o.Request.Path], o.Request.Method, f)
		if err := writeGraphFile(path, o.Graph, f, renderOpts); err != nil {
			return err
		}
		summary.Written++
	}
	summary.Cached = int(cached.Load())
	tracker.Finish(summary.Written, len(summary.Failed), summary.Cached)

	if c != nil {
		if err := cache.PersistToFile(c, cacheFile); err != nil {
			logger.Warn("could not persist cache", "path", cacheFile, "error", err)
		} else {
			stats := c.Stats()
			logger.Debug("cache persisted", "path", cacheFile, "entries", c.Len(), "hits", stats.HitCount, "misses", stats.MissCount)
		}
	}

	return writeData(cmd, summary, func(w io.Writer, colored bool) error {
		fmt.Fprintf(w, "Wrote %d of %d graphs to %s\n", summary.Written, summary.Methods, outDir)
		for _, msg := range summary.Failed {
			fmt.Fprintf(w, "  failed: %s\n", msg)
		}
		return nil
	})
}

// graphPath is <outDir>/<file without extension>/<method>.<ext>. Characters of an
// overload selector that are unsafe in file names become underscores.
func graphPath(outDir, relPath, method string, f render.Format) string {
	dir := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	return filepath.Join(outDir, filepath.FromSlash(dir), fileSafe.Replace(method)+"."+extension(f))
}

var fileSafe = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_",
)

func extension(f render.Format) string {
	if f == render.FormatTable {
		return "txt"
	}
	return string(f)
}

func writeGraphFile(path string, g render.Graph, f render.Format, opts render.Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := render.Write(out, g, f, opts); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

func init() {
	batchCmd.Flags().StringP("kind", "k", "", "Graph kind: cfg, ddg, pdg or ssa (default from config)")
	batchCmd.Flags().StringP("out-dir", "d", "gfg-out", "Directory the graphs are written to")
	batchCmd.Flags().IntP("workers", "w", 0, "Concurrent analyses (default 2x CPUs)")
	batchCmd.Flags().Bool("no-cache", false, "Ignore the configured result cache")
}

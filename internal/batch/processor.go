package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mu-bmd-retarget/internal/bmd"
	"mu-bmd-retarget/internal/crypto"
	"mu-bmd-retarget/internal/ledger"
	"mu-bmd-retarget/internal/meshkind"
	"mu-bmd-retarget/internal/preview"
	"mu-bmd-retarget/internal/report"
	"mu-bmd-retarget/internal/retarget"
	"mu-bmd-retarget/internal/rig"
	"mu-bmd-retarget/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	TargetPath  string
	Target      *bmd.Model // parsed once, read by every job
	OutputDir   string
	Parent      string // target node to parent meshes under; "" is the model root
	Reset       bool
	Meshes      []int // nil selects every mesh
	Exclude     []meshkind.Kind
	Reports     []string
	Preview     bool
	PreviewOpts preview.Options
	Keys        crypto.Keys
	Ledger      *ledger.Ledger // optional
	Workers     int
	Log         *slog.Logger

	// Progress is the interval between progress log lines; 0 means 2s.
	Progress time.Duration
}

// Result holds the outcome of processing one source model.
type Result struct {
	Source      string
	Output      string
	Preview     string
	Reports     []string
	Transferred int
	Skipped     int
	Missing     []retarget.MissingBone
	Success     bool
	Error       string
	Duration    time.Duration
}

// Run transfers the meshes of every source onto the target using a worker
// pool. Results are in source order. A failing job never stops the others.
func Run(ctx context.Context, cfg Config, sources []string) []Result {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Progress <= 0 {
		cfg.Progress = 2 * time.Second
	}

	total := len(sources)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.Progress)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					cfg.Log.Info("progress", "done", p, "total", total, "per_sec", fmt.Sprintf("%.1f", rate))
				}
			}
		}
	}()

	// Worker pool
	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Source: sources[idx], Error: err.Error()}
				} else {
					results[idx] = processSource(ctx, cfg, sources[idx])
				}
				processed.Add(1)
			}
		}()
	}

	for i := range sources {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	cfg.Log.Info("batch finished", "jobs", total, "elapsed", time.Since(start).Round(time.Millisecond))
	return results
}

func processSource(ctx context.Context, cfg Config, src string) Result {
	started := time.Now()
	log := cfg.Log.With("source", filepath.Base(src))

	res := transfer(cfg, src, log)
	res.Source = src
	res.Duration = time.Since(started)
	res.Success = res.Error == ""
	if !res.Success {
		log.Error("transfer failed", "error", res.Error)
	}

	if cfg.Ledger != nil {
		_, err := cfg.Ledger.Record(ctx, ledger.Entry{
			Time:        started,
			Source:      src,
			Target:      cfg.TargetPath,
			Output:      res.Output,
			Transferred: res.Transferred,
			Skipped:     res.Skipped,
			Error:       res.Error,
			Missing:     res.Missing,
		})
		if err != nil {
			log.Warn("ledger record failed", "error", err)
		}
	}
	return res
}

// transfer runs one job up to the first failing step. Outputs written before
// the failure stay listed in the result.
func transfer(cfg Config, src string, log *slog.Logger) Result {
	var res Result

	source, err := rig.Load(src, cfg.Keys)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if len(source.Meshes) == 0 {
		res.Error = "no meshes in BMD"
		return res
	}

	// Each job reparents into its own copy of the target scene.
	target := rig.Build(cfg.Target)
	target.Path = cfg.TargetPath

	parent := target.Root
	if cfg.Parent != "" {
		if parent = target.Find(cfg.Parent); parent == nil {
			res.Error = fmt.Sprintf("parent %q not found in %s", cfg.Parent, cfg.Target.Name)
			return res
		}
	}

	// Taken before meshes can land under the armature.
	targetBones := retarget.BuildBoneIndex(target.Armature).Names()

	meshes := source.Select(selection(source, cfg, log))
	result, err := retarget.New(log).Retarget(meshes, target.Armature, parent, cfg.Reset)
	if result != nil {
		res.Transferred = result.TransferredCount
		res.Skipped = result.SkippedCount
		res.Missing = result.MissingBones
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}

	out, err := source.Export(target, meshes)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	outPath := filepath.Join(cfg.OutputDir, stem+".bmd")
	if err := mkdirFor(outPath); err != nil {
		res.Error = err.Error()
		return res
	}
	if err := bmd.Write(outPath, out); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Output = outPath

	if len(cfg.Reports) > 0 {
		rep := report.Build(report.Input{
			Source:         src,
			Target:         cfg.TargetPath,
			Parent:         cfg.Parent,
			ResetTransform: cfg.Reset,
			Result:         result,
			TargetBones:    targetBones,
		})
		paths, err := report.WriteFiles(cfg.OutputDir, stem, cfg.Reports, rep)
		res.Reports = paths
		if err != nil {
			res.Error = err.Error()
			return res
		}
	}

	if cfg.Preview {
		tex := texture.NewCache(texture.BuildIndex(source.Dir(), target.Dir()), log)
		img := preview.Render(out, tex, cfg.PreviewOpts)
		webpPath := filepath.Join(cfg.OutputDir, stem+".webp")
		if err := preview.WriteWebP(webpPath, img, cfg.PreviewOpts.Size); err != nil {
			res.Error = err.Error()
			return res
		}
		res.Preview = webpPath
	}

	return res
}

// selection resolves cfg.Meshes against source and blanks out excluded
// kinds, which the retargeter then counts as skipped.
func selection(source *rig.Rig, cfg Config, log *slog.Logger) []int {
	excluded := meshkind.Exclude(source.Model, cfg.Exclude)
	if len(excluded) == 0 {
		return cfg.Meshes
	}

	indices := cfg.Meshes
	if indices == nil {
		indices = make([]int, len(source.Meshes))
		for i := range indices {
			indices[i] = i
		}
	}

	out := make([]int, len(indices))
	for i, mi := range indices {
		out[i] = mi
		if slices.Contains(excluded, mi) {
			log.Debug("mesh excluded",
				"mesh", source.Meshes[mi].Name,
				"kind", meshkind.Classify(&source.Model.Meshes[mi]),
			)
			out[i] = -1
		}
	}
	return out
}

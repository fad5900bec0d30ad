package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mu-bmd-retarget/internal/batch"
	"mu-bmd-retarget/internal/bmd"
	"mu-bmd-retarget/internal/config"
	"mu-bmd-retarget/internal/ledger"
	"mu-bmd-retarget/internal/preview"
)

// maxListedFailures caps the failures printed in the summary.
const maxListedFailures = 20

func newTransferCmd(opts *rootOptions) *cobra.Command {
	var flags config.Flags
	var noLedger bool

	cmd := &cobra.Command{
		Use:   "transfer <source.bmd>...",
		Short: "Rebind the meshes of source models to a target skeleton",
		Long: `Rebind the skinned meshes of each source model to the bones of the target
model with the same names, then write <output>/<source>.bmd plus the
requested reports and a WebP preview.

Examples:
  bmd-retarget transfer --target Data/Player/Player.bmd Data/Player/ArmorMale01.bmd
  bmd-retarget transfer -t Player.bmd --parent "Bip01 Spine" --mesh 0 --mesh 2 Wings01.bmd`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("mesh") {
				flags.Meshes = nil
			}
			cfg := opts.cfg
			cfg.Resolve(flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			keys, err := cfg.Keys()
			if err != nil {
				return err
			}
			exclude, err := cfg.ExcludeKinds()
			if err != nil {
				return err
			}

			target, err := bmd.Parse(cfg.Target, keys)
			if err != nil {
				return err
			}

			var history *ledger.Ledger
			if !noLedger {
				history, err = ledger.Open(cfg.Ledger, opts.log)
				if err != nil {
					return err
				}
				defer history.Close()
			}

			opts.log.Info("transfer starting",
				"target", cfg.Target,
				"sources", len(args),
				"workers", cfg.Workers,
				"output", cfg.OutputDir,
			)

			start := time.Now()
			results := batch.Run(cmd.Context(), batch.Config{
				TargetPath: cfg.Target,
				Target:     target,
				OutputDir:  cfg.OutputDir,
				Parent:     cfg.Parent,
				Reset:      cfg.Reset(),
				Meshes:     cfg.Meshes,
				Exclude:    exclude,
				Reports:    cfg.Reports,
				Preview:    cfg.PreviewEnabled(),
				PreviewOpts: preview.Options{
					Size:        cfg.PreviewSize,
					Supersample: cfg.Supersample,
					View:        cfg.View,
				},
				Keys:    keys,
				Ledger:  history,
				Workers: cfg.Workers,
				Log:     opts.log,
			}, args)

			manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
			if err := batch.WriteManifest(manifestPath, cfg.Target, results); err != nil {
				opts.log.Warn("manifest write failed", "error", err)
				manifestPath = ""
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(results, time.Since(start), manifestPath))

			if failed := countFailed(results); failed > 0 {
				return fmt.Errorf("%d of %d transfers failed", failed, len(results))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.Target, "target", "t", "", "target model whose skeleton receives the meshes")
	f.StringVarP(&flags.Parent, "parent", "p", "", "target node to parent mesh transforms under (default: model root)")
	f.StringVarP(&flags.OutputDir, "output", "o", "", "output directory (default: <target dir>/retargeted)")
	f.IntSliceVar(&flags.Meshes, "mesh", nil, "mesh index to transfer (repeatable, default: all)")
	f.StringSliceVar(&flags.Exclude, "exclude", nil, "mesh kinds to leave behind: body, effect")
	f.StringSliceVar(&flags.Reports, "report", nil, "report formats: json, md, html (default: json,md)")
	f.StringVar(&flags.Ledger, "ledger", "", "history database (default: user config dir)")
	f.StringVar(&flags.View, "view", "", "preview view: front or three-quarter")
	f.IntVarP(&flags.Workers, "workers", "w", 0, "worker goroutines (default: NumCPU)")
	f.BoolVar(&flags.NoReset, "no-reset", false, "keep the re-parented local transform instead of resetting it")
	f.BoolVar(&flags.NoPreview, "no-preview", false, "skip the WebP preview")
	f.BoolVar(&noLedger, "no-ledger", false, "do not record the run in the history database")
	return cmd
}

func countFailed(results []batch.Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

func renderSummary(results []batch.Result, elapsed time.Duration, manifest string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Mesh transfer"))
	b.WriteString("\n")

	var failures []batch.Result
	for _, r := range results {
		name := filepath.Base(r.Source)
		switch {
		case !r.Success:
			failures = append(failures, r)
			fmt.Fprintf(&b, "%s %s\n", failStyle.Render("FAIL"), name)
		case len(r.Missing) > 0:
			fmt.Fprintf(&b, "%s %s  %d transferred, %d skipped, %s\n",
				warnStyle.Render("WARN"), name, r.Transferred, r.Skipped,
				warnStyle.Render(fmt.Sprintf("%d missing bone(s)", len(r.Missing))))
		default:
			fmt.Fprintf(&b, "%s %s  %d transferred, %d skipped\n",
				okStyle.Render(" OK "), name, r.Transferred, r.Skipped)
		}
	}

	if len(failures) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Failed (%d):\n", len(failures))
		for _, r := range failures[:min(len(failures), maxListedFailures)] {
			fmt.Fprintf(&b, "  %s: %s\n", filepath.Base(r.Source), r.Error)
		}
	}

	footer := fmt.Sprintf("Done: %d/%d in %.1fs", len(results)-len(failures), len(results), elapsed.Seconds())
	if manifest != "" {
		footer += "\n" + dimStyle.Render("Manifest: "+manifest)
	}
	b.WriteString(boxStyle.Render(footer))
	return b.String()
}

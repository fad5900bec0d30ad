package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mu-bmd-retarget/internal/config"
	"mu-bmd-retarget/internal/ledger"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	var path string
	var showMissing bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent transfer runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = opts.cfg.Ledger
			}
			if path == "" {
				path = config.DefaultLedgerPath()
			}

			history, err := ledger.Open(path, opts.log)
			if err != nil {
				return err
			}
			defer history.Close()

			entries, err := history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, dimStyle.Render("No runs recorded."))
				return nil
			}
			for _, e := range entries {
				status := okStyle.Render(" OK ")
				switch {
				case e.Error != "":
					status = failStyle.Render("FAIL")
				case len(e.Missing) > 0:
					status = warnStyle.Render("WARN")
				}
				fmt.Fprintf(w, "%s #%d %s  %s -> %s  %d transferred, %d skipped, %d missing\n",
					status, e.ID, e.Time.Format("2006-01-02 15:04:05"),
					filepath.Base(e.Source), filepath.Base(e.Target),
					e.Transferred, e.Skipped, len(e.Missing))
				if e.Error != "" {
					fmt.Fprintf(w, "       %s\n", e.Error)
				}
				if showMissing {
					for _, mb := range e.Missing {
						fmt.Fprintf(w, "       %s: %s\n", mb.MeshName, mb.BoneName)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().StringVar(&path, "ledger", "", "history database (default: user config dir)")
	cmd.Flags().BoolVar(&showMissing, "missing", false, "list the missing bones of each run")
	return cmd
}

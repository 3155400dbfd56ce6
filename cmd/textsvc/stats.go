package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/typerush/textsvc/pkg/config"
	"github.com/typerush/textsvc/pkg/models"
	"github.com/typerush/textsvc/pkg/tracker"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		recent     int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show generation request history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			tr, err := tracker.New(cfg.History.DBPath)
			if err != nil {
				return err
			}
			defer tr.Close()

			ctx := context.Background()

			if recent > 0 {
				records, err := tr.Recent(ctx, recent)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Println("No requests recorded.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tWHEN\tTYPE\tCOUNT\tTAKEN\tSTATUS\tERROR")
				for _, r := range records {
					fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s ms\t%s\t%s\n",
						r.ID, humanize.Time(r.CreatedAt), typeName(r.Type), r.Count,
						humanize.FtoaWithDigits(r.ElapsedMs, 2), r.Status, r.Error)
				}
				return w.Flush()
			}

			summaries, err := tr.Summary(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No requests recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tREQUESTS\tERRORS\tAVG MS\tMAX MS")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					typeName(s.Type), humanize.Comma(int64(s.RequestCount)), humanize.Comma(int64(s.ErrorCount)),
					humanize.FtoaWithDigits(s.AvgElapsedMs, 2), humanize.FtoaWithDigits(s.MaxElapsedMs, 2))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().IntVar(&recent, "recent", 0, "list the N most recent requests instead of the summary")
	return cmd
}

func typeName(t int) string {
	switch models.ContentType(t) {
	case models.TypeWords:
		return "words"
	case models.TypeSentence:
		return "sentence"
	case models.TypeParagraphs:
		return "paragraphs"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/typerush/textsvc/pkg/config"
	"github.com/typerush/textsvc/pkg/models"
)

func newGenerateCmd() *cobra.Command {
	var (
		configPath  string
		contentType int
		count       int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one text and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, closeStore, err := newService(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			resp, err := svc.GenerateText(ctx, models.GenerationRequest{Type: contentType, Count: count})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().IntVarP(&contentType, "type", "t", int(models.TypeWords), "content type: 1 words, 2 sentence, 3 paragraphs")
	cmd.Flags().IntVarP(&count, "count", "n", 10, "word count or sentence length")
	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/typerush/textsvc/pkg/config"
	"github.com/typerush/textsvc/pkg/models"
	"github.com/typerush/textsvc/pkg/store/sqlite"
	"github.com/typerush/textsvc/pkg/textgen"
)

// seedFile is the YAML layout accepted by the seed command.
type seedFile struct {
	Words     []string          `yaml:"words"`
	Sentences []models.TextItem `yaml:"sentences"`
	Items     []models.TextItem `yaml:"items"`
}

func newSeedCmd() *cobra.Command {
	var (
		configPath string
		file       string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load words and sentences from a YAML file into the sqlite store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			items, err := loadSeedFile(file)
			if err != nil {
				return err
			}

			st, err := sqlite.New(cfg.Store.SQLitePath, cfg.Store.PageSize)
			if err != nil {
				return fmt.Errorf("init sqlite store: %w", err)
			}
			defer func() { _ = st.Close() }()

			if err := st.Import(cmd.Context(), items); err != nil {
				return err
			}
			fmt.Printf("Imported %d items into %s\n", len(items), cfg.Store.SQLitePath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&file, "file", "f", "items.yaml", "YAML file with words and sentences")
	return cmd
}

// loadSeedFile reads and normalizes seed items. Bare words become word
// items; entries without an id get a random one.
func loadSeedFile(path string) ([]models.TextItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	items := make([]models.TextItem, 0, len(f.Words)+len(f.Sentences)+len(f.Items))
	for _, w := range f.Words {
		items = append(items, models.TextItem{Type: models.ItemTypeWord, Content: w})
	}
	for _, s := range f.Sentences {
		s.Type = models.ItemTypeSentence
		items = append(items, s)
	}
	items = append(items, f.Items...)

	for i := range items {
		it := &items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.Content == "" {
			return nil, fmt.Errorf("seed item %d: empty content", i)
		}
		switch it.Type {
		case models.ItemTypeWord:
		case models.ItemTypeSentence:
			if it.Length < textgen.MinSentenceLength || it.Length > textgen.MaxSentenceLength {
				return nil, fmt.Errorf("seed item %d: sentence length %d out of range [%d, %d]",
					i, it.Length, textgen.MinSentenceLength, textgen.MaxSentenceLength)
			}
		default:
			return nil, fmt.Errorf("seed item %d: unknown type %q", i, it.Type)
		}
	}
	return items, nil
}

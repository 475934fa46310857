package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driving"
)

var (
	ingestLei      string
	ingestContexto string
	ingestFile     string
	ingestTitle    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add content to the knowledge base",
}

var ingestTextCmd = &cobra.Command{
	Use:   "text [content]",
	Short: "Ingest curated text as a single chunk",
	Long: `Ingest curated text as a single chunk. The content is taken from the
argument, from --file, or from stdin when neither is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readTextInput(cmd, args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) *domain.IngestOutcome {
			return a.ingestor.IngestText(ctx, driving.TextInput{
				Content:  content,
				Lei:      ingestLei,
				Contexto: ingestContexto,
			})
		})
	},
}

var ingestPDFCmd = &cobra.Command{
	Use:   "pdf <path>",
	Short: "Ingest a PDF document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) *domain.IngestOutcome {
			return a.ingestor.IngestPDF(ctx, driving.PDFInput{
				Filename: filepath.Base(args[0]),
				Data:     data,
				Lei:      ingestLei,
				Contexto: ingestContexto,
			})
		})
	},
}

var ingestCuratedCmd = &cobra.Command{
	Use:   "curated <file.yaml>",
	Short: "Ingest a legislative excerpt pre-split into chunks",
	Long: `Ingest a legislative excerpt pre-split into chunks. The file holds:

  lei: Lei 8.078/1990
  contexto: Código de Defesa do Consumidor
  chunks:
    - "Art. 6º São direitos básicos do consumidor: ..."
    - "Art. 18. Os fornecedores de produtos ..."`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readCuratedFile(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) *domain.IngestOutcome {
			return a.ingestor.IngestCurated(ctx, *in)
		})
	},
}

var ingestLinkCmd = &cobra.Command{
	Use:   "link <url>",
	Short: "Register a monitored web page and ingest it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) *domain.IngestOutcome {
			return a.linkMgr.CreateLink(ctx, driving.LinkInput{URL: args[0], Title: ingestTitle})
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{ingestTextCmd, ingestPDFCmd, ingestCuratedCmd} {
		c.Flags().StringVar(&ingestLei, "lei", "", "law the content belongs to")
		c.Flags().StringVar(&ingestContexto, "contexto", "", "context shown with the law")
	}
	ingestTextCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "read content from a file")
	ingestLinkCmd.Flags().StringVar(&ingestTitle, "title", "", "title used when the page has none")

	ingestCmd.AddCommand(ingestTextCmd, ingestPDFCmd, ingestCuratedCmd, ingestLinkCmd)
	rootCmd.AddCommand(ingestCmd)
}

// withApp builds the app, runs one ingestion and prints its outcome
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) *domain.IngestOutcome) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx, cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	outcome := fn(ctx, a)
	if err := printJSON(cmd, outcome); err != nil {
		return err
	}
	if outcome == nil || !outcome.Success {
		msg := "no outcome"
		if outcome != nil {
			msg = outcome.Message
		}
		return fmt.Errorf("ingestion failed: %s", msg)
	}
	return nil
}

func readTextInput(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) == 1 && ingestFile != "":
		return "", errors.New("pass content either as an argument or with --file")
	case len(args) == 1:
		return args[0], nil
	case ingestFile != "":
		data, err := os.ReadFile(ingestFile)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func readCuratedFile(path string) (*driving.CuratedInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Lei      string   `yaml:"lei"`
		Contexto string   `yaml:"contexto"`
		SourceID string   `yaml:"source_id"`
		Chunks   []string `yaml:"chunks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &driving.CuratedInput{
		Lei:      doc.Lei,
		Contexto: doc.Contexto,
		Chunks:   doc.Chunks,
		SourceID: doc.SourceID,
	}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

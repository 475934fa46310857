package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

type retrieveOutput struct {
	Fragments   []domain.Fragment `json:"fragments"`
	TotalTokens int               `json:"total_tokens"`
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <query>",
	Short: "Print the fragments selected for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg, logger, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		fragments := a.retrieval.FindRelevantContent(ctx, strings.Join(args, " "))
		if fragments == nil {
			fragments = []domain.Fragment{}
		}
		return printJSON(cmd, retrieveOutput{
			Fragments:   fragments,
			TotalTokens: domain.TotalTokens(fragments),
		})
	},
}

func init() {
	rootCmd.AddCommand(retrieveCmd)
}

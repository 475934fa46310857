package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.close()

		cmd.Printf("Schema up to date (%s)\n", st.backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

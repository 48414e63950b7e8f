package main

import (
	"github.com/spf13/cobra"
)

func newSkillsCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Print the skill vocabulary in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vocab, err := loadVocabulary(opts.cfg.Dashboard.SkillsFile)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), vocab)
			}
			printVocabulary(cmd.OutOrStdout(), vocab)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the vocabulary as a JSON array")
	return cmd
}

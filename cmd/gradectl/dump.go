package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/codegrade/internal/grader"
)

func newDumpCmd(engine *grader.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "dump file.py [file.py...]",
		Short: "Print the canonical syntax-tree dump of reference solutions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				src, err := readSource(cmd, path)
				if err != nil {
					return err
				}
				dump, err := engine.Dump(src)
				if err != nil {
					if perr, ok := grader.AsReferenceParseError(err); ok {
						return fmt.Errorf("%s: Syntax error on line %d, col %d: %s",
							path, perr.Line, perr.Column+1, perr.Message)
					}
					return fmt.Errorf("%s: %w", path, err)
				}
				if len(args) > 1 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, dump)
					continue
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), dump)
			}
			return nil
		},
	}
}

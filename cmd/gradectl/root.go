package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/codegrade/internal/grader"
	"github.com/kailas-cloud/codegrade/internal/syntax/python"
	"github.com/kailas-cloud/codegrade/internal/version"
)

const rootLongDescription = `gradectl compares a Python submission with a reference solution using the
same syntax-tree rubric as the codegrade API, without a running server.`

func newRootCmd() *cobra.Command {
	engine := grader.New(python.NewParser())

	root := &cobra.Command{
		Use:          "gradectl",
		Short:        "Offline Python code grader",
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.AddCommand(
		newCompareCmd(engine),
		newDumpCmd(engine),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "gradectl "+version.String())
		},
	}
}

// readSource reads a file, or stdin when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

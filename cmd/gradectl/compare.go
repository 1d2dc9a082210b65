package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/codegrade/internal/grader"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func newCompareCmd(engine *grader.Engine) *cobra.Command {
	var (
		referencePath string
		referenceDump string
		output        string
	)

	cmd := &cobra.Command{
		Use:   "compare --reference ref.py submission.py",
		Short: "Grade a submission against a reference solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputTable && output != outputJSON {
				return fmt.Errorf("--output must be %q or %q, got %q", outputTable, outputJSON, output)
			}

			reference, err := readSource(cmd, referencePath)
			if err != nil {
				return err
			}
			submission, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			res, err := engine.Compare(submission, reference, referenceDump)
			if err != nil {
				return fmt.Errorf("compare: %w", err)
			}

			if output == outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			renderResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&referencePath, "reference", "r", "", "reference solution file (- for stdin)")
	cmd.Flags().StringVar(&referenceDump, "reference-dump", "", "precomputed reference dump for the exact-match check")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	_ = cmd.MarkFlagRequired("reference")
	return cmd
}

func renderResult(w io.Writer, res grader.ScoreResult) {
	summary := tablewriter.NewWriter(w)
	summary.SetBorder(false)
	summary.SetCenterSeparator("")
	summary.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	summary.AppendBulk([][]string{
		{"Exact match", strconv.FormatBool(res.ExactMatch)},
		{"Tier", res.Tier.String()},
		{"Score", strconv.FormatFloat(res.Score, 'f', -1, 64)},
		{"Feedback", res.Feedback.Message},
	})
	summary.Render()

	if len(res.Feedback.Issues) == 0 {
		return
	}

	_, _ = fmt.Fprintln(w)
	issues := tablewriter.NewWriter(w)
	issues.SetHeader([]string{"Line", "Column", "Issue"})
	issues.SetBorder(false)
	issues.SetCenterSeparator("")
	issues.SetAutoWrapText(false)
	issues.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	for _, is := range res.Feedback.Issues {
		col := "-"
		if is.Column != nil {
			col = strconv.Itoa(*is.Column)
		}
		issues.Append([]string{strconv.Itoa(is.Line), col, is.Message})
	}
	issues.SetFooter([]string{"", "Total", strconv.Itoa(len(res.Feedback.Issues))})
	issues.Render()
}

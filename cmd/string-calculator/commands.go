package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/string-calculator/pkg/expr"
	"github.com/lemonberrylabs/string-calculator/pkg/sheet"
	"github.com/lemonberrylabs/string-calculator/pkg/types"
)

func newEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval EXPRESSION...",
		Short: "Evaluate expressions and print their results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			failed := 0
			for _, input := range args {
				v, err := expr.Evaluate(input)
				if err != nil {
					failed++
					fmt.Fprintln(errOut, userMessage(err))
					continue
				}
				fmt.Fprintln(out, v.String())
			}
			if failed > 0 {
				return errFailed
			}
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check EXPRESSION",
		Short: "Validate an expression without evaluating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := expr.Check(args[0]); err != nil {
				if ce := types.AsCalcError(err); ce != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ce.Reason(), ce.Message)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), err)
				}
				return errFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch FILE|DIR...",
		Short: "Evaluate expression sheets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output != "text" && output != "json" && output != "yaml" {
				return fmt.Errorf("unknown output format %q (want text, json or yaml)", output)
			}

			sheets, err := loadSheets(args)
			if err != nil {
				return err
			}

			reports := make([]sheet.Report, 0, len(sheets))
			failed := 0
			for _, sh := range sheets {
				r := sh.Evaluate()
				failed += r.Failed
				reports = append(reports, r)
			}

			if err := writeReports(cmd.OutOrStdout(), output, reports); err != nil {
				return err
			}
			if failed > 0 {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
	return cmd
}

func loadSheets(paths []string) ([]*sheet.Sheet, error) {
	var sheets []*sheet.Sheet
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			found, err := sheet.LoadDir(p)
			if err != nil {
				return nil, err
			}
			sheets = append(sheets, found...)
			continue
		}
		sh, err := sheet.Load(p)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sh)
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found")
	}
	return sheets, nil
}

func writeReports(w io.Writer, format string, reports []sheet.Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	}

	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "# %s (%d passed, %d failed)\n", r.Sheet, r.Passed, r.Failed)
		for _, res := range r.Results {
			if res.Error != nil {
				fmt.Fprintf(w, "%s = error: %s\n", res.Name, res.Error.UserMessage)
				continue
			}
			fmt.Fprintf(w, "%s = %s\n", res.Name, res.Display)
		}
	}
	return nil
}

func userMessage(err error) string {
	if ce := types.AsCalcError(err); ce != nil {
		return ce.UserMessage()
	}
	return err.Error()
}

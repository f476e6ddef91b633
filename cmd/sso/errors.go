package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/sso/internal/errors"
)

func errorsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "errors [code]",
		Short: "List error codes or explain one",
		Long: `List every registered store error code, or print the full
explanation of one code.

Examples:
  sso errors
  sso errors S004
  sso errors S004 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, code := range errors.GetAllCodes() {
					t, _ := errors.GetTemplate(code)
					fmt.Fprintf(out, "%s  %-14s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			if _, ok := errors.GetTemplate(code); !ok {
				return fmt.Errorf("unknown error code %q", args[0])
			}
			e := errors.New(code)
			if asJSON {
				fmt.Fprintln(out, e.FormatJSON())
				return nil
			}
			fmt.Fprint(out, e.Format())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the error as JSON")

	return cmd
}

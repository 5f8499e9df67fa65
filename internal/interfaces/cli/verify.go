package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	appcitation "github.com/lexcite/caseguard/internal/application/citation"
	"github.com/lexcite/caseguard/internal/domain/citation"
)

// newVerifyCmd builds the verify subcommand: check a single citation against
// the configured source cascade.
func newVerifyCmd() *cobra.Command {
	var (
		caseName string
		date     string
	)

	cmd := &cobra.Command{
		Use:   "verify <citation>",
		Short: "Verify a single citation against authoritative sources",
		Long:  "Verify checks one citation string (e.g. \"347 U.S. 483\") against the\nconfigured source cascade and reports whether a real case bears it.\nOptional case name and date evidence raise confidence when they match\nthe authoritative record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			res, err := cliCtx.Service.VerifyOne(cmd.Context(), &appcitation.VerifyRequest{
				CitationText: args[0],
				CaseName:     caseName,
				Date:         date,
			})
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return printJSON(cmd, res)
			}
			return printVerifyText(cmd, args[0], res)
		},
	}

	cmd.Flags().StringVar(&caseName, "name", "", "case name evidence (e.g. \"Brown v. Board of Education\")")
	cmd.Flags().StringVar(&date, "date", "", "decision date evidence (e.g. \"1954-05-17\" or \"1954\")")

	return cmd
}

func printVerifyText(cmd *cobra.Command, cite string, res *citation.VerificationResult) error {
	out := cmd.OutOrStdout()

	if !res.Verified {
		reason := res.Details["reason"]
		if reason == "" {
			reason = "no source could confirm the citation"
		}
		fmt.Fprintf(out, "NOT VERIFIED  %s\n  reason: %s\n", cite, reason)
		return nil
	}

	fmt.Fprintf(out, "VERIFIED  %s  (confidence %.2f)\n", cite, res.Confidence)
	if res.CanonicalName != "" {
		fmt.Fprintf(out, "  case: %s\n", res.CanonicalName)
	}
	if res.CanonicalDate != "" {
		fmt.Fprintf(out, "  date: %s\n", res.CanonicalDate)
	}
	fmt.Fprintf(out, "  source: %s\n", res.Source)
	if res.URL != "" {
		fmt.Fprintf(out, "  url: %s\n", res.URL)
	}
	return nil
}

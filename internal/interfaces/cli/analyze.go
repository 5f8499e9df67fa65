package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	appcitation "github.com/lexcite/caseguard/internal/application/citation"
)

// newAnalyzeCmd builds the analyze subcommand: run the full pipeline over a
// document and report every citation, its verification status, and cluster
// membership.
func newAnalyzeCmd() *cobra.Command {
	var (
		skipVerification bool
		timeout          time.Duration
		known            []string
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a legal document for case citations",
		Long:  "Analyze scans a document for case citations, extracts case names from\neach citation's local context, verifies the citations against configured\nsources, and clusters parallel citations.  Reads from stdin when no file\nis given or the file is \"-\".",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			text, err := readDocument(cmd, args)
			if err != nil {
				return err
			}

			req := &appcitation.AnalyzeRequest{
				Text:             text,
				KnownCitations:   known,
				SkipVerification: skipVerification,
				MaxLookback:      cliCtx.Config.Pipeline.MaxLookback,
				Timeout:          cliCtx.Config.Pipeline.Timeout,
			}
			if timeout > 0 {
				req.Timeout = timeout
			}

			res, err := cliCtx.Service.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return printJSON(cmd, res)
			}
			return printAnalyzeText(cmd, res)
		},
	}

	cmd.Flags().BoolVar(&skipVerification, "skip-verification", false, "extract and cluster without contacting verification sources")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "analysis deadline (0 uses the configured pipeline timeout)")
	cmd.Flags().StringArrayVar(&known, "citation", nil, "pre-identified citation string (repeatable); skips document scanning")

	return cmd
}

// readDocument returns the document text from the file argument or stdin.
func readDocument(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

// printAnalyzeText renders the analysis result as a table plus summary.
func printAnalyzeText(cmd *cobra.Command, res *appcitation.AnalyzeResult) error {
	out := cmd.OutOrStdout()

	if res.TotalCitations == 0 {
		fmt.Fprintln(out, "No citations found.")
		return nil
	}

	rows := make([][]string, 0, len(res.Citations))
	for _, c := range res.Citations {
		status := "unverified"
		if c.Verification.Verified {
			status = "verified (" + c.Verification.Source + ")"
		}
		name := c.BestName()
		if name == "" {
			name = "-"
		}
		cluster := c.ClusterID
		if cluster == "" {
			cluster = "-"
		}
		rows = append(rows, []string{
			c.Span.RawText,
			name,
			status,
			fmt.Sprintf("%.2f", c.Verification.Confidence),
			cluster,
		})
	}

	fmt.Fprint(out, FormatTable(
		[]string{"CITATION", "CASE NAME", "STATUS", "CONFIDENCE", "CLUSTER"},
		rows,
	))

	fmt.Fprintf(out, "\n%d citations, %d verified, %d in %d clusters (%.2fs)\n",
		res.TotalCitations, res.TotalVerified, res.TotalClustered,
		len(res.Clusters), float64(res.DurationMs)/1000)

	return nil
}

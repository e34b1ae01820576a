package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	pkgeta "github.com/ahmedelazaizi/invoiceportaleta/pkg/eta"
)

var (
	flagTimeout  time.Duration
	flagFormat   string
	flagOutput   string
	flagPageSize int
	flagPage     int
)

var taxpayerCmd = &cobra.Command{
	Use:   "taxpayer <tax-registration-number>",
	Short: "Verify a tax registration number against the authority registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taxID := pkgeta.NormalizeRegistrationNumber(args[0])
		if err := pkgeta.ValidateRegistrationNumber(taxID); err != nil {
			return err
		}
		client, err := newETAClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		info, err := client.VerifyTaxpayer(ctx, taxID)
		if err != nil {
			return err
		}
		if !info.Found {
			fmt.Printf("%s: not registered\n", taxID)
			return nil
		}
		fmt.Printf("%s: registered\n", taxID)
		return printJSON(info.Raw)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <submission-id>",
	Short: "Check the lifecycle state of a submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newETAClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		resp, err := client.GetSubmissionStatus(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(resp.Raw)
	},
}

var documentCmd = &cobra.Command{
	Use:   "document <uuid>",
	Short: "Fetch one document from the authority registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newETAClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		raw, err := client.GetDocument(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(raw)
	},
}

var printoutCmd = &cobra.Command{
	Use:   "printout <uuid>",
	Short: "Download the authority-rendered document (pdf or html)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newETAClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		body, err := client.GetDocumentPrintout(ctx, args[0], flagFormat)
		if err != nil {
			return err
		}
		out := flagOutput
		if out == "" {
			out = args[0] + "." + flagFormat
		}
		if err := os.WriteFile(out, body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", out, len(body))
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the latest documents in the registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newETAClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		raw, err := client.RecentDocuments(ctx, flagPageSize, flagPage)
		if err != nil {
			return err
		}
		return printJSON(raw)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [key=value ...]",
	Short: "Search the document registry by criteria",
	Example: `  etactl search status=Valid
  etactl search receiverId=313717919 --page-size 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		criteria := map[string]any{}
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok || key == "" {
				return fmt.Errorf("criterion %q: want key=value", arg)
			}
			criteria[key] = value
		}
		client, err := newETAClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		raw, err := client.SearchDocuments(ctx, criteria, flagPageSize, flagPage)
		if err != nil {
			return err
		}
		return printJSON(raw)
	},
}

// printJSON pretty-prints a raw JSON body to stdout.
func printJSON(raw json.RawMessage) error {
	var buf map[string]any
	if err := json.Unmarshal(raw, &buf); err != nil {
		// Not an object; print verbatim.
		fmt.Println(string(raw))
		return nil
	}
	pretty, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 60*time.Second, "overall command timeout")

	printoutCmd.Flags().StringVar(&flagFormat, "format", "pdf", "printout format: pdf or html")
	printoutCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file (default <uuid>.<format>)")

	for _, c := range []*cobra.Command{recentCmd, searchCmd} {
		c.Flags().IntVar(&flagPageSize, "page-size", 20, "results per page")
		c.Flags().IntVar(&flagPage, "page", 1, "page number")
	}

	rootCmd.AddCommand(taxpayerCmd, statusCmd, documentCmd, printoutCmd, recentCmd, searchCmd)
}

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/adithyabsk/portfoliohut/internal/app"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/validation"
)

var showOwner string

// showCmd prints an owner's valued holdings and latest return.
var showCmd = &cobra.Command{
	Use:   "show --owner <uuid>",
	Short: "Print an owner's holdings and latest return",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validation.ValidateUUID(showOwner); err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			ctx := cmd.Context()
			profile, err := a.Profiles.GetProfile(ctx, showOwner)
			if err != nil {
				return err
			}
			details, err := a.Portfolio.GetPortfolioDetails(ctx, showOwner)
			if err != nil {
				return err
			}
			latest, err := a.Returns.GetLatestReturn(ctx, showOwner)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), profile, details, latest)
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVar(&showOwner, "owner", "", "Owner profile id.")
	_ = showCmd.MarkFlagRequired("owner")
}

func money(d decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// writeSummary renders the owner header, a holdings table and the totals.
func writeSummary(w io.Writer, profile model.Profile, details model.PortfolioDetails, latest model.LatestReturn) error {
	fmt.Fprintf(w, "%s (@%s)\n", profile.DisplayName, profile.Username)
	if latest.ReturnPct != nil && latest.AsOf != nil {
		fmt.Fprintf(w, "Return: %s%% as of %s\n",
			humanize.FormatFloat("#,###.##", *latest.ReturnPct*100),
			latest.AsOf.Format("2006-01-02"))
	} else {
		fmt.Fprintln(w, "Return: n/a")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SYMBOL\tSHARES\tAVG COST\tLAST\tVALUE\tGAIN\tWEIGHT\t")
	for _, h := range details.Holdings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s%%\t\n",
			h.Symbol,
			humanize.Comma(h.Quantity),
			money(h.AverageCost),
			money(h.LastClose),
			money(h.MarketValue),
			money(h.UnrealizedGL),
			humanize.FormatFloat("#.##", h.Weight*100),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Cash:   %s\n", money(details.Cash))
	fmt.Fprintf(w, "Equity: %s\n", money(details.EquityValue))
	fmt.Fprintf(w, "Total:  %s\n", money(details.TotalValue))
	return nil
}

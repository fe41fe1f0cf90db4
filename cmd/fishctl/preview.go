package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/fishfarm/internal/calc"
	"github.com/mamadbah2/fishfarm/internal/service/entries"
)

// Previews never reach the backend, so the service runs without one.
func previewService() *entries.Service {
	return entries.NewService(nil, nil, nil)
}

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Compute derived metrics without submitting anything",
	}
	cmd.AddCommand(
		newPreviewStockingCmd(),
		newPreviewSamplingCmd(),
		newPreviewHarvestCmd(),
		newPreviewFeedingCmd(),
		newPreviewMortalityCmd(),
		newPreviewInvoiceLineCmd(),
		newPreviewFcrCmd(),
		newPreviewPondCmd(),
	)
	return cmd
}

func newPreviewStockingCmd() *cobra.Command {
	var pcs, weight string
	cmd := &cobra.Command{
		Use:   "stocking",
		Short: "Initial average weight and pieces per kg",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := previewService().PreviewStocking(entries.StockingInput{
				Pcs:           entries.Text(pcs),
				TotalWeightKg: entries.Text(weight),
			})
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initial avg weight (g): %s\n", p.InitialAvgG.Format(3))
			fmt.Fprintf(out, "Pieces per kg:          %s\n", p.LinePcsPerKg.Format(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&pcs, "pcs", "", "Number of pieces stocked")
	cmd.Flags().StringVar(&weight, "weight", "", "Total weight in kg")
	return cmd
}

func newPreviewSamplingCmd() *cobra.Command {
	var size, weight string
	cmd := &cobra.Command{
		Use:   "sampling",
		Short: "Average weight, fish per kg and condition factor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := previewService().PreviewSampling(entries.SamplingInput{
				SampleSize:    entries.Text(size),
				TotalWeightKg: entries.Text(weight),
			})
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Avg weight (kg):  %s\n", p.AverageWeightKg.Format(3))
			fmt.Fprintf(out, "Avg weight (g):   %s\n", p.AverageWeightG.Format(2))
			fmt.Fprintf(out, "Fish per kg:      %s\n", p.FishPerKg.Format(2))
			fmt.Fprintf(out, "Condition factor: %s\n", p.ConditionFactor.Format(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&size, "sample-size", "", "Number of fish weighed")
	cmd.Flags().StringVar(&weight, "weight", "", "Total sample weight in kg")
	return cmd
}

func newPreviewHarvestCmd() *cobra.Command {
	var weight, count, price string
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Average weight and revenue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := previewService().PreviewHarvest(entries.HarvestInput{
				TotalWeightKg: entries.Text(weight),
				TotalCount:    entries.Text(count),
				PricePerKg:    entries.Text(price),
			})
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Avg weight (g): %s\n", p.AvgWeightG.Format(2))
			fmt.Fprintf(out, "Total revenue:  %s\n", p.TotalRevenue.Format(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&weight, "weight", "", "Total harvested weight in kg")
	cmd.Flags().StringVar(&count, "count", "", "Number of fish harvested")
	cmd.Flags().StringVar(&price, "price", "", "Price per kg (optional)")
	return cmd
}

func newPreviewFeedingCmd() *cobra.Command {
	var amount, packets, cost, biomass string
	cmd := &cobra.Command{
		Use:   "feeding",
		Short: "Feed amount, cost and feeding rate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := previewService().PreviewFeeding(entries.FeedingInput{
				AmountKg:           entries.Text(amount),
				Packets:            entries.Text(packets),
				CostPerPacket:      entries.Text(cost),
				BiomassAtFeedingKg: entries.Text(biomass),
			})
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Amount (kg):      %s\n", p.AmountKg.Format(2))
			fmt.Fprintf(out, "Packets:          %s\n", p.Packets.Format(2))
			fmt.Fprintf(out, "Total cost:       %s\n", p.TotalCost.Format(2))
			fmt.Fprintf(out, "Feeding rate (%%): %s\n", p.FeedingRatePercent.Format(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount-kg", "", "Feed amount in kg")
	cmd.Flags().StringVar(&packets, "packets", "", "Feed amount in 25 kg packets, used when --amount-kg is empty")
	cmd.Flags().StringVar(&cost, "cost-per-packet", "", "Cost of one packet")
	cmd.Flags().StringVar(&biomass, "biomass", "", "Pond biomass in kg at feeding")
	return cmd
}

func newPreviewMortalityCmd() *cobra.Command {
	var count, lotWeight, lotCount, sampledAvg string
	cmd := &cobra.Command{
		Use:   "mortality",
		Short: "Average weight and biomass lost for dead fish",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := previewService().PreviewMortality(entries.MortalityInput{
				Count:              entries.Text(count),
				LotTotalWeightKg:   entries.Text(lotWeight),
				LotFishCount:       entries.Text(lotCount),
				SampledAvgWeightKg: entries.Text(sampledAvg),
			})
			source := p.AvgWeightSource
			if source == "" {
				source = calc.NotApplicable
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Avg weight (kg):   %s (%s)\n", p.AvgWeightKg.Format(3), source)
			fmt.Fprintf(out, "Biomass lost (kg): %s\n", p.BiomassLostKg.Format(3))
			return nil
		},
	}
	cmd.Flags().StringVar(&count, "count", "", "Number of dead fish")
	cmd.Flags().StringVar(&lotWeight, "lot-weight", "", "Total weight of the fish lot in kg")
	cmd.Flags().StringVar(&lotCount, "lot-count", "", "Number of fish in the lot")
	cmd.Flags().StringVar(&sampledAvg, "sampled-avg-kg", "", "Latest sampled average weight in kg, used without lot figures")
	return cmd
}

func newPreviewInvoiceLineCmd() *cobra.Command {
	var count, line, weight, rate string
	cmd := &cobra.Command{
		Use:   "invoice-line",
		Short: "Fill the missing one of fish count, line number and weight",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := previewService().PreviewInvoiceLine(entries.InvoiceLineInput{
				FishCount:   entries.Text(count),
				LineNumber:  entries.Text(line),
				TotalWeight: entries.Text(weight),
				Rate:        entries.Text(rate),
			})
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fish count:   %s\n", p.FishCount.Format(0))
			fmt.Fprintf(out, "Line number:  %s\n", p.LineNumber.Format(2))
			fmt.Fprintf(out, "Weight (kg):  %s\n", p.TotalWeightKg.Format(3))
			fmt.Fprintf(out, "Amount:       %s\n", p.Amount.Format(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&count, "count", "", "Number of fish")
	cmd.Flags().StringVar(&line, "line", "", "Line number (pieces per kg)")
	cmd.Flags().StringVar(&weight, "weight", "", "Total weight in kg")
	cmd.Flags().StringVar(&rate, "rate", "", "Price per kg (optional)")
	return cmd
}

func newPreviewFcrCmd() *cobra.Command {
	var feed, harvested string
	cmd := &cobra.Command{
		Use:   "fcr",
		Short: "Feed conversion ratio and its rating",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fcr := calc.FeedConversionRatio(calc.ParseNumber(feed), calc.ParseNumber(harvested))
			fmt.Fprintf(cmd.OutOrStdout(), "FCR: %s (%s)\n", fcr.Format(2), calc.RateFCR(fcr))
			return nil
		},
	}
	cmd.Flags().StringVar(&feed, "feed", "", "Total feed in kg")
	cmd.Flags().StringVar(&harvested, "harvested", "", "Total harvested weight in kg")
	return cmd
}

func newPreviewPondCmd() *cobra.Command {
	var area, depth, fish, avgG string
	cmd := &cobra.Command{
		Use:   "pond",
		Short: "Pond volume and standing biomass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			volume := calc.PondVolumeM3(calc.ParseNumber(area), calc.ParseNumber(depth))
			biomass := calc.BiomassKg(calc.ParseCount(fish), calc.ParseNumber(avgG))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Volume (m3):  %s\n", volume.Format(2))
			fmt.Fprintf(out, "Biomass (kg): %s\n", biomass.Format(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&area, "area", "", "Pond area in decimals")
	cmd.Flags().StringVar(&depth, "depth", "", "Water depth in feet")
	cmd.Flags().StringVar(&fish, "fish", "", "Fish count")
	cmd.Flags().StringVar(&avgG, "avg-g", "", "Average fish weight in grams")
	return cmd
}

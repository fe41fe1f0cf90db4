package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/fishfarm/internal/config"
	"github.com/mamadbah2/fishfarm/internal/domain/models"
	"github.com/mamadbah2/fishfarm/internal/service/reporting"
	"github.com/mamadbah2/fishfarm/pkg/clients/farmapi"
)

const (
	dateLayout    = "2006-01-02"
	reportWindow  = 30 * 24 * time.Hour
	backendBudget = time.Minute
)

// connect builds an authenticated backend client from the environment.
func connect(ctx context.Context, envFile string) (*farmapi.APIClient, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	client := farmapi.NewClient(cfg.FarmAPI)
	if cfg.FarmAPI.Token == "" && cfg.FarmAPI.Username != "" {
		if _, err := client.Login(ctx, cfg.FarmAPI.Username, cfg.FarmAPI.Password); err != nil {
			return nil, fmt.Errorf("log in to farm backend: %w", err)
		}
	}
	return client, nil
}

// period resolves --start/--end, defaulting to the 30 days ending today.
func period(start, end string) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end must be YYYY-MM-DD: %w", err)
		}
		to = t
	}
	from := to.Add(-reportWindow)
	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start must be YYYY-MM-DD: %w", err)
		}
		from = t
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("--start must not be after --end")
	}
	return from, to, nil
}

func newReportCmd(envFile *string) *cobra.Command {
	var (
		pondID     int
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Feed, harvest and FCR summary for one pond",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pondID <= 0 {
				return fmt.Errorf("--pond is required")
			}
			from, to, err := period(start, end)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), backendBudget)
			defer cancel()

			client, err := connect(ctx, *envFile)
			if err != nil {
				return err
			}

			_, summary, err := reporting.NewService(client, nil, nil, nil).GeneratePondReport(ctx, pondID, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().IntVar(&pondID, "pond", 0, "Pond id")
	cmd.Flags().StringVar(&start, "start", "", "Period start YYYY-MM-DD (default 30 days before --end)")
	cmd.Flags().StringVar(&end, "end", "", "Period end YYYY-MM-DD (default today)")
	return cmd
}

func newFcrAnalysisCmd(envFile *string) *cobra.Command {
	var (
		query      models.FcrQuery
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "fcr-analysis",
		Short: "Backend FCR breakdown per pond and species",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, err := period(start, end)
			if err != nil {
				return err
			}
			query.StartDate = from.Format(dateLayout)
			query.EndDate = to.Format(dateLayout)

			ctx, cancel := context.WithTimeout(cmd.Context(), backendBudget)
			defer cancel()

			client, err := connect(ctx, *envFile)
			if err != nil {
				return err
			}
			analysis, err := client.GetFcrAnalysis(ctx, query)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "POND\tSPECIES\tFEED KG\tGAIN KG\tFCR\tSTATUS")
			for _, row := range analysis.Rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					row.PondName, row.SpeciesName,
					row.TotalFeedKg.Format(2), row.TotalWeightGainKg.Format(2),
					row.FCR.Format(2), row.FCRStatus)
			}
			s := analysis.Summary
			fmt.Fprintf(w, "TOTAL\t\t%s\t%s\t%s\t%s\n",
				s.TotalFeedKg.Format(2), s.TotalWeightGainKg.Format(2), s.OverallFCR.Format(2), s.FCRStatus)
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&query.Pond, "pond", 0, "Pond id (default all ponds)")
	cmd.Flags().IntVar(&query.Species, "species", 0, "Species id (default all species)")
	cmd.Flags().StringVar(&start, "start", "", "Period start YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Period end YYYY-MM-DD")
	return cmd
}

func newStocksCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stocks",
		Short: "Customer fish lots and their current stock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), backendBudget)
			defer cancel()

			client, err := connect(ctx, *envFile)
			if err != nil {
				return err
			}
			stocks, err := client.ListCustomerStocks(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFISH\tCURRENT STOCK\tUNIT COST")
			for _, s := range stocks {
				fmt.Fprintf(w, "%d\t%d\t%s %s\t%s\n",
					s.CustomerStockID, s.FishCount, s.CurrentStock.Format(2), s.Unit, s.UnitCost.Format(2))
			}
			return w.Flush()
		},
	}
}

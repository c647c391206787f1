// Command cli is the operational entry point: load exports, run
// analyses, write reports, and seed demo data.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"immunostat/adapters/report"
	"immunostat/domain/cohort"
	domstats "immunostat/domain/stats"
	"immunostat/internal/config"
	"immunostat/internal/container"
	"immunostat/internal/testkit"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "immunostat",
		Short: "Immune cell population analysis for clinical trial cohorts",
	}

	rootCmd.AddCommand(
		newLoadCmd(),
		newAnalyzeCmd(),
		newReportCmd(),
		newSeedCmd(),
		newSummaryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildContainer loads .env plus environment config and wires the app.
func buildContainer() (*container.Container, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.New(cfg)
}

func newLoadCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "load [export-file]",
		Short: "Load a wide-format trial export (CSV or XLSX) into the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			path := c.Config.Data.CSVFile
			if len(args) > 0 {
				path = args[0]
			}

			stats, err := c.Loader.Load(context.Background(), path, reset)
			if err != nil {
				return err
			}
			fmt.Printf("loaded %d subjects, %d samples, %d cell counts\n",
				stats.Subjects, stats.Samples, stats.CellCounts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", true, "clear existing data before loading")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var method, unit, transform string
	filter := filterFlags()

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the responder comparison and print the result table as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			opts := domstats.AnalysisOptions{
				Method:    domstats.TestMethod(method),
				Unit:      domstats.Unit(unit),
				Transform: domstats.Transform(transform),
			}
			result, err := c.Service.RunAnalysis(context.Background(), filter.build(), opts)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "test method (mann_whitney, welch_t)")
	cmd.Flags().StringVar(&unit, "unit", "", "unit of analysis (subject, sample)")
	cmd.Flags().StringVar(&transform, "transform", "", "value transform (none, clr)")
	filter.register(cmd)
	return cmd
}

func newReportCmd() *cobra.Command {
	var format, out string
	filter := filterFlags()

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the analysis and write a report file",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := context.Background()
			f := filter.build()

			result, err := c.Service.RunAnalysis(ctx, f, domstats.AnalysisOptions{})
			if err != nil {
				return err
			}
			stats, err := c.Service.SubsetStats(ctx, f)
			if err != nil {
				return err
			}
			flow, err := c.Service.CohortFlow(ctx, f)
			if err != nil {
				return err
			}
			freqs, err := c.Service.FrequencyTable(ctx, f)
			if err != nil {
				return err
			}

			in := report.Input{
				Filter:      f,
				Counts:      stats.Counts,
				Run:         result.Run,
				Flow:        flow,
				Frequencies: freqs.Rows,
			}

			var data []byte
			switch format {
			case "html":
				data, err = report.HTML(in)
			case "md":
				data, err = report.Markdown(in)
			case "xlsx":
				data, err = report.Excel(in)
			default:
				return fmt.Errorf("unknown report format %q (want html, md, or xlsx)", format)
			}
			if err != nil {
				return err
			}

			if out == "" {
				out = "analysis_report." + format
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "html", "report format: html, md, or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "output path (default analysis_report.<format>)")
	filter.register(cmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	var subjects int
	var seed int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with a deterministic synthetic cohort",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := context.Background()
			if err := c.Store.InitSchema(ctx); err != nil {
				return err
			}
			if err := c.Store.Reset(ctx); err != nil {
				return err
			}

			genCfg := testkit.DefaultCohortConfig()
			genCfg.Subjects = subjects
			genCfg.Seed = seed
			subs, samples, counts := testkit.NewCohortGenerator(genCfg).GenerateDataset()

			if err := c.Store.InsertSubjects(ctx, subs); err != nil {
				return err
			}
			if err := c.Store.InsertSamples(ctx, samples); err != nil {
				return err
			}
			if err := c.Store.InsertCellCounts(ctx, counts); err != nil {
				return err
			}
			fmt.Printf("seeded %d subjects, %d samples, %d cell counts\n",
				len(subs), len(samples), len(counts))
			return nil
		},
	}
	cmd.Flags().IntVar(&subjects, "subjects", 20, "number of synthetic subjects")
	cmd.Flags().Int64Var(&seed, "seed", 42, "generator seed")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	filter := filterFlags()

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the subset summary and cohort flow as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := context.Background()
			f := filter.build()

			stats, err := c.Service.SubsetStats(ctx, f)
			if err != nil {
				return err
			}
			flow, err := c.Service.CohortFlow(ctx, f)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"subset_stats": stats,
				"cohort_flow":  flow,
			})
		},
	}
	filter.register(cmd)
	return cmd
}

// cohortFilterFlags groups the shared --condition/--treatment/... flags.
type cohortFilterFlags struct {
	condition  string
	treatment  string
	sampleType string
	timeFilter string
}

func filterFlags() *cohortFilterFlags {
	d := cohort.DefaultFilter()
	return &cohortFilterFlags{
		condition:  d.Condition,
		treatment:  d.Treatment,
		sampleType: d.SampleType,
		timeFilter: string(d.Time),
	}
}

func (f *cohortFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.condition, "condition", f.condition, "condition filter (or 'all')")
	cmd.Flags().StringVar(&f.treatment, "treatment", f.treatment, "treatment filter (or 'all')")
	cmd.Flags().StringVar(&f.sampleType, "sample-type", f.sampleType, "sample type filter (or 'all')")
	cmd.Flags().StringVar(&f.timeFilter, "time", f.timeFilter, "time filter: all or baseline_only")
}

func (f *cohortFilterFlags) build() cohort.Filter {
	return cohort.Filter{
		Condition:  f.condition,
		Treatment:  f.treatment,
		SampleType: f.sampleType,
		Time:       cohort.TimeFilter(f.timeFilter),
	}
}

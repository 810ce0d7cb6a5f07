// Package main provides the valuation CLI entrypoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vozant-ai/valuation-engine/internal/appraisal"
	"github.com/vozant-ai/valuation-engine/internal/cache"
	"github.com/vozant-ai/valuation-engine/internal/config"
	"github.com/vozant-ai/valuation-engine/internal/i18n"
	"github.com/vozant-ai/valuation-engine/internal/imagery"
	"github.com/vozant-ai/valuation-engine/internal/insight"
	"github.com/vozant-ai/valuation-engine/internal/observability"
	"github.com/vozant-ai/valuation-engine/internal/prediction"
	"github.com/vozant-ai/valuation-engine/internal/selection"
	"github.com/vozant-ai/valuation-engine/internal/storage"
	"github.com/vozant-ai/valuation-engine/internal/taxonomy"
)

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "vozant",
	Short: "Vozant valuation CLI for appraisals, taxonomy inspection, and administration",
	Long: `Vozant CLI provides commands for working with the vehicle valuation engine.

Use this tool to:
- Run a full appraisal for a vehicle selection
- Inspect the option taxonomy (brands, models, years, attributes)
- Resolve a selection against the taxonomy without predicting
- Manage persisted UI preferences
- Purge the generated-text cache

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}

		level := cfg.Observability.LogLevel
		if !verbose {
			level = "warn"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      logFormat,
			ServiceName: "valuation-cli",
		})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newAppraiseCmd())
	rootCmd.AddCommand(newOptionsCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newPrefsCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newAppraiseCmd creates the appraise subcommand.
func newAppraiseCmd() *cobra.Command {
	var (
		brand        string
		model        string
		year         int
		mileage      int
		used         bool
		fuelType     string
		transmission string
		engineType   string
		displacement int
		horsepower   int
		torque       int
		language     string
		skipResolve  bool
	)

	cmd := &cobra.Command{
		Use:   "appraise",
		Short: "Run a full appraisal for a vehicle selection",
		Long: `Appraise resolves the selection against the option taxonomy, requests a
price prediction, and renders the market analysis, vehicle profile, and
studio imagery for the result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			lang := resolveLanguage(language)

			rule := selection.MileageRule{
				UsedMin: cfg.Appraisal.UsedMileageMin,
				Max:     cfg.Appraisal.MileageMax,
			}
			features := selection.Default(time.Now())
			features = features.WithBrand(brand).WithModel(model).WithYear(year)
			if fuelType != "" {
				features.FuelType = fuelType
			}
			if transmission != "" {
				features.Transmission = transmission
			}
			if engineType != "" {
				features = features.WithEngineType(engineType)
			}
			if displacement > 0 {
				features.Displacement = displacement
			}
			if horsepower > 0 {
				features.Horsepower = horsepower
			}
			if torque > 0 {
				features.Torque = torque
			}
			features = features.WithCondition(!used, rule)
			if mileage > 0 {
				features = features.WithMileage(mileage, rule)
			}

			if !skipResolve {
				snap := fetchSnapshot(ctx, ui)
				features, _ = selection.Resolve(features, snap)
			}

			engine, closeEngine, err := buildEngine()
			if err != nil {
				return err
			}
			defer closeEngine()

			spin := ui.NewSpinner(i18n.T(lang, i18n.MsgAnalyzing))
			spin.Start()
			started := time.Now()

			session := appraisal.NewSession()
			result := engine.Submit(ctx, session, features, lang)

			spin.Stop()

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if result.Message != "" {
				ui.Error("%s", result.Message)
				return nil
			}

			ui.Section(i18n.T(lang, i18n.MsgAppraisal))
			ui.KeyValue(i18n.T(lang, i18n.MsgEstimate), FormatPrice(result.EstimatedPrice))
			ui.KeyValue(i18n.T(lang, i18n.MsgRangeLow), FormatPrice(float64(result.PriceRange.Lower)))
			ui.KeyValue(i18n.T(lang, i18n.MsgRangeHigh), FormatPrice(float64(result.PriceRange.Upper)))
			ui.ConfidenceBar(i18n.T(lang, i18n.MsgConfidence), result.Confidence)

			if result.MarketAnalysis != "" {
				ui.Section(i18n.T(lang, i18n.MsgSynthesis))
				ui.Paragraph(result.MarketAnalysis)
			}

			if result.Brief != nil {
				ui.Section(i18n.T(lang, i18n.MsgProfile))
				ui.KeyValue("Title", result.Brief.Title)
				if result.Brief.Summary != "" {
					ui.Paragraph(result.Brief.Summary)
				}
				for _, bullet := range result.Brief.Bullets {
					ui.Bullet(bullet)
				}
				if result.Brief.Extra != "" {
					ui.Paragraph(result.Brief.Extra)
				}
			}

			if verbose {
				for _, img := range result.Images {
					ui.Bullet(img)
				}
			}

			ui.Success("Appraisal %s completed in %s", result.ID, FormatDuration(time.Since(started)))
			return nil
		},
	}

	cmd.Flags().StringVar(&brand, "brand", "", "vehicle brand (required)")
	cmd.Flags().StringVar(&model, "model", "", "vehicle model (required)")
	cmd.Flags().IntVar(&year, "year", 0, "model year (required)")
	cmd.Flags().IntVar(&mileage, "mileage", 0, "mileage in km")
	cmd.Flags().BoolVar(&used, "used", false, "vehicle is used rather than new")
	cmd.Flags().StringVar(&fuelType, "fuel", "", "fuel type")
	cmd.Flags().StringVar(&transmission, "transmission", "", "transmission")
	cmd.Flags().StringVar(&engineType, "engine", "", "engine type")
	cmd.Flags().IntVar(&displacement, "displacement", 0, "engine displacement in cc")
	cmd.Flags().IntVar(&horsepower, "hp", 0, "horsepower")
	cmd.Flags().IntVar(&torque, "torque", 0, "torque in Nm")
	cmd.Flags().StringVar(&language, "language", "", "output language (EN or TR)")
	cmd.Flags().BoolVar(&skipResolve, "skip-resolve", false, "skip taxonomy resolution before predicting")

	_ = cmd.MarkFlagRequired("brand")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

// newOptionsCmd creates the options subcommand.
func newOptionsCmd() *cobra.Command {
	var (
		brand string
		model string
	)

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Inspect the option taxonomy",
		Long: `Options lists the available brands, the models of a brand, or the years
and attributes of a model, as served by the remote options endpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			snap := fetchSnapshot(ctx, ui)

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			switch {
			case brand == "":
				rows := make([][]string, 0, len(snap.Brands))
				for _, b := range snap.Brands {
					rows = append(rows, []string{b, strconv.Itoa(len(snap.ModelsFor(b)))})
				}
				ui.Table([]string{"Brand", "Models"}, rows)

			case model == "":
				models := snap.ModelsFor(brand)
				if len(models) == 0 {
					ui.Warning("No models for brand %q", brand)
					return nil
				}
				rows := make([][]string, 0, len(models))
				for _, m := range models {
					rows = append(rows, []string{m, fmt.Sprintf("%v", snap.YearsFor(brand, m))})
				}
				ui.Table([]string{"Model", "Years"}, rows)

			default:
				attrs, ok := snap.AttrsFor(brand, model)
				if !ok {
					ui.Warning("No attributes for %s %s", brand, model)
					return nil
				}
				ui.Section(fmt.Sprintf("%s %s", brand, model))
				ui.KeyValue("Years", snap.YearsFor(brand, model))
				ui.KeyValue("Fuel types", attrs.FuelTypes)
				ui.KeyValue("Transmissions", attrs.Transmissions)
				ui.KeyValue("Engine types", attrs.EngineTypes)
				ui.KeyValue("Displacements", attrs.Displacements)
				ui.KeyValue("Horsepowers", attrs.Horsepowers)
				ui.KeyValue("Torques", attrs.Torques)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&brand, "brand", "", "show models for this brand")
	cmd.Flags().StringVar(&model, "model", "", "show years and attributes for this model")

	return cmd
}

// newResolveCmd creates the resolve subcommand.
func newResolveCmd() *cobra.Command {
	var (
		brand        string
		model        string
		year         int
		engineType   string
		displacement int
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a selection against the taxonomy without predicting",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			features := selection.Default(time.Now())
			features = features.WithBrand(brand).WithModel(model).WithYear(year)
			if engineType != "" {
				features = features.WithEngineType(engineType)
			}
			if displacement > 0 {
				features.Displacement = displacement
			}

			snap := fetchSnapshot(ctx, ui)
			corrected, sets := selection.Resolve(features, snap)

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"features":  corrected,
					"validSets": sets,
				})
			}

			ui.Section("Resolved selection")
			ui.KeyValue("Brand", corrected.Brand)
			ui.KeyValue("Model", corrected.Model)
			ui.KeyValue("Year", corrected.Year)
			ui.KeyValue("Fuel type", corrected.FuelType)
			ui.KeyValue("Transmission", corrected.Transmission)
			ui.KeyValue("Engine type", corrected.EngineType)
			ui.KeyValue("Displacement", corrected.Displacement)
			ui.KeyValue("Horsepower", corrected.Horsepower)
			ui.KeyValue("Torque", corrected.Torque)

			ui.Section("Valid sets")
			ui.KeyValue("Models", sets.Models)
			ui.KeyValue("Years", sets.Years)
			ui.KeyValue("Engine types", sets.EngineTypes)
			ui.KeyValue("Displacements", sets.Displacements)

			return nil
		},
	}

	cmd.Flags().StringVar(&brand, "brand", "", "vehicle brand (required)")
	cmd.Flags().StringVar(&model, "model", "", "vehicle model")
	cmd.Flags().IntVar(&year, "year", 0, "model year")
	cmd.Flags().StringVar(&engineType, "engine", "", "engine type")
	cmd.Flags().IntVar(&displacement, "displacement", 0, "engine displacement in cc")

	_ = cmd.MarkFlagRequired("brand")

	return cmd
}

// newPrefsCmd creates the prefs subcommand.
func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage persisted UI preferences",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the stored theme and language",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			db, err := storage.Open(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			repo := storage.NewPreferenceRepository(db)
			prefs := map[string]string{}
			for _, key := range []string{storage.PrefTheme, storage.PrefLanguage} {
				if value, err := repo.Get(ctx, key); err == nil {
					prefs[key] = value
				}
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(prefs)
			}

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()
			for key, value := range prefs {
				ui.KeyValue(key, value)
			}
			if len(prefs) == 0 {
				ui.Warning("No preferences stored")
			}
			return nil
		},
	}

	var (
		theme    string
		language string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Store the theme and/or language",
		RunE: func(cmd *cobra.Command, args []string) error {
			if theme == "" && language == "" {
				return fmt.Errorf("at least one of --theme or --language is required")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			db, err := storage.Open(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			repo := storage.NewPreferenceRepository(db)
			if theme != "" {
				if err := repo.Set(ctx, storage.PrefTheme, theme); err != nil {
					return fmt.Errorf("store theme: %w", err)
				}
			}
			if language != "" {
				if err := repo.Set(ctx, storage.PrefLanguage, string(i18n.Normalize(language))); err != nil {
					return fmt.Errorf("store language: %w", err)
				}
			}

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()
			ui.Success("Preferences updated")
			return nil
		},
	}
	set.Flags().StringVar(&theme, "theme", "", "UI theme")
	set.Flags().StringVar(&language, "language", "", "UI language (EN or TR)")

	cmd.AddCommand(get, set)
	return cmd
}

// newCacheCmd creates the cache subcommand.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Administer the generated-text cache",
	}

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Remove all cached vehicle briefs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			switch cfg.Cache.Driver {
			case "sql":
				db, err := storage.Open(ctx, cfg.Database)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer db.Close()

				if err := storage.NewInsightCacheRepository(db).Purge(ctx); err != nil {
					return fmt.Errorf("purge cache: %w", err)
				}

			case "redis":
				client, err := cache.NewRedisClient(cache.RedisConfig{
					Addr:     cfg.Cache.Redis.Addr,
					Password: cfg.Cache.Redis.Password,
					DB:       cfg.Cache.Redis.DB,
					PoolSize: cfg.Cache.Redis.PoolSize,
				})
				if err != nil {
					return fmt.Errorf("connect redis: %w", err)
				}
				defer client.Close()

				if err := client.DeleteByPrefix(ctx, cache.BriefKey("")); err != nil {
					return fmt.Errorf("purge cache: %w", err)
				}

			default:
				ui.Warning("Memory cache holds no durable entries; nothing to purge")
				return nil
			}

			ui.Success("Vehicle-brief cache purged")
			return nil
		},
	}

	cmd.AddCommand(purge)
	return cmd
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.Encode(map[string]string{"version": "0.1.0"})
				return
			}
			fmt.Println("vozant v0.1.0")
		},
	}
}

// resolveLanguage picks the output language: flag first, then config default.
func resolveLanguage(flag string) i18n.Language {
	if flag != "" {
		return i18n.Normalize(flag)
	}
	return i18n.Normalize(cfg.Localization.DefaultLanguage)
}

// fetchSnapshot loads the option taxonomy, degrading to an empty snapshot on
// failure so downstream resolution still answers.
func fetchSnapshot(ctx context.Context, ui *UI) *taxonomy.Snapshot {
	client, err := taxonomy.NewClient(taxonomy.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		ui.Warning("Taxonomy client unavailable: %v", err)
		return taxonomy.Empty()
	}

	snap, err := client.Fetch(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Taxonomy fetch failed")
		ui.Warning("Options unavailable, continuing with current selection")
		return taxonomy.Empty()
	}
	return snap
}

// buildEngine wires the appraisal orchestrator from config. The returned
// closer releases any database or cache connections behind the brief cache.
func buildEngine() (*appraisal.Orchestrator, func(), error) {
	predictor, err := prediction.NewClient(prediction.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create prediction client: %w", err)
	}

	imager, err := imagery.NewClient(imagery.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create imagery client: %w", err)
	}

	insightClient, err := insight.NewClient(insight.Config{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create insight client: %w", err)
	}

	var (
		briefStore insight.Store
		closer     = func() {}
	)
	switch cfg.Cache.Driver {
	case "sql":
		db, err := storage.Open(context.Background(), cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		briefStore = storage.NewInsightCacheRepository(db)
		closer = func() { db.Close() }
	case "redis":
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, briefs will not persist")
		} else {
			briefStore = insight.NewCacheStore(client, cfg.Cache.BriefTTL)
			closer = func() { client.Close() }
		}
	}

	briefCache := insight.NewBriefCache(briefStore, logger, insight.BriefCacheConfig{TTL: cfg.Cache.BriefTTL})
	insightService := insight.NewService(insightClient, briefCache, logger)

	engine := appraisal.NewOrchestrator(predictor, insightService, insightService, imager, appraisal.Options{
		RangeMargin:       cfg.Appraisal.RangeMargin,
		DefaultConfidence: cfg.Appraisal.DefaultConfidence,
		MileageRule: selection.MileageRule{
			UsedMin: cfg.Appraisal.UsedMileageMin,
			Max:     cfg.Appraisal.MileageMax,
		},
	}, logger)

	return engine, closer, nil
}

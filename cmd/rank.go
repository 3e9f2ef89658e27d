package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/engine"
	"github.com/spigell/care-matcher/internal/filtering"
	"github.com/spigell/care-matcher/internal/jobstatus"
	"github.com/spigell/care-matcher/internal/logger"
	"github.com/spigell/care-matcher/internal/matching"
	"github.com/spigell/care-matcher/internal/matching/llm"
	"github.com/spigell/care-matcher/internal/metrics"
	"github.com/spigell/care-matcher/internal/normalize"
)

const (
	PromptDumpToFile          = "Dump matches to file"
	PromptReportByRank        = "Report by rank"
	PromptAppendToExcludeFile = "Append all matches to exclude file"
	PromptExit                = "Exit"
)

var errExit = errors.New("exit requested")

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank caregivers for a care recipient",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("recipient", "r", "", "json file with the care recipient profile")
	rankCmd.Flags().StringP("caregivers", "c", "", "json file with an array of caregiver profiles")
	rankCmd.Flags().StringP("output", "o", "", "write ranked matches to this file instead of a temporary one")
	rankCmd.Flags().IntP("top", "t", matching.DefaultTop, "number of matches to keep, 0 keeps all")
	rankCmd.Flags().StringP("exclude-file", "e", "", "special file with caregivers to exclude. Default is unset.")
	rankCmd.Flags().Bool("include-inactive", false, "do not exclude inactive caregivers")
	rankCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for actions, dump matches and exit")

	viper.BindPFlag("input.recipient", rankCmd.Flags().Lookup("recipient"))
	viper.BindPFlag("input.caregivers", rankCmd.Flags().Lookup("caregivers"))
	viper.BindPFlag("output.file", rankCmd.Flags().Lookup("output"))
	viper.BindPFlag("output.top", rankCmd.Flags().Lookup("top"))
	viper.BindPFlag("filters.exclude-file", rankCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("filters.include-inactive", rankCmd.Flags().Lookup("include-inactive"))
}

// rank is the main command for the cli.
func rank(cmd *cobra.Command) {
	ctx := context.Background()

	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zl.Fatal("getting a config", zap.Error(err))
	}

	zl.Info("starting the care-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	zl.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.Input.Recipient == "" || config.Input.Caregivers == "" {
		zl.Fatal("recipient and caregivers files are required",
			zap.String("hint", "set input.recipient and input.caregivers or use --recipient and --caregivers flags"),
		)
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)
	if stop := serveMetrics(config.Metrics.Addr, registry, zl); stop != nil {
		defer stop()
	}

	tracker := newTracker(ctx, config.Status.Redis, zl)
	tracker.Queue(ctx)

	recipient, candidates, err := loadProfiles(ctx, config, zl)
	if err != nil {
		tracker.Fail(ctx, err)
		zl.Fatal("loading profiles", zap.Error(err))
	}

	if candidates.Len() == 0 {
		tracker.Complete(ctx, 0)
		zl.Info("exiting", zap.String("reason", "no caregivers left after filters"))
		return
	}

	tracker.Start(ctx)

	completer := newCompleter(ctx, config.AI, zl)
	provider, model := describe(completer)
	aiLogger := logger.WithProvider(zl, provider, model)

	scorer := llm.New(completer, aiLogger,
		llm.WithTimeout(config.AI.Timeout),
		llm.WithMaxTokens(config.AI.MaxTokens),
		llm.WithMaxLogLength(config.AI.MaxLogLength),
	)
	evaluator := engine.NewEvaluator(scorer, aiLogger, recorder)
	ranker := engine.NewRanker(evaluator, zl, recorder)

	records, err := ranker.RankAll(ctx, recipient, candidates.Items, func(percent int, step string) {
		zl.Info("ranking progress", zap.Int("progress", percent), zap.String("current_step", step))
		tracker.Progress(ctx, percent, step)
	})
	if err != nil {
		tracker.Fail(ctx, err)
		zl.Fatal("ranking failed", zap.Error(err))
	}

	records = records.Top(config.Output.Top)
	tracker.Complete(ctx, records.Len())
	zl.Info("matching job finished", zap.String(logger.FieldJobID, tracker.JobID()), zap.Int("matches", records.Len()))

	if records.Len() == 0 {
		zl.Info("exiting", zap.String("reason", "no caregivers could be evaluated"))
		return
	}

	actions := []string{PromptDumpToFile, PromptReportByRank}
	if config.Filters.ExcludeFile != "" {
		actions = append(actions, PromptAppendToExcludeFile)
	}
	prompt := promptui.Select{
		Label: "Choose an action",
		Items: append(actions, PromptExit),
	}

	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"
	for {
		zl.Info("current list of matches", zap.Int("count", records.Len()))

		action := PromptDumpToFile
		if !autoApprove {
			_, action, err = prompt.Run()
			if err != nil {
				zl.Fatal("exiting", zap.Error(err))
			}
		}

		if err := handleAction(action, zl, config, records); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			zl.Fatal("exiting", zap.Error(err))
		}

		if autoApprove {
			return
		}
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, records matching.Records) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportByRank:
		pretty, _ := json.MarshalIndent(records.ReportByRank(), "", "  ")
		logger.Info(string(pretty), zap.Int("matches count", records.Len()))
		return nil
	case PromptDumpToFile:
		filename, err := dumpRecords(records, config.Output.File)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excludeFile := config.Filters.ExcludeFile
		if err := appendToExcludeFile(excludeFile, records); err != nil {
			return err
		}
		logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", records.Len()))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func dumpRecords(records matching.Records, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return records.DumpToTmpFile()
	}
	return path, records.ToFile(path)
}

func appendToExcludeFile(path string, records matching.Records) error {
	excluded, err := matching.GetExcludedFromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		excluded = &matching.ExcludedCaregivers{}
	} else if err != nil {
		return err
	}

	excluded.Append(records.ToExcluded())
	return excluded.ToFile(path)
}

// loadProfiles reads, normalizes and pre-filters the input profiles.
func loadProfiles(ctx context.Context, config *Config, logger *zap.Logger) (*matching.CareRecipientProfile, *matching.Candidates, error) {
	recipient, err := normalize.RecipientFromFile(config.Input.Recipient)
	if err != nil {
		return nil, nil, err
	}

	candidates, err := normalize.CaregiversFromFile(config.Input.Caregivers)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("getting caregivers", zap.Int("count", candidates.Len()))

	steps := filtering.Default()
	if config.Filters.IncludeInactive {
		filtering.DisableByName(steps, "active", "include inactive requested via flag")
	}

	filtered, err := filtering.Run(ctx, &filtering.Config{
		ExcludeIDs:  config.Filters.ExcludeIDs,
		ExcludeFile: config.Filters.ExcludeFile,
	}, filtering.Deps{Logger: logger}, steps, candidates)
	if err != nil {
		return nil, nil, fmt.Errorf("filtering failed: %w", err)
	}

	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	return recipient, filtered, nil
}

// newTracker connects to redis when configured. Without redis the tracker does nothing.
func newTracker(ctx context.Context, cfg *RedisConfig, log *zap.Logger) *jobstatus.Tracker {
	jobID := strings.TrimSpace(cfg.JobID)
	if jobID == "" {
		jobID = uuid.NewString()
	}

	if strings.TrimSpace(cfg.Addr) == "" {
		return jobstatus.NewTracker(nil, jobID, log)
	}

	client, err := jobstatus.Connect(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		log.Warn("job status tracking is disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		return jobstatus.NewTracker(nil, jobID, log)
	}

	log.Info("tracking job status in redis", zap.String(logger.FieldJobID, jobID), zap.String("key", jobstatus.Key(jobID)))
	return jobstatus.NewTracker(jobstatus.NewRedisStore(client, cfg.TTL), jobID, log)
}

// serveMetrics exposes the registry on addr. It returns nil when addr is empty.
func serveMetrics(addr string, registry *prometheus.Registry, log *zap.Logger) func() {
	if strings.TrimSpace(addr) == "" {
		return nil
	}

	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

// redacted returns a copy of config without inline credentials.
func redacted(config *Config) *Config {
	c := *config
	if config.AI != nil {
		ai := *config.AI
		if ai.Gemini != nil {
			g := *ai.Gemini
			g.APIKey = mask(g.APIKey)
			ai.Gemini = &g
		}
		if ai.Claude != nil {
			cl := *ai.Claude
			cl.APIKey = mask(cl.APIKey)
			ai.Claude = &cl
		}
		c.AI = &ai
	}
	if config.Status != nil && config.Status.Redis != nil {
		r := *config.Status.Redis
		r.Password = mask(r.Password)
		c.Status = &StatusConfig{Redis: &r}
	}
	return &c
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

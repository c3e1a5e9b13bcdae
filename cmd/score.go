package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/cache"
	"github.com/spigell/unimatch/internal/catalog"
	"github.com/spigell/unimatch/internal/filtering"
	applog "github.com/spigell/unimatch/internal/logger"
	"github.com/spigell/unimatch/internal/metrics"
	"github.com/spigell/unimatch/internal/recommend"
	"github.com/spigell/unimatch/internal/scoring"
)

const (
	PromptReportByTier         = "Report by tier"
	PromptReportByInstitutions = "Report by institutions"
	PromptManualApply          = "Apply to programs in manual mode"
	PromptResultsToFile        = "Dump results to file"
	PromptExit                 = "Exit"
	PromptBack                 = "back"
	defaultFallbackMessage     = "Hello! I would like to apply to this program."
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReportByTier, PromptReportByInstitutions, PromptManualApply, PromptResultsToFile, PromptExit},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score published programs for a student",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolP("include-applied", "f", false, "do not exclude programs the student already applied to")
	scoreCmd.Flags().BoolP("auto-approve", "y", false, "print the report and exit without prompting")
	scoreCmd.Flags().StringP("metrics-file", "m", "", "write scoring metrics in prometheus text format to this file")

	viper.BindPFlag("metrics-file", scoreCmd.Flags().Lookup("metrics-file"))
}

// score is the main command for the cli.
func score(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := applog.New(logOptions())
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the unimatch", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	source, closeSource, err := openSource(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening a source", zap.String("source", config.Source), zap.Error(err))
	}
	defer closeSource()

	if strings.TrimSpace(config.StudentID) == "" {
		logger.Fatal("student id is required",
			zap.String("hint", "pass --student, set UNIMATCH_STUDENT_ID or the 'student-id' key in the configuration file"),
		)
	}

	steps, filterConfig, matcher := prepareFilters(ctx, cmd, config, logger)
	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	recorder := metrics.New()
	service := &recommend.Service{
		Source:  source,
		Filters: steps,
		Config:  filterConfig,
		Deps:    filtering.Deps{Matcher: matcher, Logger: logger},
		Metrics: recorder,
		Logger:  logger,
	}

	if config.Cache != nil && config.Cache.Enabled {
		scores := cache.Dial(*config.Cache, logger)
		if err := scores.Ping(ctx); err != nil {
			logger.Warn("score cache is unavailable, computing without it", zap.Error(err))
			scores.Close()
		} else {
			defer scores.Close()
			service.Cache = scores
		}
	}

	logger = applog.WithStudent(logger, config.StudentID)
	service.Logger = logger

	report, err := service.Run(ctx, config.StudentID)
	if err != nil {
		logger.Fatal("scoring programs", zap.Error(err))
	}

	if config.MetricsFile != "" {
		if err := recorder.WriteToTextfile(config.MetricsFile); err != nil {
			logger.Error("writing metrics", zap.String("filename", config.MetricsFile), zap.Error(err))
		}
	}

	if len(report.Results) == 0 {
		logger.Info("exiting", zap.String("reason", "no programs left after filters"))
		return
	}

	logResults(logger, report.Results)

	if cmd.Flag("auto-approve").Value.String() == "true" {
		if err := handleAction(ctx, PromptReportByTier, source, logger, config, report); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, source, logger, config, report); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, source catalog.Source, logger *zap.Logger, config *Config, report *recommend.Report) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportByTier:
		pretty, _ := json.MarshalIndent(tierReport(report), "", "  ")
		logger.Info(string(pretty),
			zap.Int("programs count", len(report.Results)),
			zap.Int("document completeness", report.Completeness.Percentage),
		)
		return nil
	case PromptReportByInstitutions:
		pretty, _ := json.MarshalIndent(report.Programs().ReportByInstitution(), "", "  ")
		logger.Info(string(pretty), zap.Int("programs count", len(report.Results)))
		return nil
	case PromptManualApply:
		return manualApply(ctx, source, logger, config, report)
	case PromptResultsToFile:
		filename, err := catalog.DumpToTmpFile("unimatch-*.json", report)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func logResults(logger *zap.Logger, results []scoring.Result) {
	for _, r := range results {
		fields := append(applog.ProgramFields(r.Program),
			zap.Int("score", r.Score),
			zap.String("tier", string(r.Tier)),
			zap.Strings("reasons", r.Reasons),
		)
		logger.Debug("program scored", fields...)
	}
}

// tierReport maps every non-empty tier to short labels of its programs, best first.
func tierReport(report *recommend.Report) map[scoring.Tier][]string {
	out := make(map[scoring.Tier][]string)
	for _, bucket := range report.ByTier() {
		for _, r := range bucket.Results {
			out[bucket.Tier] = append(out[bucket.Tier], resultLabel(r))
		}
	}
	return out
}

func resultLabel(r scoring.Result) string {
	title, institution := "", ""
	if r.Program != nil {
		title, institution = r.Program.Title, r.Program.InstitutionName()
	}
	if institution == "" {
		institution = "unknown institution"
	}
	return fmt.Sprintf("%s %s / %s / %d %s", r.ProgramID, title, institution, r.Score, r.Tier)
}

// applicationMessage picks the AI drafted message, then the configured one, then the built-in.
func applicationMessage(program *catalog.Program, configured string) (string, bool) {
	if program != nil && program.AI != nil && strings.TrimSpace(program.AI.Message) != "" {
		return program.AI.Message, false
	}
	if strings.TrimSpace(configured) != "" {
		return configured, false
	}
	return defaultFallbackMessage, true
}

func manualApply(ctx context.Context, source catalog.Source, logger *zap.Logger, config *Config, report *recommend.Report) error {
	remaining := append([]scoring.Result(nil), report.Results...)

	for {
		items := make([]string, 0, len(remaining)+1)
		for _, r := range remaining {
			items = append(items, resultLabel(r))
		}

		programPrompt := promptui.Select{
			Label: "Choose a program and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := programPrompt.Run()
		if err != nil {
			return err
		}

		if selected == PromptBack {
			return nil
		}

		programID := strings.Split(selected, " ")[0]
		idx := -1
		for i, r := range remaining {
			if r.ProgramID == programID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return fmt.Errorf("there is no such program id %s", programID)
		}

		message, fallback := applicationMessage(remaining[idx].Program, config.Apply.Message)
		if fallback {
			logger.Warn("falling back to default built-in message",
				zap.String("program_id", programID),
				zap.String("hint", "specify message in apply section"),
			)
		}

		application := catalog.NewApplication(report.Student.ID, programID, message)
		if err := source.Apply(ctx, application); err != nil {
			return err
		}

		logger.Info("successfully applied to program",
			zap.String("program_id", programID),
			zap.String("application_id", application.ID),
		)

		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
}

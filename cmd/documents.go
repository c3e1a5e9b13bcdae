package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	applog "github.com/spigell/unimatch/internal/logger"
	"github.com/spigell/unimatch/internal/recommend"
	"github.com/spigell/unimatch/internal/scoring"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Show how complete the student's application documents are",
	Run: func(_ *cobra.Command, _ []string) {
		documents()
	},
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}

func documents() {
	ctx := context.Background()

	logger, err := applog.New(logOptions())
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	source, closeSource, err := openSource(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening a source", zap.String("source", config.Source), zap.Error(err))
	}
	defer closeSource()

	service := &recommend.Service{Source: source, Logger: logger}
	student, err := service.LoadStudent(ctx, config.StudentID)
	if err != nil {
		logger.Fatal("loading the student", zap.Error(err))
	}

	fmt.Print(completenessReport(scoring.AnalyzeDocuments(student.Documents)))
}

// completenessReport renders the analysis as a short human readable block.
func completenessReport(c scoring.Completeness) string {
	var b strings.Builder

	fmt.Fprintf(&b, "document completeness: %d%%\n", c.Percentage)
	for _, category := range scoring.Categories() {
		mark := " "
		if c.Has(category) {
			mark = "x"
		}
		fmt.Fprintf(&b, "  [%s] %s\n", mark, strings.ReplaceAll(string(category), "_", " "))
	}
	fmt.Fprintf(&b, "essential documents: %t\n", c.HasEssentialDocs)
	fmt.Fprintf(&b, "competitive documents: %t\n", c.HasCompetitiveDocs)

	return b.String()
}

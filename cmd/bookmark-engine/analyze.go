// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/mpetrov/bookmark-engine/internal/source"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [urls...]",
	Short: "Classify URLs by content type",
	Long: `Analyze determines each URL's content type (github, youtube, twitter,
article, paper, reddit, or general) and the identifiers embedded in it, and
names the processing pipeline that would handle it.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

type urlReport struct {
	Analysis source.URLAnalysis `yaml:"analysis"`
	Pipeline string             `yaml:"pipeline"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more URLs to analyze")
	}

	reports := make([]urlReport, 0, len(args))
	for _, u := range args {
		analysis := source.AnalyzeURL(u)
		reports = append(reports, urlReport{
			Analysis: analysis,
			Pipeline: source.PipelineFor(analysis.ContentType),
		})
	}

	out, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	os.Stdout.Write(out)
	return nil
}

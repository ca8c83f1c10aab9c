// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/mpetrov/bookmark-engine/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "Inspect pipeline runs",
	Long: `Jobs lists recent pipeline runs, newest first. With a job id it shows
that run alone.`,
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().Int("limit", 20, "number of jobs to list")

	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg := engineConfig()
	ctx := cmd.Context()

	store, err := jobs.NewStore(cfg.Jobs)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		job, err := store.GetJob(ctx, args[0])
		if err != nil {
			return err
		}
		return printYAML(job)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	list, err := store.ListJobs(ctx, limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, "no jobs recorded")
		return nil
	}
	return printYAML(list)
}

func printYAML(v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	os.Stdout.Write(out)
	return nil
}

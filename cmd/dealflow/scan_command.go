package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"dealflow/internal/daemonrun"
	"dealflow/internal/reminders"
)

type scanPreview struct {
	Subject      string   `json:"subject,omitempty"`
	DealsDue     int      `json:"deals_due"`
	TasksDue     int      `json:"tasks_due"`
	TodosDue     int      `json:"todos_due"`
	OverdueDeals int      `json:"overdue_deals"`
	OverdueTasks int      `json:"overdue_tasks"`
	OverdueTodos int      `json:"overdue_todos"`
	Errors       []string `json:"errors,omitempty"`
	HTMLPath     string   `json:"html_path,omitempty"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var htmlOut string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the reminder scan now and email the digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireHubSpot(); err != nil {
				return err
			}
			c, err := ctx.components(daemonrun.BuildOptions{History: !dryRun})
			if err != nil {
				return err
			}
			defer c.Close()

			if dryRun {
				return runScanPreview(cmd, ctx, c.Scanner, htmlOut)
			}
			result := c.Scanner.RunDailyScan(cmd.Context())
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printScanResult(cmd, result)
			}
			if !result.Success {
				return fmt.Errorf("reminder scan failed: %s", result.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Scan and render the digest without sending or recording it")
	cmd.Flags().StringVar(&htmlOut, "html", "", "With --dry-run, write the rendered digest to this file")
	return cmd
}

func runScanPreview(cmd *cobra.Command, ctx *commandContext, scanner *reminders.Scanner, htmlOut string) error {
	report, subject, html, err := scanner.Preview(cmd.Context())
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}
	preview := scanPreview{
		Subject:      subject,
		DealsDue:     len(report.DealsTomorrow),
		TasksDue:     len(report.TasksTomorrow),
		TodosDue:     len(report.TodosTomorrow),
		OverdueDeals: len(report.OverdueDeals),
		OverdueTasks: len(report.OverdueTasks),
		OverdueTodos: len(report.OverdueTodos),
		Errors:       report.Errors,
	}
	if htmlOut != "" && html != "" {
		if err := os.WriteFile(htmlOut, []byte(html), 0o644); err != nil {
			return fmt.Errorf("write digest: %w", err)
		}
		preview.HTMLPath = htmlOut
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, preview)
	}

	out := cmd.OutOrStdout()
	if report.Total() == 0 {
		fmt.Fprintln(out, "Nothing due tomorrow and nothing overdue; no digest would be sent")
	} else {
		fmt.Fprintf(out, "Subject: %s\n", subject)
	}
	writeTable(out, []string{"Source", "Due tomorrow", "Overdue"}, [][]string{
		{"Deals", strconv.Itoa(preview.DealsDue), strconv.Itoa(preview.OverdueDeals)},
		{"Tasks", strconv.Itoa(preview.TasksDue), strconv.Itoa(preview.OverdueTasks)},
		{"To-dos", strconv.Itoa(preview.TodosDue), strconv.Itoa(preview.OverdueTodos)},
	}, 1, 2)
	for _, msg := range report.Errors {
		fmt.Fprintf(out, "Warning: %s\n", msg)
	}
	if preview.HTMLPath != "" {
		fmt.Fprintf(out, "Digest written to %s\n", preview.HTMLPath)
	}
	return nil
}

func printScanResult(cmd *cobra.Command, result reminders.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s\n", result.RunID, result.Message)
	fmt.Fprintf(out, "Email sent: %s", yesNo(result.EmailSent))
	if result.Transport != "" {
		fmt.Fprintf(out, " (%s)", result.Transport)
	}
	fmt.Fprintln(out)
	if result.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", result.Error)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(out, "Warning: %s\n", msg)
	}
}

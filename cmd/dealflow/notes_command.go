package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dealflow/internal/daemonrun"
	"dealflow/internal/workflow"
)

func newNotesCommand(ctx *commandContext) *cobra.Command {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Work with call notes",
	}
	notesCmd.AddCommand(newNotesProcessCommand(ctx))
	return notesCmd
}

func newNotesProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>",
		Short: "Parse a notes file into a preview without writing anything (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := readNotes(cmd, args[0])
			if err != nil {
				return err
			}
			c, err := ctx.components(daemonrun.BuildOptions{})
			if err != nil {
				return err
			}
			defer c.Close()
			if c.LLM == nil {
				return errors.New("llm.api_key is required to parse notes (set ANTHROPIC_API_KEY or run 'dealflow secrets set anthropic_api_key')")
			}

			preview, err := c.Workflow.ProcessNotes(cmd.Context(), notes)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, preview)
			}
			printPreview(cmd.OutOrStdout(), preview)
			return nil
		},
	}
}

func readNotes(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read notes: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("notes file is empty")
	}
	return string(data), nil
}

func printPreview(out io.Writer, p workflow.Preview) {
	fmt.Fprintf(out, "Company: %s\n", orDash(p.ParsedContact.CompanyName))
	fmt.Fprintf(out, "Person:  %s\n", orDash(p.ParsedContact.PersonName))
	if p.ParsedContact.Email != "" {
		fmt.Fprintf(out, "Email:   %s\n", p.ParsedContact.Email)
	}
	fmt.Fprintf(out, "Contact status: %s\n", p.ContactStatus)
	if len(p.HubSpotContacts) > 0 {
		rows := make([][]string, 0, len(p.HubSpotContacts))
		for _, contact := range p.HubSpotContacts {
			rows = append(rows, []string{contact.ID, contact.FullName(), contact.Email, contact.Company})
		}
		writeTable(out, []string{"ID", "Name", "Email", "Company"}, rows)
	}
	if p.NeedsContactCreation {
		fmt.Fprintln(out, "No matching HubSpot contact; one must be created before confirming")
	}

	if len(p.Summary) > 0 {
		fmt.Fprintln(out, "\nSummary:")
		for _, line := range p.Summary {
			fmt.Fprintf(out, "  - %s\n", line)
		}
	}
	if categories := p.Preferences.Categories(); len(categories) > 0 {
		fmt.Fprintln(out, "\nPreferences:")
		for _, category := range categories {
			fmt.Fprintf(out, "  %s: %s\n", category, strings.Join(p.Preferences.Values(category), ", "))
		}
	}
	if strings.TrimSpace(p.Preferences.Notes) != "" {
		fmt.Fprintf(out, "  Notes: %s\n", p.Preferences.Notes)
	}
	if len(p.Todos) > 0 {
		fmt.Fprintln(out, "\nTo-dos:")
		for _, todo := range p.Todos {
			line := "  - " + todo.TaskName
			if todo.DueDate != "" {
				line += " (due " + todo.DueDate + ")"
			}
			fmt.Fprintln(out, line)
		}
	}
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

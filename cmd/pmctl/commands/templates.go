package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var templatesAgent string

var templatesCmd = &cobra.Command{
	Use:   "templates [name]",
	Short: "List the agent's document templates or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTemplates,
}

func init() {
	templatesCmd.Flags().StringVar(&templatesAgent, "agent", "prd", "agent whose templates to list (prd or spec)")
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	agentType, err := parseAgentType(templatesAgent)
	if err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if len(args) == 0 {
		names, err := a.agent.Templates(ctx, agentType)
		if err != nil {
			return fmt.Errorf("list templates: %w", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}

	info, err := a.agent.Template(ctx, agentType, args[0])
	if err != nil {
		return fmt.Errorf("template %s: %w", args[0], err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", info.Name)
	fmt.Fprintf(tw, "Description:\t%s\n", info.Description)
	fmt.Fprintf(tw, "Sections:\t%s\n", strings.Join(info.Sections, ", "))
	fmt.Fprintf(tw, "Required:\t%s\n", strings.Join(info.RequiredSections, ", "))
	return tw.Flush()
}

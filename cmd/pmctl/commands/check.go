package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var validateTemplate string

var validateCmd = &cobra.Command{
	Use:   "validate <description...>",
	Short: "Ask the agent whether a product description is complete enough",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var agentConfigJSON bool

var agentConfigCmd = &cobra.Command{
	Use:   "agent-config",
	Short: "Show the agent service's model settings",
	RunE:  runAgentConfig,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the agent service is reachable",
	RunE:  runHealth,
}

func init() {
	validateCmd.Flags().StringVarP(&validateTemplate, "template", "t", "", "template to validate against")
	agentConfigCmd.Flags().BoolVar(&agentConfigJSON, "json", false, "print JSON instead of YAML")
	rootCmd.AddCommand(validateCmd, healthCmd, agentConfigCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.agent.Validate(cmd.Context(), strings.Join(args, " "), validateTemplate)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	verdict := color.New(color.FgGreen).Sprint("sufficient")
	if !res.IsSufficient {
		verdict = color.New(color.FgYellow).Sprint("needs more detail")
	}
	fmt.Printf("%s (completeness %.0f%%)\n", verdict, res.CompletenessScore*100)
	for _, m := range res.MissingInfo {
		fmt.Printf("  - %s\n", m)
	}
	return nil
}

func runHealth(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.agent.Health(cmd.Context()); err != nil {
		return fmt.Errorf("agent at %s: %w", a.cfg.Client.AgentURL, err)
	}
	color.New(color.FgGreen).Printf("✓ agent at %s is healthy\n", a.cfg.Client.AgentURL)
	return nil
}

func runAgentConfig(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg, err := a.agent.Config(cmd.Context())
	if err != nil {
		return fmt.Errorf("agent at %s: %w", a.cfg.Client.AgentURL, err)
	}
	if agentConfigJSON {
		return printJSONLine(cfg)
	}
	return writeYAML(os.Stdout, cfg)
}

// writeYAML prints v as YAML with keys in sorted order.
func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/PMForge/internal/adapter/terminal"
	"github.com/Strob0t/PMForge/internal/domain/project"
)

var (
	newProjectDesc string
	projectsJSON   bool
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	RunE:  runProjects,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsCreate,
}

func init() {
	projectsCmd.Flags().BoolVar(&projectsJSON, "json", false, "print JSON instead of a table")
	projectsCreateCmd.Flags().StringVarP(&newProjectDesc, "description", "d", "", "project description")
	projectsCmd.AddCommand(projectsCreateCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	ps, err := a.api.ListProjects(cmd.Context())
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if projectsJSON {
		return printJSONLine(ps)
	}
	return terminal.Projects(os.Stdout, ps)
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.api.CreateProject(cmd.Context(), project.CreateRequest{Name: args[0], Description: newProjectDesc})
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	fmt.Println(p.ID)
	return nil
}

func printJSONLine(v any) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}

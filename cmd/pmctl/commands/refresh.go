package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Strob0t/PMForge/internal/adapter/terminal"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/workspace"
)

var refreshTab string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch a project and print its documents",
	Long: `Fetch the project, its PRD and its Spec in parallel and print the
selected document. Parts that fail to load are reported; the others are
still shown.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().StringVar(&refreshTab, "show", "prd", "document to print (prd or spec)")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	pid, err := requireProject()
	if err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	docs := workspace.NewDocumentWorkspace(pid, a.api, a.alerts)
	defer workspace.Attach(a.bus, docs)()

	res := a.refresher.RefreshAs(cmd.Context(), pid, update.SourceAPI)
	if res.Project != nil {
		fmt.Printf("Project: %s\n\n", res.Project.Name)
	}
	docs.SetTab(workspace.Tab(refreshTab))
	terminal.Documents(os.Stdout, docs.State())

	if !res.OK() {
		return fmt.Errorf("refresh incomplete: %s", strings.Join(res.Errors, "; "))
	}
	return nil
}

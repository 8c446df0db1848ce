package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/storage"
)

// defaultDBPath is the default database path, can be overridden via ESTATE_DB_PATH env var
var defaultDBPath = "./data/estate.db"

func init() {
	if envPath := os.Getenv("ESTATE_DB_PATH"); envPath != "" {
		defaultDBPath = envPath
	}
}

var (
	projectDBPath string
	projectForce  bool
)

// projectCmd represents the project command group
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project inspection commands",
	Long: `Commands for inspecting estate projects.

These commands operate directly on the database file. Stop the server
before deleting projects, or it will write them back on the next change.

Examples:
  # List all projects
  estatectl project list

  # Show one project with its publish history
  estatectl project show 3f1c...

  # Delete a project
  estatectl project delete 3f1c... --force`,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProjectDB()
		if err != nil {
			return err
		}
		defer store.Close()

		projects, err := store.Projects().List(context.Background())
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		if GetOutput() == "json" {
			return printJSON(projects)
		}
		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		fmt.Printf("\n%-36s  %-24s  %-12s  %-7s  %-7s  %-5s  %s\n",
			"ID", "LOCATION", "STYLE", "RENDER", "TEXT", "POSTS", "CREATED")
		fmt.Println(strings.Repeat("-", 115))
		for _, p := range projects {
			fmt.Printf("%-36s  %-24s  %-12s  %-7s  %-7s  %-5d  %s\n",
				p.ID,
				truncate(orDash(p.Attributes.Location), 24),
				p.Style,
				p.RenderStatus,
				p.TextStatus,
				len(p.Publications),
				p.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		fmt.Printf("\nTotal: %d project(s)\n", len(projects))
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show project details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProjectDB()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.Projects().GetByID(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		if p == nil {
			return fmt.Errorf("project not found: %s", args[0])
		}

		if GetOutput() == "json" {
			return printJSON(p)
		}
		printProject(p)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project and its publish history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProjectDB()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		p, err := store.Projects().GetByID(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		if p == nil {
			return fmt.Errorf("project not found: %s", args[0])
		}

		if !projectForce {
			fmt.Printf("Delete project %s (%s) with %d publication(s)? [y/N]: ",
				p.ID, orDash(p.Attributes.Location), len(p.Publications))
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := store.Projects().Delete(ctx, p.ID); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		fmt.Printf("Project deleted: %s\n", p.ID)
		return nil
	},
}

func init() {
	projectCmd.PersistentFlags().StringVar(&projectDBPath, "db", defaultDBPath, "database path")
	projectDeleteCmd.Flags().BoolVarP(&projectForce, "force", "f", false, "skip confirmation")

	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}

func openProjectDB() (*storage.SQLiteStorage, error) {
	if _, err := os.Stat(projectDBPath); err != nil {
		return nil, fmt.Errorf("database at %s: %w", projectDBPath, err)
	}
	store := storage.NewSQLiteStorage(projectDBPath)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open database at %s: %w", projectDBPath, err)
	}
	PrintVerbose("opened %s", projectDBPath)
	return store, nil
}

func printProject(p *models.Project) {
	a := p.Attributes
	fmt.Printf("\nProject %s\n", p.ID)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("  Type:       %s\n", orDash(string(a.PropertyType)))
	fmt.Printf("  Bedrooms:   %s\n", orDash(a.Bedrooms))
	fmt.Printf("  Bathrooms:  %s\n", orDash(a.Bathrooms))
	fmt.Printf("  Size:       %s %s\n", orDash(a.Size), a.SizeUnit)
	fmt.Printf("  Location:   %s\n", orDash(a.Location))
	fmt.Printf("  Tower:      %s\n", orDash(a.Tower))
	fmt.Printf("  Price:      %s %s\n", orDash(a.Price), a.Currency)
	fmt.Printf("  Style:      %s\n", p.Style)
	fmt.Printf("  Locale:     %s\n", p.Locale)
	fmt.Printf("  Created:    %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("  Render:     %s%s\n", p.RenderStatus, artifactNote(p.Render))
	fmt.Printf("  Text:       %s%s\n", p.TextStatus, artifactNote(p.Text))
	if p.Text != nil {
		fmt.Printf("\n%s\n", p.Text.Value)
	}

	if len(p.Publications) == 0 {
		return
	}
	fmt.Printf("\nPublications:\n")
	for _, r := range p.Publications {
		line := fmt.Sprintf("  %s  %-36s  %-9s", r.Timestamp.Format("2006-01-02 15:04"), r.ChannelID, r.Outcome)
		if r.Error != "" {
			line += "  " + truncate(r.Error, 40)
		}
		fmt.Println(line)
	}
}

func artifactNote(a *models.Artifact) string {
	if a == nil {
		return ""
	}
	note := fmt.Sprintf(" (%s", a.Provenance)
	if a.Model != "" {
		note += ", " + a.Model
	}
	if a.FallbackReason != "" {
		note += ", " + a.FallbackReason
	}
	return note + ")"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-2]) + ".."
}

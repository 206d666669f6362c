package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/spf13/cobra"

	"github.com/EZ-CORE/EZ-GEN/internal/config"
	"github.com/EZ-CORE/EZ-GEN/internal/database"
	"github.com/EZ-CORE/EZ-GEN/internal/models"
)

var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "List recorded generation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		if config.Current.DatabaseURL == "" {
			return fmt.Errorf("no DATABASE_URL configured; the build registry is disabled")
		}
		if err := database.Connect(config.Current.DatabaseURL); err != nil {
			return fmt.Errorf("connecting to registry: %w", err)
		}
		var records []models.BuildRecord
		if err := database.DB.Order("created_at desc").Limit(50).Find(&records).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no builds recorded yet")
			return nil
		}

		rows := make([][]interface{}, 0, len(records))
		for _, r := range records {
			var artifacts []string
			_ = json.Unmarshal(r.Artifacts, &artifacts)
			rows = append(rows, []interface{}{
				r.ID[:8],
				r.AppName,
				r.PackageName,
				r.State,
				strings.Join(artifacts, ", "),
				r.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		t := gotabulate.Create(rows)
		t.SetHeaders([]string{"id", "app", "package", "state", "artifacts", "created"})
		t.SetAlign("left")
		fmt.Println(t.Render("simple"))
		return nil
	},
}

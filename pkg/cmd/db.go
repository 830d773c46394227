package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/uachado/uachado/pkg/configs"
	"github.com/uachado/uachado/pkg/internal/model"
	"github.com/uachado/uachado/pkg/internal/storage/db"
	"github.com/uachado/uachado/pkg/internal/types"
)

// seedImages 演示数据中每个类别对应的图片对象键.
var seedImages = map[string]string{
	"Tablets":             "tablet.jpeg",
	"Carregadores":        "carregador.jpeg",
	"Telemóveis":          "telemovel.jpeg",
	"Auscultadores/Fones": "auscultadores.jpeg",
	"Portáteis":           "portateis.jpeg",
}

// seedCounts 每个类别生成的演示物品数.
var seedCounts = map[string]int{
	"Tablets":             8,
	"Carregadores":        7,
	"Telemóveis":          8,
	"Auscultadores/Fones": 6,
	"Portáteis":           7,
}

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:   "ls",
		Short: "list all registered database types",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")
			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+string(dbType))
			}
		},
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "run schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openDB(cmd)
			if err != nil {
				return err
			}

			if err := client.AutoMigrate(&model.Item{}); err != nil {
				return fmt.Errorf("migrate failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")

			return nil
		},
	}

	dbSeedCmd = &cobra.Command{
		Use:   "seed",
		Short: "load demo items into an empty items table",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openDB(cmd)
			if err != nil {
				return err
			}

			if err := client.AutoMigrate(&model.Item{}); err != nil {
				return fmt.Errorf("migrate failed: %w", err)
			}

			var count int64
			if err := client.Model(&model.Item{}).Count(&count).Error; err != nil {
				return err
			}

			if count > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "items table is not empty, skipping seed")

				return nil
			}

			items := seedItems()
			if err := client.Create(&items).Error; err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items\n", len(items))

			return nil
		},
	}
)

// openDB 初始化配置并建立数据库连接.
func openDB(cmd *cobra.Command) (*db.Client, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, err
	}

	return db.New(cmd.Context(), &configs.GetConfig().DB)
}

// seedItems 生成演示数据：全部处于在存状态，集中在取物点 1.
func seedItems() []model.Item {
	now := time.Now()
	point := 1

	items := make([]model.Item, 0, 36)

	for _, tag := range types.TagCatalog {
		image := seedImages[tag]

		for range seedCounts[tag] {
			items = append(items, model.Item{
				Description:    "description_opt",
				Tag:            tag,
				Image:          &image,
				State:          model.StateStored,
				DropoffPointID: &point,
				InsertionDate:  now,
			})
		}
	}

	return items
}

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbSeedCmd)
}

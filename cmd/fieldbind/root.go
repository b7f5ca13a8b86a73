package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/nikitaxru/fieldbind"
)

// app хранит состояние одного запуска: путь к конфигу и загруженный конфиг.
type app struct {
	configPath string
	cfg        fieldbind.Config
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: fieldbind.DefaultConfig()}
	root := &cobra.Command{
		Use:   "fieldbind",
		Short: "Поля шаблонов и сборка данных из таблиц key/value",
		Long: `fieldbind находит пути данных, которые читает шаблон (Handlebars,
text/template или книга Excel), выдаёт пустую таблицу key/value для заполнения
и собирает из заполненной таблицы вложенное дерево данных под этот шаблон.`,
		PersistentPreRunE: a.loadConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML-конфиг (словари, приведение, max_index)")

	root.AddCommand(
		newFieldsCmd(a),
		newBlankCmd(a),
		newAssembleCmd(a),
		newRenderCmd(a),
		newFlattenCmd(a),
	)
	return root
}

func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	if a.configPath == "" {
		return nil
	}
	cfg, err := fieldbind.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	log.Printf("⚙️ Конфиг: %s", a.configPath)
	a.cfg = cfg
	return nil
}

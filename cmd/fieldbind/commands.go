package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikitaxru/fieldbind"
)

func newFieldsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <template>",
		Short: "Вывести пути данных, которые читает шаблон",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := fieldbind.LoadTemplate(args[0])
			if err != nil {
				return err
			}
			tmpl.Dialect = a.cfg.Dialect(tmpl.Kind)
			fields, err := tmpl.Fields()
			if err != nil {
				return err
			}
			for _, f := range fields {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}

func newBlankCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "blank <template>",
		Short: "Пустая таблица key,value,comment по полям шаблона",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				return fieldbind.WriteBlankFile(args[0], output, a.cfg)
			}
			tmpl, err := fieldbind.LoadTemplate(args[0])
			if err != nil {
				return err
			}
			tmpl.Dialect = a.cfg.Dialect(tmpl.Kind)
			fields, err := tmpl.Fields()
			if err != nil {
				return err
			}
			return fieldbind.WriteBlankTable(cmd.OutOrStdout(), fields)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "файл .csv или .xlsx (по умолчанию CSV в stdout)")
	return cmd
}

func newAssembleCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "assemble <template> <data.csv|data.xlsx>",
		Short: "Собрать JSON-дерево данных под шаблон",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := fieldbind.BindFiles(args[0], args[1], a.cfg)
			if err != nil {
				return err
			}
			return withOutput(cmd, output, func(w io.Writer) error {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(tree)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "файл JSON (по умолчанию stdout)")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render <template> <data.csv|data.xlsx>",
		Short: "Собрать данные и отрендерить текстовый шаблон",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fieldbind.RenderFiles(args[0], args[1], output, a.cfg)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "файл результата")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newFlattenCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "flatten <data.json|->",
		Short: "Разложить JSON в таблицу key,value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			tree, err := fieldbind.DecodeJSON(in)
			if err != nil {
				return err
			}
			rows := fieldbind.Flatten(tree)
			return withOutput(cmd, output, func(w io.Writer) error {
				return fieldbind.WriteRows(w, rows)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "файл CSV (по умолчанию stdout)")
	return cmd
}

// withOutput пишет в файл, если он задан, иначе в stdout команды.
func withOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

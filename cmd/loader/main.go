// Package main - CLI для работы с файлами эмбеддингов: проверка формы, индексация в Qdrant и классификация.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/DRSN-tech/medical-ann/internal/embedding"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "loader",
	Short: "Embedding CSV loader",
	Long: `loader читает CSV файлы эмбеддингов без заголовка (одна строка на вектор)
и умеет индексировать их в Qdrant для классификации по k ближайшим соседям.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(shapeCmd)
}

var shapeCmd = &cobra.Command{
	Use:   "shape <csv>",
	Short: "Load a CSV file and print the matrix shape",
	Long: `Загружает CSV файл эмбеддингов и печатает размер матрицы.

Examples:
  loader shape Normal_embeddings.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printShape(cmd.OutOrStdout(), args[0])
	},
}

func printShape(w io.Writer, path string) error {
	m, err := embedding.Load(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	rows, cols := m.Shape()
	fmt.Fprintf(w, "Loaded embeddings with shape: (%d, %d)\n", rows, cols)
	return nil
}

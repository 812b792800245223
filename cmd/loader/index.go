package main

import (
	"context"
	"fmt"
	"io"

	config "github.com/DRSN-tech/medical-ann/internal/cfg"
	"github.com/DRSN-tech/medical-ann/internal/domain"
	"github.com/DRSN-tech/medical-ann/internal/embedding"
	qdrantRepo "github.com/DRSN-tech/medical-ann/internal/repository/qdrant"
	"github.com/DRSN-tech/medical-ann/internal/usecase"
	"github.com/DRSN-tech/medical-ann/pkg/clients"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/spf13/cobra"
)

var neighbors int

func init() {
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().IntVarP(&neighbors, "neighbors", "k", usecase.DefaultNeighbors,
		fmt.Sprintf("number of nearest neighbours (%d..%d)", usecase.MinNeighbors, usecase.MaxNeighbors))
}

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index every <Class>_embeddings.csv of a directory into Qdrant",
	Long: `Загружает все файлы <Class>_embeddings.csv каталога и записывает строки в коллекцию Qdrant
с меткой класса. Подключение задаётся переменными QDRANT_*.

Examples:
  QDRANT_HOST=localhost loader index ./embeddings`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <csv>",
	Short: "Classify the first row of a CSV file by k-NN majority vote",
	Long: `Берёт первую строку CSV как вектор запроса, ищет k ближайших соседей в Qdrant
и печатает метку большинства.

Examples:
  loader classify query.csv -k 10`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func runIndex(cmd *cobra.Command, args []string) error {
	classes, err := embedding.LoadClasses(args[0])
	if err != nil {
		return fmt.Errorf("load classes: %w", err)
	}
	if len(classes) == 0 {
		return fmt.Errorf("no *%s files in %s", embedding.ClassFileSuffix, args[0])
	}

	return withIndex(cmd, func(ctx context.Context, uc usecase.IndexUC) error {
		n, err := uc.IndexClasses(ctx, classes)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, label := range classes.Labels() {
			rows, cols := classes[label].Shape()
			fmt.Fprintf(out, "%s: (%d, %d)\n", domain.PrettyLabel(label), rows, cols)
		}
		fmt.Fprintf(out, "Indexed %d vectors\n", n)
		return nil
	})
}

func runClassify(cmd *cobra.Command, args []string) error {
	m, err := embedding.Load(args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	if m.Rows() == 0 {
		return fmt.Errorf("%s has no rows", args[0])
	}

	return withIndex(cmd, func(ctx context.Context, uc usecase.IndexUC) error {
		result, err := uc.Classify(ctx, m.Row(0), neighbors)
		if err != nil {
			return err
		}

		printClassification(cmd.OutOrStdout(), result)
		return nil
	})
}

// cliLogger пишет логи в stderr команды, stdout остаётся для результата.
func cliLogger(cmd *cobra.Command) logger.Logger {
	return logger.NewSlogLoggerTo(cmd.ErrOrStderr())
}

// withIndex открывает соединение с Qdrant на время выполнения fn.
func withIndex(cmd *cobra.Command, fn func(ctx context.Context, uc usecase.IndexUC) error) error {
	log := cliLogger(cmd)

	qcfg, err := config.LoadQdrant(log)
	if err != nil {
		return err
	}

	client, err := clients.NewQdrantClient(qcfg)
	if err != nil {
		return err
	}
	defer client.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, qcfg.Timeout)
	defer cancel()

	uc := usecase.NewIndexUC(qdrantRepo.NewEmbeddingRepo(client.Client, qcfg), log)
	return fn(ctx, uc)
}

func printClassification(w io.Writer, c *domain.Classification) {
	fmt.Fprintf(w, "Predicted class: %s\n", domain.PrettyLabel(c.Label))
	for _, lc := range c.Counts {
		fmt.Fprintf(w, "  %s: %d\n", domain.PrettyLabel(lc.Label), lc.Count)
	}
}

// Command ecobot talks to the predictor service from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"EcoFinds/internal/predict"
)

const defaultPredictURL = "http://127.0.0.1:5000"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:           "ecobot",
		Short:         "Query the EcoFinds predictor",
		SilenceUsage: true,
	}

	def := os.Getenv("PREDICT_URL")
	if def == "" {
		def = defaultPredictURL
	}
	root.PersistentFlags().StringVar(&baseURL, "url", def, "predictor base url")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")

	client := func() *predict.Client { return predict.NewClient(baseURL, timeout) }

	var price float64
	trust := &cobra.Command{
		Use:   "trust",
		Short: "Score how trustworthy a price looks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			score, err := client().TrustScore(cmd.Context(), price)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "trust score: %.2f\n", score)
			return nil
		},
	}
	trust.Flags().Float64Var(&price, "price", 0, "listing price")
	_ = trust.MarkFlagRequired("price")

	var file string
	category := &cobra.Command{
		Use:   "category",
		Short: "Suggest a category for a product image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			c, err := client().PredictCategory(cmd.Context(), filepath.Base(file), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "category: %s (confidence %.2f)\n", c.Category, c.Confidence)
			return nil
		},
	}
	category.Flags().StringVar(&file, "file", "", "image file")
	_ = category.MarkFlagRequired("file")

	chat := &cobra.Command{
		Use:   "chat <message...>",
		Short: "Ask the assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client().Chat(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	root.AddCommand(trust, category, chat)
	return root
}

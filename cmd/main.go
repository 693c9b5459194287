package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	appconfig "github.com/veenjenga/Hands-and-Hope-sub001/internal/config"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/intent"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/slots"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/textnorm"
	"github.com/veenjenga/Hands-and-Hope-sub001/pkg/runtime"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "voicelistd",
		Short:         "Voice assistant for marketplace product listings",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to conf.yaml (default: search from the working directory)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the voice WebSocket server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "classify <text>",
			Short: "Print the command recognized in an utterance",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := appconfig.LoadConfig(configPath)
				if err != nil {
					return err
				}
				return runClassify(cmd.OutOrStdout(), cfg, strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "extract <text>",
			Short: "Print the product fields found in an utterance",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := appconfig.LoadConfig(configPath)
				if err != nil {
					return err
				}
				return runExtract(cmd.OutOrStdout(), cfg, strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration with secrets redacted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := appconfig.LoadConfig(configPath)
				if err != nil {
					return err
				}
				return runConfig(cmd.OutOrStdout(), cfg)
			},
		},
	)
	return root
}

func runServe(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := runtime.New(configPath)
	if err != nil {
		return err
	}
	logger := srv.Logger()
	defer logger.Sync()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func runClassify(w io.Writer, cfg appconfig.Config, text string) error {
	opts := []intent.Option{intent.WithAddProductRoute(cfg.Voice.AddProductRoute)}
	if len(cfg.Voice.Routes) > 0 {
		opts = append(opts, intent.WithRoutes(cfg.Voice.Routes))
	}
	action := intent.New(opts...).Classify(textnorm.Transcript(text))
	return writeJSON(w, action)
}

func runExtract(w io.Writer, cfg appconfig.Config, text string) error {
	draft := slots.NewExtractor(cfg.Voice.Categories).Extract(textnorm.Transcript(text))
	return writeJSON(w, draft)
}

func runConfig(w io.Writer, cfg appconfig.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

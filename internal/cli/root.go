// Package cli 命令行入口：在终端里抓取并标注页面，或把任务投递到队列
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newsflow/go-annotator-service/internal/config"
	"github.com/newsflow/go-annotator-service/internal/extractor"
	"github.com/newsflow/go-annotator-service/internal/fetcher"
	"github.com/newsflow/go-annotator-service/internal/resolver"
)

type rootOptions struct {
	file       string
	base       string
	sterile    bool
	reader     bool
	strategy   string
	configPath string
}

// NewRootCmd 创建根命令
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "annotate [url]",
		Short: "Annotate a web page for fast reading",
		Long: `Fetches a page, strips it down to plain text and links,
points every link at an absolute address and wraps long words in <strong>.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read the page from a local HTML file instead of fetching it")
	cmd.Flags().StringVar(&opts.base, "base", "", "page address used to resolve links (required with --file)")
	cmd.Flags().BoolVar(&opts.sterile, "sterile", false, "print the sterilized page without rewriting links or emphasis")
	cmd.PersistentFlags().BoolVar(&opts.reader, "reader", false, "extract the main article before sterilizing")
	cmd.PersistentFlags().StringVar(&opts.strategy, "strategy", fetcher.StrategyAuto, "fetch strategy: auto, cycletls or standard")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file")

	cmd.AddCommand(newEnqueueCmd(opts))

	return cmd
}

// Execute 运行命令行
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func runAnnotate(cmd *cobra.Command, args []string, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	page, base, err := loadPage(cmd.Context(), cfg, args, opts)
	if err != nil {
		return err
	}

	extractOpts := extractor.Options{ReaderMode: opts.reader || cfg.ReaderMode}
	ext := extractor.New()

	var result *extractor.Result
	if opts.sterile {
		result, err = ext.Sterilize(page, base, extractOpts)
	} else {
		result, err = ext.Annotate(page, base, extractOpts)
	}
	if err != nil {
		return fmt.Errorf("could not process this page: %w", err)
	}

	out := result.Content
	if opts.sterile {
		out = result.Sterile
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// loadPage 读取页面源码，返回源码和链接基准地址
func loadPage(ctx context.Context, cfg *config.Config, args []string, opts *rootOptions) (string, string, error) {
	if opts.file != "" {
		if len(args) > 0 {
			return "", "", errors.New("pass either a url or --file, not both")
		}
		if !resolver.IsStrictURL(opts.base) {
			return "", "", errors.New("--file requires --base with an absolute http(s) url")
		}
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", "", fmt.Errorf("read page: %w", err)
		}
		return string(data), opts.base, nil
	}

	if len(args) == 0 {
		return "", "", errors.New("a link is required")
	}
	target := args[0]
	if !resolver.IsStrictURL(target) {
		return "", "", fmt.Errorf("not sure this link is valid: %q", target)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	f, err := fetcher.New(cfg)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	result := f.Fetch(ctx, target, opts.strategy)
	if result.Error != nil {
		return "", "", fmt.Errorf("could not connect to %s: %w", target, result.Error)
	}

	base := target
	if resolver.IsStrictURL(result.FinalURL) {
		base = result.FinalURL
	}
	return result.HTML, base, nil
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"zipier/internal/logger"
	"zipier/internal/webhook"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("hookctl")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "hookctl",
		Short:         "Compile and fire webhook action configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newRunCmd(v), newSchemaCmd())
	return root
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	var (
		method     string
		configPath string
		timeout    time.Duration
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send the webhook described by a configuration file",
		Example: `  hookctl run --method post --config action.json
  cat action.json | hookctl run -m get -c -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readConfig(cmd.InOrStdin(), configPath)
			if err != nil {
				return err
			}
			cfg, err := webhook.ParseConfig(method, raw)
			if err != nil {
				return err
			}

			log, err := logger.New(logger.Config{Level: v.GetString("log_level"), Output: "stderr"})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			compiler := webhook.NewCompiler(log, webhook.WithTimeout(timeout))
			if dryRun {
				req, err := compiler.Compile(cfg)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), describe(req))
			}

			res, err := compiler.Send(cmd.Context(), cfg)
			var failure *webhook.FailureError
			if errors.As(err, &failure) {
				fmt.Fprintf(cmd.ErrOrStderr(), "HTTP %d\n%s\n", failure.StatusCode, failure.RawBody)
				return fmt.Errorf("webhook failed with status %d", failure.StatusCode)
			}
			if err != nil {
				return err
			}

			log.Debug("webhook succeeded", zap.Int("status", res.StatusCode))
			if raw, ok := res.Body.([]byte); ok {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return err
			}
			return printJSON(cmd.OutOrStdout(), res.Body)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "post", "hook type: get, post or put")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration JSON file, or - for stdin")
	cmd.Flags().DurationVar(&timeout, "timeout", webhook.DefaultTimeout, "request timeout")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the compiled request without sending it")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <get|post|put>",
		Short: "Print the editor schema for a hook type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), webhook.Schema(webhook.ParseMethod(args[0])))
		},
	}
}

func readConfig(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return raw, nil
}

// describe renders a compiled request for --dry-run output.
func describe(req *webhook.Request) map[string]any {
	out := map[string]any{
		"method":  req.Method,
		"url":     req.URL,
		"headers": req.Headers,
	}
	if req.Body != nil {
		out["payloadType"] = req.Body.Type
		if req.Body.Form != nil {
			out["form"] = req.Body.Form
		} else {
			out["body"] = string(req.Body.Bytes)
		}
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

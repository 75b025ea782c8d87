package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/maastricht-university/slidefuse/config"
	"github.com/maastricht-university/slidefuse/export"
	"github.com/maastricht-university/slidefuse/orchestrator"
)

type app struct {
	v          *viper.Viper
	configPath string
	conf       *cfg.Root
	log        *logrus.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: logrus.New()}

	root := &cobra.Command{
		Use:          "slidefuse",
		Short:        "Fuse on-screen text and speech into transcript slides",
		Version:      cfg.Default().Pipeline.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default config/$CONFIG_ENV/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("pipeline.log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(a.fuseCmd(), a.runCmd(), a.watchCmd(), a.configCmd())
	return root
}

func (a *app) load() error {
	conf, err := cfg.Load(a.configPath, a.v)
	if err != nil {
		return err
	}
	a.conf = conf

	a.log.SetOutput(os.Stderr)
	a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	lvl, err := logrus.ParseLevel(conf.Pipeline.LogLvl)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.log.SetLevel(lvl)
	return nil
}

func (a *app) fuseCmd() *cobra.Command {
	var framesPath, tokensPath, bundlePath, outDir string
	cmd := &cobra.Command{
		Use:   "fuse",
		Short: "Fuse local frame and token files",
		Example: `  slidefuse fuse --frames frames.json --tokens tokens.json
  slidefuse fuse --bundle ad.bundle.json --out out/ --format srt,md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if framesPath == "" && tokensPath == "" && bundlePath == "" {
				return errors.New("need --bundle, or at least one of --frames and --tokens")
			}
			var in orchestrator.Streams
			var err error
			if bundlePath != "" {
				if in, err = orchestrator.LoadBundle(bundlePath); err != nil {
					return err
				}
			}
			if framesPath != "" {
				if in.Frames, err = orchestrator.LoadFrames(framesPath); err != nil {
					return err
				}
			}
			if tokensPath != "" {
				if in.Tokens, err = orchestrator.LoadTokens(tokensPath); err != nil {
					return err
				}
			}

			res := orchestrator.NewPipeline(a.conf, a.log).Process(cmd.Context(), in)
			if outDir == "" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			base := filepath.Join(outDir, "slides")
			if err := export.WriteAll(base, &res, a.conf.Export.Formats); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d slides (%s) to %s\n", len(res.Slides), res.ContentType, outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&framesPath, "frames", "", "OCR frames JSON (array or OCR service answer)")
	cmd.Flags().StringVar(&tokensPath, "tokens", "", "speech tokens JSON (array or ASR service answer)")
	cmd.Flags().StringVar(&bundlePath, "bundle", "", "bundle JSON with frames and tokens")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write exports here instead of printing JSON")
	cmd.Flags().StringSlice("format", nil, "export formats: "+fmt.Sprint(export.Formats))
	_ = a.v.BindPFlag("export.formats", cmd.Flags().Lookup("format"))
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Collect OCR and speech for a video from the services and fuse them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := orchestrator.NewPipeline(a.conf, a.log).Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.Dir)
			if sess.PublishedURL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), sess.PublishedURL)
			}
			return nil
		},
	}
	cmd.Flags().String("outputs", "", "sessions root (default paths.outputs)")
	_ = a.v.BindPFlag("paths.outputs", cmd.Flags().Lookup("outputs"))
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Fuse every *.bundle.json dropped into an inbox directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.conf.Paths.Inbox
			if len(args) == 1 {
				dir = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			inbox, err := orchestrator.NewPipeline(a.conf, a.log).OpenInbox(dir)
			if err != nil {
				return err
			}
			inbox.OnSession = func(path string, s *orchestrator.Session) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", filepath.Base(path), s.Dir)
			}
			return inbox.Run(ctx)
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.conf.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

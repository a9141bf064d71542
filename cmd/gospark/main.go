// GoSpark — local workspace engine for versioned notes, wikilink graphs
// and task boards.
//
// Usage:
//
//	gospark serve            Start the local HTTP API
//	gospark mcp              Start the MCP server (stdio transport)
//	gospark export           Write a JSON snapshot to stdout or a file
//	gospark import <file>    Replace all data with a snapshot
//	gospark check            Audit workspace tree integrity
//	gospark version          Print version information
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notionspark/gospark/internal/engine"
	"github.com/notionspark/gospark/internal/httpapi"
	"github.com/notionspark/gospark/internal/mcp"
	"github.com/notionspark/gospark/internal/store"
	syncq "github.com/notionspark/gospark/internal/sync"
	"github.com/notionspark/gospark/pkg/config"
	"github.com/notionspark/gospark/pkg/templates"
)

const version = "0.1.0"

var (
	cfgPath string
	cfg     *config.Config
	log     = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gospark",
		Short:         "Local workspace engine for notes, links and tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file (default: searched)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		log.SetOutput(os.Stderr)
		level, err := logrus.ParseLevel(cfg.Logging.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		log.SetLevel(level)
		if cfg.Logging.Format == "json" {
			log.SetFormatter(&logrus.JSONFormatter{})
		}
		return nil
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openEngine() (*engine.Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	st, err := store.NewSQLiteStoreWithDSN(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	queue, err := syncq.NewFileQueue(cfg.Sync.QueuePath, cfg.Sync.QueueCapacity)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open sync queue: %w", err)
	}

	reg, err := templates.NewRegistry()
	if err != nil {
		st.Close()
		return nil, err
	}
	if cfg.TemplatesPath != "" {
		data, err := os.ReadFile(cfg.TemplatesPath)
		if err != nil {
			if !os.IsNotExist(err) {
				st.Close()
				return nil, fmt.Errorf("failed to read templates: %w", err)
			}
		} else {
			n, err := reg.LoadCustom(data)
			if err != nil {
				st.Close()
				return nil, err
			}
			log.WithField("count", n).Info("loaded user templates")
		}
	}

	return engine.New(engine.Options{
		Store:     st,
		Tracker:   syncq.NewTracker(queue, nil, log),
		Templates: reg,
		CacheSize: cfg.Cache.Size,
		CacheTTL:  cfg.Cache.TTL,
		Log:       log,
	})
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           httpapi.NewServer(e, log),
				ReadHeaderTimeout: 10 * time.Second,
			}
			log.WithField("addr", cfg.HTTPAddr).Info("gospark listening")
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func newMCPCmd() *cobra.Command {
	var tools string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			// Logs must not pollute the stdio transport.
			log.SetOutput(os.Stderr)
			srv := mcp.NewServerWithTools(e, mcp.ResolveTools(tools))
			return mcpserver.ServeStdio(srv)
		},
	}
	cmd.Flags().StringVar(&tools, "tools", "", "Tool profiles or names to register (notes, tasks, or specific tool names; default all)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of all workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			data, err := e.Export()
			if err != nil {
				return err
			}
			if out == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
			log.WithField("path", out).Info("snapshot written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the snapshot to a file instead of stdout")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}

			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.Import(data); err != nil {
				return err
			}
			log.WithField("path", args[0]).Info("snapshot imported")
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Audit tree integrity across all workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			workspaces, err := e.ListWorkspaces()
			if err != nil {
				return err
			}
			clean := true
			for _, ws := range workspaces {
				report, err := e.CheckIntegrity(ws.ID)
				if err != nil {
					return err
				}
				if report.OK() {
					fmt.Printf("%s: ok\n", ws.Name)
					continue
				}
				clean = false
				fmt.Printf("%s: %d cycles, %d orphans, %d duplicate names\n",
					ws.Name, len(report.Cycles), len(report.OrphanParents), len(report.DuplicateNames))
			}
			if !clean {
				return fmt.Errorf("integrity problems found")
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gospark %s\n", version)
		},
	}
}

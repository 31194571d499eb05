package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/codenav/codenav/internal/config"
	"github.com/codenav/codenav/internal/diagnostics"
	"github.com/codenav/codenav/internal/mcp"
	"github.com/codenav/codenav/internal/provider/csharp"
	"github.com/codenav/codenav/internal/query"
	"github.com/codenav/codenav/internal/types"
	"github.com/codenav/codenav/internal/version"

	"github.com/urfave/cli/v2"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	// If root is specified and config path is default, look for config in root directory
	if rootFlag := c.String("root"); rootFlag != "" && configPath == config.ConfigFileName {
		configPath = filepath.Join(rootFlag, config.ConfigFileName)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Workspace.Root = absRoot
	}

	return cfg, nil
}

// loadWorkspace builds the C# workspace provider for the configured root
func loadWorkspace(ctx context.Context, cfg *config.Config) (*csharp.Workspace, error) {
	ws, err := csharp.Load(ctx, cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("loading workspace %s: %w", cfg.Workspace.Root, err)
	}
	return ws, nil
}

func newEngine(ctx context.Context, cfg *config.Config) (*query.Engine, *csharp.Workspace, error) {
	ws, err := loadWorkspace(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	engine := query.NewEngine(ws)
	engine.Locator().WithFuzzyThreshold(cfg.Resolution.FuzzyThreshold)
	return engine, ws, nil
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func hintFromFlags(c *cli.Context) types.LocationHint {
	return types.LocationHint{
		SymbolName: strings.TrimSpace(c.String("name")),
		FilePath:   strings.TrimSpace(c.String("file")),
		Line:       c.Int("line"),
	}
}

func hintFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "Symbol name (simple, qualified, or a fragment)",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "File path hint: relative, basename, or glob",
		},
		&cli.IntFlag{
			Name:    "line",
			Aliases: []string{"l"},
			Usage:   "1-based line number hint",
		},
	}
}

func main() {
	app := &cli.App{
		Name:                   "codenav",
		Usage:                  "Code navigation queries over C# workspaces for AI assistants",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.ConfigFileName,
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace root directory (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the MCP server on stdio",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					ws, err := loadWorkspace(ctx, cfg)
					if err != nil {
						return err
					}

					return mcp.NewServer(ws, cfg).Start(ctx)
				},
			},
			{
				Name:    "resolve",
				Aliases: []string{"rs"},
				Usage:   "Resolve a location hint to the best matching symbol",
				Flags: append(hintFlags(),
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "Restrict to 'any', 'type', 'member', or 'method'",
						Value:   "any",
					},
				),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}

					filter, err := types.ParseKindFilter(c.String("kind"))
					if err != nil {
						return err
					}

					engine, _, err := newEngine(c.Context, cfg)
					if err != nil {
						return err
					}

					sym, err := engine.Locator().Resolve(c.Context, hintFromFlags(c), filter)
					if err != nil {
						return err
					}
					return printJSON(sym)
				},
			},
			{
				Name:    "callgraph",
				Aliases: []string{"cg"},
				Usage:   "Build the bounded caller/callee graph of a method",
				Flags: append(hintFlags(),
					&cli.IntFlag{Name: "max-callers", Usage: "Max distinct callers per level"},
					&cli.IntFlag{Name: "max-callees", Usage: "Max distinct callees per level"},
					&cli.IntFlag{Name: "caller-depth", Usage: "Upstream traversal depth"},
					&cli.IntFlag{Name: "callee-depth", Usage: "Downstream traversal depth"},
				),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}

					engine, _, err := newEngine(c.Context, cfg)
					if err != nil {
						return err
					}

					sym, err := engine.Locator().Resolve(c.Context, hintFromFlags(c), types.KindFilterMethod)
					if err != nil {
						return err
					}

					opts := cfg.CallGraphOptions()
					if v := c.Int("max-callers"); v > 0 {
						opts.MaxCallers = v
					}
					if v := c.Int("max-callees"); v > 0 {
						opts.MaxCallees = v
					}
					if v := c.Int("caller-depth"); v > 0 {
						opts.CallerDepth = v
					}
					if v := c.Int("callee-depth"); v > 0 {
						opts.CalleeDepth = v
					}

					graph, err := engine.CallGraph(c.Context, sym, opts)
					if err != nil {
						return err
					}
					return printJSON(graph)
				},
			},
			{
				Name:    "inherit",
				Aliases: []string{"ih"},
				Usage:   "Build the inheritance tree of a type",
				Flags: append(hintFlags(),
					&cli.BoolFlag{Name: "derived", Usage: "Walk downward for subtypes and implementers"},
					&cli.IntFlag{Name: "derived-depth", Usage: "Depth bound for the downward walk"},
				),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}

					engine, _, err := newEngine(c.Context, cfg)
					if err != nil {
						return err
					}

					sym, err := engine.Locator().Resolve(c.Context, hintFromFlags(c), types.KindFilterType)
					if err != nil {
						return err
					}

					opts := cfg.InheritanceOptions(c.Bool("derived"))
					if v := c.Int("derived-depth"); v > 0 {
						opts.MaxDerivedDepth = v
					}

					tree, err := engine.InheritanceTree(c.Context, sym, opts)
					if err != nil {
						return err
					}
					return printJSON(tree)
				},
			},
			{
				Name:    "batch",
				Aliases: []string{"b"},
				Usage:   "Resolve a JSON array of location hints read from stdin",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Worker pool size",
					},
					&cli.BoolFlag{
						Name:  "body",
						Usage: "Attach declaration source text to each result",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}

					var hints []types.LocationHint
					if err := json.NewDecoder(os.Stdin).Decode(&hints); err != nil {
						return fmt.Errorf("reading hints from stdin: %w", err)
					}

					engine, _, err := newEngine(c.Context, cfg)
					if err != nil {
						return err
					}

					concurrency := c.Int("concurrency")
					if concurrency <= 0 {
						concurrency = cfg.Batch.MaxConcurrency
					}

					results := engine.ResolveBatch(c.Context, hints, concurrency, query.InfoOptions{
						IncludeBody: c.Bool("body"),
					})

					out := make([]map[string]interface{}, len(results))
					for i, res := range results {
						entry := map[string]interface{}{
							"index": res.Index,
							"hint":  res.Hint,
						}
						if res.Failed() {
							entry["error"] = res.Err.Error()
						} else {
							entry["info"] = res.Info
						}
						out[i] = entry
					}
					return printJSON(out)
				},
			},
			{
				Name:    "diag",
				Aliases: []string{"d"},
				Usage:   "Collect diagnostics for a file or the whole workspace",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Restrict to one file; omit for the whole workspace",
					},
					&cli.StringFlag{
						Name:  "min-severity",
						Usage: "Drop records below this level: hidden, info, warning, error",
					},
					&cli.BoolFlag{
						Name:  "hidden",
						Usage: "Admit hidden diagnostics",
					},
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Glob restricting workspace results to matching files",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}

					ws, err := loadWorkspace(c.Context, cfg)
					if err != nil {
						return err
					}

					filters := diagnostics.Filters{
						IncludeHidden: c.Bool("hidden") || cfg.Diagnostics.IncludeHidden,
						FilePattern:   c.String("pattern"),
					}

					minSeverity := c.String("min-severity")
					if minSeverity == "" {
						minSeverity = cfg.Diagnostics.MinSeverity
					}
					if minSeverity != "" {
						level, err := types.ParseSeverity(minSeverity)
						if err != nil {
							return err
						}
						filters.MinSeverity = level
					}

					report, err := diagnostics.New(ws).Collect(c.Context, types.DiagnosticScope{File: c.String("file")}, filters)
					if err != nil {
						return err
					}
					return printJSON(report)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

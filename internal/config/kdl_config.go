package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// ConfigFileName is looked up in the workspace root
const ConfigFileName = ".codenav.kdl"

// Load reads configuration from path. A missing file is not an error:
// defaults apply. When path is a directory, the standard file name is
// appended.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigFileName
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ConfigFileName)
	}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Resolve a relative workspace root against the config location so
	// the file means the same thing regardless of the working directory.
	if !filepath.IsAbs(cfg.Workspace.Root) {
		cfg.Workspace.Root = filepath.Clean(filepath.Join(filepath.Dir(path), cfg.Workspace.Root))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "workspace":
			for _, cn := range n.Children {
				if nodeName(cn) == "root" {
					if s, ok := firstStringArg(cn); ok {
						cfg.Workspace.Root = s
					}
				}
			}
		case "limits":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_callers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.MaxCallers = v
					}
				case "max_callees":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.MaxCallees = v
					}
				case "caller_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.CallerDepth = v
					}
				case "callee_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.CalleeDepth = v
					}
				case "max_derived_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.MaxDerivedDepth = v
					}
				}
			}
		case "batch":
			for _, cn := range n.Children {
				if nodeName(cn) == "max_concurrency" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Batch.MaxConcurrency = v
					}
				}
			}
		case "resolution":
			for _, cn := range n.Children {
				if nodeName(cn) == "fuzzy_threshold" {
					if v, ok := firstFloatArg(cn); ok {
						cfg.Resolution.FuzzyThreshold = v
					}
				}
			}
		case "diagnostics":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "min_severity":
					if s, ok := firstStringArg(cn); ok {
						cfg.Diagnostics.MinSeverity = s
					}
				case "include_hidden":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Diagnostics.IncludeHidden = b
					}
				}
			}
		}
	}
	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

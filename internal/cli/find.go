package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/any-hub/toolcache/internal/logging"
	"github.com/any-hub/toolcache/pkg/platform"
	"github.com/any-hub/toolcache/pkg/toolcache"
)

func (a *app) newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find NAME VERSION",
		Short: "Print the directory of an installed tool",
		Long: `Looks up <root>/NAME/VERSION/ARCH. An "x" in VERSION matches any value
(12.x matches 12.7.0). --arch selects the architecture directory; without it
the platform default is used: x64 on linux/windows, arm64 on macos.`,
		Args: exactArgs(2, "NAME", "VERSION"),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			name, version := args[0], args[1]

			var tool toolcache.Tool
			if a.opts.arch != "" {
				tool, err = store.FindWithArch(cmd.Context(), name, version, platform.ParseArch(a.opts.arch))
			} else {
				tool, err = store.Find(cmd.Context(), name, version)
			}
			if err != nil {
				return err
			}
			a.logger.WithFields(logging.ToolFields(tool.Name(), tool.Version(), tool.Arch().String())).
				WithField("action", "find").Debug("tool_found")
			fmt.Fprintln(a.env.Out, tool.Path())
			return nil
		},
	}
}

// listEntry 是 list 命令的输出结构。
type listEntry struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Arch    string `json:"arch" yaml:"arch"`
	Path    string `json:"path" yaml:"path"`
}

func (a *app) newListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list NAME",
		Short: "List every installed version and architecture of a tool",
		Args:  exactArgs(1, "NAME"),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(strings.TrimSpace(output))
			if format != "text" && format != "json" && format != "yaml" {
				return usagef("unsupported --output %q (text|json|yaml)", output)
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			tools, err := store.FindAllVersions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			toolcache.SortByVersion(tools)

			entries := make([]listEntry, 0, len(tools))
			for _, tool := range tools {
				entries = append(entries, listEntry{
					Name:    tool.Name(),
					Version: tool.Version(),
					Arch:    tool.Arch().String(),
					Path:    tool.Path(),
				})
			}
			return a.writeEntries(format, entries)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "输出格式: text|json|yaml")
	return cmd
}

func (a *app) writeEntries(format string, entries []listEntry) error {
	switch format {
	case "json":
		enc := json.NewEncoder(a.env.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(a.env.Out)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(a.env.Out, 0, 4, 2, ' ', 0)
		for _, entry := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Version, entry.Arch, entry.Path)
		}
		return tw.Flush()
	}
}

func (a *app) newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path NAME VERSION",
		Short: "Print the install directory for NAME/VERSION on the current arch",
		Args:  exactArgs(2, "NAME", "VERSION"),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			target, err := store.NewToolPath(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.env.Out, target)
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/any-hub/toolcache/internal/logging"
	"github.com/any-hub/toolcache/pkg/archive"
	"github.com/any-hub/toolcache/pkg/download"
)

type installOptions struct {
	url         string
	contentType string
	repo        string
	tag         string
	asset       string
}

func (a *app) newInstallCmd() *cobra.Command {
	var opts installOptions
	cmd := &cobra.Command{
		Use:   "install NAME VERSION",
		Short: "Download a release artifact and extract it into the cache",
		Long: `Downloads an archive either from --url or from a GitHub release
(--repo owner/name --tag TAG --asset NAME-or-pattern) and extracts it into
<root>/NAME/VERSION/ARCH. Server errors are retried; client errors fail fast.`,
		Args: exactArgs(2, "NAME", "VERSION"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			cfg, logger, err := a.loadConfig()
			if err != nil {
				return err
			}

			asset := download.Asset{URL: opts.url, ContentType: opts.contentType}
			source := "url"
			if opts.repo != "" {
				source = "release"
				asset, err = cfg.ReleaseLocator().Locate(cmd.Context(), opts.repo, opts.tag, opts.asset)
				if err != nil {
					return fmt.Errorf("locate release asset: %w", err)
				}
			}

			fields := logging.ToolFields(args[0], args[1], store.Arch().String())
			for k, v := range logging.DownloadFields(asset.URL, source) {
				fields[k] = v
			}
			fields["action"] = "install"
			fields["auth_mode"] = cfg.Release.TokenMode()
			logger.WithFields(fields).Info("install_start")

			start := time.Now()
			tool, err := store.Install(cmd.Context(), args[0], args[1], asset)
			if err != nil {
				return err
			}
			fields["elapsed_ms"] = time.Since(start).Milliseconds()
			fields["path"] = tool.Path()
			logger.WithFields(fields).Info("install_done")
			fmt.Fprintln(a.env.Out, tool.Path())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.url, "url", "", "直接下载地址")
	flags.StringVar(&opts.contentType, "content-type", "", "下载时发送的 Accept 头")
	flags.StringVar(&opts.repo, "repo", "", "GitHub 仓库 owner/name")
	flags.StringVar(&opts.tag, "tag", "", "release tag，留空或 latest 表示最新版本")
	flags.StringVar(&opts.asset, "asset", "", "release 产物名称或 glob 模式")
	return cmd
}

func (o installOptions) validate() error {
	hasURL := strings.TrimSpace(o.url) != ""
	hasRepo := strings.TrimSpace(o.repo) != ""
	switch {
	case hasURL && hasRepo:
		return usagef("--url and --repo are mutually exclusive")
	case !hasURL && !hasRepo:
		return usagef("one of --url or --repo is required")
	case hasRepo && strings.TrimSpace(o.asset) == "":
		return usagef("--asset is required with --repo")
	case hasURL && (o.tag != "" || o.asset != ""):
		return usagef("--tag/--asset only apply with --repo")
	}
	return nil
}

func (a *app) newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract ARCHIVE DEST",
		Short: "Extract a .zip, .tar.gz/.tgz, .tar or .tar.xz archive into DEST",
		Args:  exactArgs(2, "ARCHIVE", "DEST"),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := a.loadConfig()
			if err != nil {
				return err
			}
			extractor := archive.NewExtractor(archive.Options{Logger: logger})
			if err := extractor.Extract(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(a.env.Out, args[1])
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/any-hub/toolcache/internal/logging"
	"github.com/any-hub/toolcache/internal/server"
	"github.com/any-hub/toolcache/internal/server/routes"
	"github.com/any-hub/toolcache/internal/version"
)

func (a *app) newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only JSON view of the tool cache",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			cfg, logger, err := a.loadConfig()
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.Global.ListenPort
			}
			if port < 0 || port > 65535 {
				return usagef("invalid --port %d", port)
			}

			app, err := server.NewApp(server.AppOptions{
				Logger:     logger,
				Tools:      store,
				ListenPort: port,
			})
			if err != nil {
				return err
			}
			routes.RegisterToolRoutes(app, store)

			fields := logging.BaseFields("startup", a.resolvedConfigPath())
			fields["listen_port"] = port
			fields["root"] = store.Root()
			fields["version"] = version.Full()
			logger.WithFields(fields).Info("配置加载完成")

			if err := server.Serve(cmd.Context(), app, port, logger); err != nil {
				return fmt.Errorf("HTTP 服务启动失败: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "监听端口，默认取配置 ListenPort")
	return cmd
}

func (a *app) newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and exit",
		Args:  exactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := a.loadConfig()
			if err != nil {
				return err
			}
			fields := logging.BaseFields("check_config", a.resolvedConfigPath())
			fields["tool_cache"] = cfg.Global.ToolCache
			fields["retry_count"] = cfg.Global.RetryCount
			fields["auth_mode"] = cfg.Release.TokenMode()
			fields["result"] = "ok"
			logger.WithFields(fields).Info("配置校验通过")
			fmt.Fprintln(a.env.Out, "ok")
			return nil
		},
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  exactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprintln(a.env.Out, version.Full())
			return nil
		},
	}
}

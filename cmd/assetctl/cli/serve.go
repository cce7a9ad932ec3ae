package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/config"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the console HTTP server",
		Long:  "Start the HTTP server that exposes sign-in, the current session and the guarded console views.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8090, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "HTTP listen host")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(cmd *cobra.Command) error {
	c, cfg, logger, closeFn, err := openConsole(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	logger.Info("session storage opened", "driver", cfg.Storage.Driver)

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	srvCfg.ShutdownTimeout = config.ParseDuration(cfg.Server.ShutdownTimeout, srvCfg.ShutdownTimeout)
	srvCfg.LoginRateLimit = cfg.Server.LoginRateLimit
	srvCfg.Version = versionString()
	srvCfg.CORSOrigins = cfg.Server.CORS.Origins

	srv := server.New(srvCfg, c, logger)

	base := fmt.Sprintf("http://%s:%d", srvCfg.Host, srvCfg.Port)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "→ assetctl %s\n", versionString())
	fmt.Fprintf(out, "→ Listening on %s\n", base)
	fmt.Fprintf(out, "→ Sign in:    POST %s/api/v1/session\n", base)
	fmt.Fprintf(out, "→ OpenAPI:    %s/openapi.json\n", base)
	fmt.Fprintf(out, "→ Identity:   %s\n", cfg.Auth.Endpoint)

	return srv.ListenAndServe()
}

package main

import (
	"context"
	"fmt"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"net/http"
	"os"
	"silo_bridge/dal"
	"silo_bridge/logic"
	"silo_bridge/server"
	"silo_bridge/shared"
)

type initErrorHandler struct {
}

func (*initErrorHandler) HandleError(err error) {
	fmt.Fprintf(os.Stderr, "Failed to initialize dependency injection\n%v", err)
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string // overrides log_level from the config file
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "silo_bridge",
		Short: "Propagates silo reactions back to the original posts as webmentions",
	}
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (Debug|Info|Warn|Error)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newCanonicalizeCommand(opts))
	return cmd
}

func loadConfig(opts *RootOptions) *shared.Config {
	cfg := shared.LoadConfig()
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	return cfg
}

func newServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP API and the propagation task worker",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := newApp(loadConfig(rootOpts))
			app.Run()
			return app.Err()
		},
	}
}

func newApp(cfg *shared.Config) *fx.App {

	provideConfig := func() *shared.Config {
		return cfg
	}

	logger := shared.InitLogger(cfg)
	provideLogger := func() shared.ILogger {
		return logger
	}

	return fx.New(
		fx.NopLogger,
		fx.Provide(
			provideConfig,
			provideLogger,
			server.NewHTTPServer,
			fx.Annotate(server.NewMux, fx.ParamTags(`group:"handler_group"`)),
			shared.NewUserAgent,
			dal.NewRepo,
			logic.NewMetrics,
			logic.NewResolutionCache,
			logic.NewSiloRegistry,
			logic.NewRedirectResolver,
			logic.NewBlockedTargets,
			logic.NewSyndicationMatcher,
			logic.NewTargetCollector,
			logic.NewTaskQueue,
			logic.NewPropagator,
			logic.NewDeliverer,
			logic.NewTaskWorker,
			logic.NewHttpSigChecker,
			logic.NewBlogPosts,
			logic.NewUrlCanonicalizer,
			logic.NewProfiler,
			asHandlerGroupDef(server.NewApiHandlerGroup),
			asHandlerGroupDef(server.NewHookHandlerGroup),
			asHandlerGroupDef(server.NewOpsHandlerGroup),
		),
		fx.Invoke(
			func(repo dal.IRepo) { repo.InitUpdateDb() },
			registerHooks,
			func(*http.Server) {},
		),
		fx.ErrorHook(&initErrorHandler{}),
	)
}

func asHandlerGroupDef(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(server.IHandlerGroup)),
		fx.ResultTags(`group:"handler_group"`),
	)
}

func registerHooks(
	lc fx.Lifecycle,
	logger shared.ILogger,
	metrics logic.IMetrics,
	repo dal.IRepo,
	worker logic.ITaskWorker,
	profiler logic.IProfiler,
) {
	lc.Append(
		fx.Hook{
			OnStart: func(context.Context) error {
				logger.Printf("Application starting up")
				metrics.ServiceStarted()
				worker.Start()
				profiler.Start()
				return nil
			},
			OnStop: func(context.Context) error {
				logger.Printf("Application shutting down")
				profiler.Stop()
				worker.Stop()
				return repo.Close()
			},
		},
	)
}

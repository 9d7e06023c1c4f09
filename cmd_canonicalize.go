package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"silo_bridge/dal"
	"silo_bridge/logic"
	"silo_bridge/shared"
)

type canonicalizeOptions struct {
	sourceKey string
}

func newCanonicalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &canonicalizeOptions{}

	cmd := &cobra.Command{
		Use:   "canonicalize <url>...",
		Short: "Print the canonical form of URLs",
		Long: `Print the canonical form of each URL, one per line, tab-separated from the input.

With --source, URLs on the source's silo are rewritten to stable permalinks
the same way targets are computed, using and updating the source's caches.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCanonicalize(loadConfig(rootOpts), opts, args, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.sourceKey, "source", "", "source key, e.g. facebook:212038")
	return cmd
}

func runCanonicalize(cfg *shared.Config, opts *canonicalizeOptions, urls []string, cmd *cobra.Command) error {

	canonicalize := func(rawUrl string) (string, error) {
		return logic.CanonicalizeUrl(rawUrl)
	}

	if opts.sourceKey != "" {
		logger := shared.InitLogger(cfg)
		repo := dal.NewRepo(cfg, logger)
		defer repo.Close()
		repo.InitUpdateDb()
		metrics := logic.NewMetrics(cfg)
		cache := logic.NewResolutionCache(cfg, logger, repo, metrics)
		silos := logic.NewSiloRegistry(cfg, logger, cache)
		uc := logic.NewUrlCanonicalizer(logger, repo, silos, cache)
		canonicalize = func(rawUrl string) (string, error) {
			return uc.Canonicalize(cmd.Context(), opts.sourceKey, rawUrl)
		}
	}

	failed := 0
	for _, rawUrl := range urls {
		canon, err := canonicalize(rawUrl)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", rawUrl, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", rawUrl, canon)
	}
	if failed != 0 {
		return fmt.Errorf("%d of %d URLs could not be canonicalized", failed, len(urls))
	}
	return nil
}

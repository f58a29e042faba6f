package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Darianopolis/git-cache/cache"
	"github.com/Darianopolis/git-cache/gitx"
)

// cacheRootEnv names the environment variable holding the cache root
// directory. It must be set before any work begins.
const cacheRootEnv = "GIT_CACHE_DIR"

type checkoutFlags struct {
	url     string
	ref     string
	dir     string
	fetch   bool
	view    bool
	force   bool
	verbose bool
}

func newRootCommand() *cobra.Command {
	flags := &checkoutFlags{}

	cmd := &cobra.Command{
		Use:           "git-cache",
		Short:         "Content-addressed cache for remote git checkouts",
		Long: `git-cache materializes a (url, ref) pair as a cached, immutable working
tree and links it to the requested directory, reusing previously fetched
data and resolving submodules recursively into the same cache.

The cache root is taken from the ` + cacheRootEnv + ` environment variable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.url, "url", "", "git repository URL")
	cmd.Flags().StringVar(&flags.ref, "ref", "", "commit hash, tag, or branch")
	cmd.Flags().StringVar(&flags.dir, "dir", "", "target directory")
	cmd.Flags().BoolVar(&flags.fetch, "fetch", false, "fetch updated branch content")
	cmd.Flags().BoolVar(&flags.view, "view", false, "materialize a flattened view instead of a symlink")
	cmd.Flags().BoolVar(&flags.force, "force", false, "replace an existing non-symlink target directory")
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "verbose output")

	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("dir")

	cmd.AddCommand(newStatsCommand(flags))

	return cmd
}

func runCheckout(cmd *cobra.Command, flags *checkoutFlags) error {
	c, err := openCache(flags)
	if err != nil {
		return err
	}

	path, err := c.Checkout(cmd.Context(), flags.url, flags.ref, flags.fetch)
	if err != nil {
		return err
	}

	if flags.view {
		return c.MakeView(path, flags.dir, flags.force)
	}
	return c.Link(flags.dir, path, flags.force)
}

func newStatsCommand(flags *checkoutFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(flags)
			if err != nil {
				return err
			}

			stats, err := c.Stats()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(w, "Cache root:\t%s\n", c.Root())
			fmt.Fprintf(w, "Metadata repositories:\t%d\n", stats.MetadataRepos)
			fmt.Fprintf(w, "Checkouts:\t%d\n", stats.Checkouts)
			fmt.Fprintf(w, "Metadata size:\t%d bytes\n", stats.MetadataSize)
			fmt.Fprintf(w, "Checkouts size:\t%d bytes\n", stats.CheckoutsSize)
			fmt.Fprintf(w, "Total size:\t%d bytes\n", stats.TotalSize)
			if stats.OldestCheckout != nil {
				fmt.Fprintf(w, "Oldest checkout:\t%s\n", stats.OldestCheckout.Format("2006-01-02 15:04:05"))
			}
			if stats.NewestCheckout != nil {
				fmt.Fprintf(w, "Newest checkout:\t%s\n", stats.NewestCheckout.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

// openCache builds a Cache from the environment and verbosity flags.
// A missing cache root is a configuration error reported before any work.
func openCache(flags *checkoutFlags) (*cache.Cache, error) {
	root := os.Getenv(cacheRootEnv)
	if root == "" {
		return nil, fmt.Errorf("%s environment variable is not set", cacheRootEnv)
	}

	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return cache.New(root,
		cache.WithExecutor(gitx.New(gitx.WithStderrPassthrough(os.Stderr))),
		cache.WithLogger(log),
	)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"commentlottery/internal/bilibili"
	"commentlottery/internal/config"
	"commentlottery/internal/handlers"
	"commentlottery/internal/services"

	"github.com/google/logger"
	"github.com/spf13/cobra"
)

const (
	janitorInterval = 10 * time.Minute
	sessionMaxIdle  = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root, closeLog := newRootCmd(cfg)
	err = root.Execute()
	closeLog()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The returned func closes the logger
// opened when a command runs and is safe to call when none was opened.
func newRootCmd(cfg config.Config) (*cobra.Command, func()) {
	var log *logger.Logger
	root := &cobra.Command{
		Use:           "commentlottery [bvid|aid]",
		Short:         "Draw winners from the commenters of a Bilibili video",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logger.Init("commentlottery", cfg.Verbose, false, io.Discard)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runDraw(cmd, &cfg, args[0])
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log progress to stdout")
	flags.StringVar(&cfg.APIBase, "api-base", cfg.APIBase, "Bilibili API base URL")
	flags.DurationVar(&cfg.RequestInterval, "request-interval", cfg.RequestInterval, "minimum delay between page requests (0 = none)")
	flags.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "per-request timeout (0 = none)")
	flags.IntVar(&cfg.MaxPages, "max-pages", cfg.MaxPages, "stop after this many pages (0 = unlimited)")

	root.Flags().IntVarP(&cfg.Winners, "winners", "n", cfg.Winners, "number of winners to draw")

	root.AddCommand(newDrawCmd(&cfg), newServeCmd(&cfg))
	return root, func() {
		if log != nil {
			log.Close()
		}
	}
}

func newService(cfg *config.Config) *services.LotteryService {
	client := bilibili.NewClient(
		bilibili.WithBaseURL(cfg.APIBase),
		bilibili.WithTimeout(cfg.HTTPTimeout),
	)
	return services.NewLotteryService(client, services.NewSampler(),
		services.WithRequestInterval(cfg.RequestInterval),
		services.WithMaxPages(cfg.MaxPages),
	)
}

func newDrawCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw <bvid|aid>",
		Short: "Fetch every comment of a video and draw winners",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraw(cmd, cfg, args[0])
		},
	}
	cmd.Flags().IntVarP(&cfg.Winners, "winners", "n", cfg.Winners, "number of winners to draw")
	return cmd
}

// runDraw fetches every comment of the video named by code and prints the
// comment count, the number of distinct users and the winners.
func runDraw(cmd *cobra.Command, cfg *config.Config, code string) error {
	result, err := newService(cfg).Run(cmd.Context(), code, cfg.Winners)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "共计抓取到 %d 条评论\n", result.TotalComments)
	fmt.Fprintf(out, "共有 %d 个不同用户\n", result.Participants)
	fmt.Fprintf(out, "中奖用户: %s\n", strings.Join(result.Winners, ", "))
	return nil
}

// reportError prints a one-line explanation of why a run failed.
func reportError(w io.Writer, err error) {
	var aborted *services.AbortedFetchError
	var transport *services.TransportError
	var resErr *bilibili.ResolutionError
	switch {
	case errors.As(err, &aborted) && aborted.IsRateLimited():
		fmt.Fprintf(w, "抓取失败，访问频率过高！错误代码：%d，请稍后再试！\n", aborted.Status.Code)
	case errors.As(err, &aborted):
		fmt.Fprintf(w, "抓取失败，错误代码：%d\n", aborted.Status.Code)
	case errors.As(err, &transport), errors.As(err, &resErr):
		fmt.Fprintf(w, "抓取失败：%v\n", err)
	default:
		fmt.Fprintln(w, err)
	}
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lottery HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().IntVarP(&cfg.Winners, "winners", "n", cfg.Winners, "default number of winners per draw")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	lotteryService := newService(cfg)
	router := handlers.NewRouter(handlers.NewHTTPHandler(lotteryService, cfg.Winners))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: time.Minute,
		IdleTimeout:       3 * time.Minute,
	}

	// Background janitor for inactive sessions
	go func() {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := lotteryService.CleanUpInactiveSessions(sessionMaxIdle)
				logger.Infof("Performed cleanup of inactive sessions, removed %d.", n)
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on %s", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("run server: %w", err)
	case <-ctx.Done():
	}

	logger.Warning("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/RowanDark/hexkit/internal/api"
	"github.com/RowanDark/hexkit/internal/rpc"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		httpAddr   string
		grpcAddr   string
		singlePort bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the gRPC transcoder",
		Long: `Serve the HTTP API and the gRPC Transcoder service.

By default gRPC listens on its own address. With --single-port, or when both
addresses are equal, gRPC and HTTP share the HTTP listener over h2c.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if httpAddr != "" {
				a.cfg.HTTPAddr = httpAddr
			}
			if grpcAddr != "" {
				a.cfg.GRPCAddr = grpcAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, singlePort)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (default from config)")
	cmd.Flags().BoolVar(&singlePort, "single-port", false, "serve gRPC on the HTTP listener")
	return cmd
}

func (a *app) serve(ctx context.Context, singlePort bool) error {
	rm, err := a.recipes()
	if err != nil {
		return err
	}
	srv, err := api.NewServer(api.Config{
		Addr:     a.cfg.HTTPAddr,
		Registry: a.registry,
		Recipes:  rm,
		Policy:   a.policy(),
		Logger:   a.logger.Named("api"),
	})
	if err != nil {
		return err
	}
	gs := rpc.NewGRPCServer(rpc.NewServer(
		rpc.WithRegistry(a.registry),
		rpc.WithDefaultCodec(a.cfg.Codec()),
		rpc.WithPolicy(a.policy()),
		rpc.WithLogger(a.logger.Named("grpc")),
	), a.logger.Named("grpc"))

	g, ctx := errgroup.WithContext(ctx)
	if singlePort || a.cfg.GRPCAddr == "" || a.cfg.GRPCAddr == a.cfg.HTTPAddr {
		defer gs.Stop()
		a.logger.Info("serving", zap.String("addr", a.cfg.HTTPAddr), zap.Bool("single_port", true))
		g.Go(func() error {
			return srv.Run(ctx, rpc.Multiplex(gs, srv.Handler()))
		})
		return g.Wait()
	}

	lis, err := net.Listen("tcp", a.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.GRPCAddr, err)
	}
	a.logger.Info("serving",
		zap.String("http_addr", a.cfg.HTTPAddr),
		zap.String("grpc_addr", lis.Addr().String()),
	)
	g.Go(func() error { return srv.Run(ctx, nil) })
	g.Go(func() error { return rpc.Serve(ctx, gs, lis) })
	return g.Wait()
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the configuration after files and environment are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return cmd
}

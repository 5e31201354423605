package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/eringen/folio"
)

// version is set at build time via ldflags.
var version = "dev"

type serveCmd struct {
	Config string `kong:"short='c',default='site.yaml',help='Path to the site config file'"`
}

func (s *serveCmd) Run() error {
	cfg, err := folio.LoadSiteConfig(s.Config)
	if err != nil {
		return err
	}
	app := folio.New(cfg)
	defer app.Close()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Echo.Shutdown(ctx)
	}()

	return app.Start()
}

type buildCmd struct {
	Config string `kong:"short='c',default='site.yaml',help='Path to the site config file'"`
	Out    string `kong:"short='o',help='Output directory, overrides the config'"`
}

func (b *buildCmd) Run() error {
	cfg, err := folio.LoadSiteConfig(b.Config)
	if err != nil {
		return err
	}
	if b.Out != "" {
		cfg.OutputDir = b.Out
	}
	app := folio.New(cfg)
	defer app.Close()

	if err := app.Export(context.Background()); err != nil {
		return err
	}
	fmt.Printf("Site built into %s\n", app.Config.OutputDir)
	return nil
}

type newCmd struct {
	Name string `kong:"arg,help='Name of the site directory to create'"`
}

func (n *newCmd) Run() error {
	return runNew(n.Name)
}

type versionCmd struct{}

func (versionCmd) Run() error {
	fmt.Printf("folio %s\n", version)
	return nil
}

var cli struct {
	Serve   serveCmd   `kong:"cmd,help='Index the content directory and serve the site'"`
	Build   buildCmd   `kong:"cmd,help='Export the site as static files'"`
	New     newCmd     `kong:"cmd,help='Scaffold a new site directory'"`
	Version versionCmd `kong:"cmd,help='Print the folio version'"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("folio"),
		kong.Description("A markdown-driven portfolio and blog server with static export."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

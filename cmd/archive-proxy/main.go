package main

import (
	"context"
	"io"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/flare-foundation/archive-data-proxy/internal/archive"
	"github.com/flare-foundation/archive-data-proxy/internal/config"
	"github.com/flare-foundation/go-flare-common/pkg/logger"
)

func main() {
	var args CLIArgs
	p := arg.MustParse(&args)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	cfg := config.DefaultConfig()
	if err := config.ReadFile(args.ConfigFile, &cfg); err != nil {
		logger.Fatal(err)
	}

	cfg.ApplyEnvOverrides()

	if err := config.CheckParameters(&cfg); err != nil {
		logger.Fatal(err)
	}

	logger.Set(cfg.Logger)
	logBuildVersion(args.BuildDir)

	ctx := context.Background()

	proxy, err := archive.Connect(ctx, &cfg)
	if err != nil {
		logger.Fatalf("cannot start archive proxy: %v", err)
	}

	if err := execute(ctx, proxy, &args, os.Stdout); err != nil {
		logger.Fatal(err)
	}
}

// execute runs the selected subcommand and closes proxy before returning.
func execute(ctx context.Context, proxy *archive.Proxy, args *CLIArgs, w io.Writer) error {
	defer func() {
		if err := proxy.Close(); err != nil {
			logger.Warnf("closing archive DB: %v", err)
		}
	}()

	return run(ctx, proxy, args, w)
}

func logBuildVersion(dir string) {
	build, err := config.ReadBuildVersion(dir)
	if err != nil {
		logger.Warn("failed to read the project build info")
		return
	}

	logger.Infof("archive proxy %s (%s) built %s", build.GitTag, build.GitHash, build.BuildDate.Format("2006-01-02"))
}

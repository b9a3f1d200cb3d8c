package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/duffing/sortie/internal"
	"github.com/duffing/sortie/internal/cache"
	"github.com/duffing/sortie/internal/docker"
	"github.com/duffing/sortie/internal/s3io"
	"github.com/duffing/sortie/internal/tracks"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic occurred: %v", r)
			os.Exit(1)
		}
	}()

	if err := run(os.Args, os.Environ()); err != nil {
		log.Fatal(err)
	}
}

func run(args, environment []string) error {
	app := &cli.App{
		Name:  "sortie",
		Usage: "sort an S3 bucket of tracks by their tags",
		Commands: []*cli.Command{
			runCommand(),
			launchCommand(environment),
		},
	}
	return app.Run(args)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	return ctx, cancel
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run a sorting pass against the configured bucket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: filepath.Join("conf", "sortie.ini"),
				Usage: "path to the sortie INI configuration",
			},
		},
		Action: func(c *cli.Context) error {
			config, err := internal.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}

			logger, closeLog, err := internal.NewLogger(config)
			if err != nil {
				return err
			}

			cleanupMgr := internal.NewCleanupManager(logger)
			defer cleanupMgr.Execute()
			cleanupMgr.Add("log-file", closeLog)

			ctx, cancel := signalContext()
			defer cancel()

			logger.Info("new run started")

			orchestrator, err := s3io.NewDefaultOrchestrator(ctx, config.Profile, config.Bucket, logger)
			if err != nil {
				return err
			}

			store, err := cache.NewStore(afero.NewOsFs(), config.CacheDir, config.PersistentCache)
			if err != nil {
				return err
			}

			pipeline, err := tracks.NewPipeline(config, orchestrator, store, logger)
			if err != nil {
				return err
			}

			if err := pipeline.Run(ctx); err != nil {
				return err
			}

			logger.Info("run completed")
			return nil
		},
	}
}

func launchCommand(environment []string) *cli.Command {
	return &cli.Command{
		Name:      "launch",
		Usage:     "rebuild the container image and run sortie inside it",
		ArgsUsage: "[args passed to the entrypoint]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "image",
				Value: string(internal.DefaultImageName),
				Usage: "local image tag to remove, rebuild, and run",
			},
			&cli.StringFlag{
				Name:  "context",
				Value: ".",
				Usage: "build context directory, also bind-mounted into the container",
			},
			&cli.StringFlag{
				Name:  "dockerfile",
				Usage: "Dockerfile path (defaults to Dockerfile in the context)",
			},
			&cli.StringFlag{
				Name:  "entrypoint",
				Value: internal.DefaultEntrypoint,
				Usage: "executable inside the mounted volume to run as the container entrypoint",
			},
			&cli.StringSliceFlag{
				Name:  "volume",
				Usage: "additional bind mount (host:container)",
			},
			&cli.StringSliceFlag{
				Name:  "env",
				Usage: "additional environment variable (KEY=value)",
			},
			&cli.StringFlag{
				Name:  "network",
				Value: "default",
				Usage: "container network",
			},
		},
		Action: func(c *cli.Context) error {
			return launch(c, environment)
		},
	}
}

// launch is the runner the project used to carry as a shell script: force-remove
// the local image, rebuild it from the Dockerfile, then run it once in the
// foreground with the project directory and the caller's AWS credentials
// bind-mounted and the entrypoint overridden to the sortie executable inside
// the mounted volume.
func launch(c *cli.Context, environment []string) error {
	contextDir, err := filepath.Abs(c.String("context"))
	if err != nil {
		return fmt.Errorf("failed to resolve build context %q: %w", c.String("context"), err)
	}

	config := internal.NewLaunchConfig(internal.LaunchOptions{
		Image:      c.String("image"),
		Dockerfile: c.String("dockerfile"),
		ContextDir: contextDir,
		Entrypoint: c.String("entrypoint"),
		Network:    c.String("network"),
		Volumes:    c.StringSlice("volume"),
		Env:        c.StringSlice("env"),
		Args:       c.Args().Slice(),
	}, environment)

	w := internal.NewStandardWriter()

	cleanupMgr := internal.NewCleanupManager(logrus.New())
	defer cleanupMgr.Execute()

	ctx, cancel := signalContext()
	defer cancel()

	client, err := docker.NewDefaultClient()
	if err != nil {
		return fmt.Errorf("failed to create docker client: %w\nMake sure Docker is installed and running (try 'docker ps')", err)
	}
	cleanupMgr.Add("docker-client", func() error {
		client.Close()
		return nil
	})

	// Best-effort: the image does not exist on a first run.
	if err := client.RemoveImage(ctx, config.ImageName); err != nil {
		w.Warningf("could not remove previous image: %v", err)
	}

	image, err := client.BuildImage(ctx, config.DockerfilePath, config.ContextDir, config.ImageName, w)
	if err != nil {
		return fmt.Errorf("failed to build docker image %q from %q: %w", config.ImageName, config.DockerfilePath, err)
	}

	session := internal.GenerateSession()

	container, err := client.CreateContainer(
		ctx,
		session.ID(),
		image,
		config.Entrypoint,
		config.Args,
		config.Env,
		config.Volumes,
		config.WorkingDir,
		config.Network,
		config.StopTimeout,
		config.TTYRetries,
		config.RetryDelay,
	)
	if err != nil {
		return fmt.Errorf("failed to create container %q from image %q: %w", session.ID(), image.Name, err)
	}
	cleanupMgr.Add("container", func() error {
		return container.ForceRemove(ctx)
	})

	err = container.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start container %q: %w", session.ID(), err)
	}

	err = container.Attach(ctx, w)
	if err != nil {
		return fmt.Errorf("failed to attach to container %q: %w\nThis may indicate a TTY configuration issue", session.ID(), err)
	}

	err = container.Wait(ctx, w)
	if err != nil {
		return fmt.Errorf("failed to wait for container %q: %w", session.ID(), err)
	}

	return nil
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"censor-bot/config"
	"censor-bot/internal/container"
	"censor-bot/internal/domain/entity"
	"censor-bot/internal/infrastructure/storage"
	"censor-bot/internal/logging"
)

func main() {
	app := cli.App{
		Name:  "censor",
		Usage: "censor images, videos and audio tracks from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity (debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log format (text or json)",
				Value:   "text",
				EnvVars: []string{"LOG_FORMAT"},
			},
		},
	}
	app.Commands = []*cli.Command{
		&cli.Command{
			Name:      "process",
			Usage:     "censor a single media file",
			ArgsUsage: "<input>",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:    "blacklist",
					Aliases: []string{"b"},
					Usage:   "category to censor, repeatable; empty means every category",
				},
				&cli.BoolFlag{
					Name:  "outline",
					Usage: "draw a frame around regions instead of pixelating them",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "output path, defaults to censor_<name> next to the input",
				},
			},
			Action: runProcess,
		},
		&cli.Command{
			Name:   "categories",
			Usage:  "list censorable categories by plugin",
			Action: runCategories,
		},
		&cli.Command{
			Name:   "plugins",
			Usage:  "list plugins that loaded with the current configuration",
			Action: runPlugins,
		},
	}
	app.RunAndExitOnError()
}

func buildContainer(cctx *cli.Context) (*container.Container, error) {
	cfg, err := config.Load(container.Plugins()...)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Setup(os.Stderr, cctx.String("log-level"), cctx.String("log-format"))
	if err != nil {
		return nil, err
	}
	return container.New(cctx.Context, cfg, storage.NewMemoryUserRepository(), logger)
}

func runProcess(cctx *cli.Context) error {
	input := cctx.Args().First()
	if input == "" {
		return fmt.Errorf("need to provide input file as an argument")
	}

	c, err := buildContainer(cctx)
	if err != nil {
		return err
	}
	defer c.Close()

	mode := entity.ModePixelate
	if cctx.Bool("outline") {
		mode = entity.ModeOutline
	}
	var labels []string
	for _, v := range cctx.StringSlice("blacklist") {
		labels = append(labels, strings.Split(v, ",")...)
	}

	resp, err := c.Orchestrator.Process(cctx.Context, entity.CensorRequest{
		Input:     input,
		Output:    cctx.String("output"),
		Blacklist: entity.NewBlacklist(labels...),
		Mode:      mode,
	})
	if err != nil {
		return err
	}

	fmt.Printf("kind:    %s\n", resp.Kind)
	fmt.Printf("plugins: %s\n", strings.Join(resp.Plugins, ", "))
	switch resp.Kind {
	case entity.MediaImage:
		fmt.Printf("regions: %d\n", resp.Regions)
	case entity.MediaVideo:
		fmt.Printf("frames:  %d (%d detect)\n", resp.Frames, resp.DetectFrames)
	}
	for _, iv := range resp.MutedIntervals {
		fmt.Printf("muted:   %.2f-%.2f\n", iv.Start, iv.End)
	}
	fmt.Printf("output:  %s\n", resp.Output)
	return nil
}

func runCategories(cctx *cli.Context) error {
	catalog := entity.DefaultCatalog()
	for _, plugin := range catalog.Plugins() {
		fmt.Printf("%s: %s\n", plugin, strings.Join(catalog[plugin], ", "))
	}
	return nil
}

func runPlugins(cctx *cli.Context) error {
	c, err := buildContainer(cctx)
	if err != nil {
		return err
	}
	defer c.Close()

	for _, name := range c.Registry.Names() {
		fmt.Println(name)
	}
	return nil
}

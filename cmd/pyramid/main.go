// Command pyramid runs the league engine over snapshot files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/oledu/pyramidgo/internal/adapters/repository"
	"github.com/oledu/pyramidgo/internal/config"
	"github.com/oledu/pyramidgo/internal/domain/types"
	"github.com/oledu/pyramidgo/internal/engine"
	"github.com/oledu/pyramidgo/internal/loadcheck"
	"github.com/oledu/pyramidgo/internal/report"
	"github.com/oledu/pyramidgo/internal/snapshotgen"
	"github.com/oledu/pyramidgo/pkg/logger"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "pyramid",
		Usage:     "score climbing-league snapshots and run the castle siege",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{config.EnvConfig}},
			&cli.IntFlag{Name: "season-year", Usage: "override the season year"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
		},
		Before: func(c *cli.Context) error {
			if err := logger.Init(logger.WithWriter(c.App.ErrWriter)); err != nil {
				return err
			}
			return logger.SetLevelString(c.String("log-level"))
		},
		Commands: []*cli.Command{
			newComputeCommand(),
			newExportCommand(),
			newChartCommand(),
			newGenerateCommand(),
			newLoadCheckCommand(),
		},
	}
}

func inFlag() cli.Flag {
	return &cli.StringFlag{Name: "in", Aliases: []string{"i"}, Value: "-", Usage: "snapshot JSON file, - for stdin"}
}

func newComputeCommand() *cli.Command {
	return &cli.Command{
		Name:  "compute",
		Usage: "compute a snapshot and print the summary as JSON",
		Flags: []cli.Flag{
			inFlag(),
			&cli.IntFlag{Name: "top", Value: 10, Usage: "leaderboard rows to print"},
			&cli.BoolFlag{Name: "full", Usage: "include every score and castle ledger"},
		},
		Action: func(c *cli.Context) error {
			res, err := compute(c)
			if err != nil {
				return err
			}
			sum, err := summarize(ctxOf(c), res, c.Int("top"), c.Bool("full"))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}
}

func newExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "compute a snapshot and write an XLSX workbook",
		Flags: []cli.Flag{
			inFlag(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "workbook path"},
		},
		Action: func(c *cli.Context) error {
			res, err := compute(c)
			if err != nil {
				return err
			}
			return writeFile(c.String("out"), func(w io.Writer) error {
				return report.WriteWorkbook(w, res)
			})
		},
	}
}

func newChartCommand() *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "compute a snapshot and render castle HP as PNG",
		Flags: []cli.Flag{
			inFlag(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "PNG path"},
			&cli.StringFlag{Name: "castle", Usage: "render one castle's top attackers instead"},
			&cli.IntFlag{Name: "heroes", Value: 10, Usage: "attackers in a castle chart"},
		},
		Action: func(c *cli.Context) error {
			res, err := compute(c)
			if err != nil {
				return err
			}
			id := c.String("castle")
			if id == "" {
				return writeFile(c.String("out"), func(w io.Writer) error {
					return report.WriteCastleChart(w, res.Castles())
				})
			}
			castle, ok := res.Siege.Castle(id)
			if !ok {
				return fmt.Errorf("castle %q not in snapshot", id)
			}
			return writeFile(c.String("out"), func(w io.Writer) error {
				return report.WriteHeroChart(w, castle, c.Int("heroes"))
			})
		},
	}
}

func newGenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "write a synthetic league snapshot",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "faker seed"},
			&cli.IntFlag{Name: "climbers", Value: 40},
			&cli.IntFlag{Name: "gyms", Value: 4},
			&cli.IntFlag{Name: "records", Value: 6, Usage: "climb rows per climber"},
			&cli.IntFlag{Name: "year", Value: 2025, Usage: "season year"},
			&cli.BoolFlag{Name: "siege", Value: true, Usage: "set SIEGE_ENABLED"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "-", Usage: "output path, - for stdout"},
		},
		Action: func(c *cli.Context) error {
			data, err := snapshotgen.New(
				snapshotgen.WithSeed(c.Uint64("seed")),
				snapshotgen.WithClimbers(c.Int("climbers")),
				snapshotgen.WithGyms(c.Int("gyms")),
				snapshotgen.WithRecordsPerClimber(c.Int("records")),
				snapshotgen.WithSeasonYear(c.Int("year")),
				snapshotgen.WithSiege(c.Bool("siege")),
			).Bytes()
			if err != nil {
				return err
			}
			if c.String("out") == "-" {
				_, err = c.App.Writer.Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(c.String("out"), data, 0o644)
		},
	}
}

func newLoadCheckCommand() *cli.Command {
	def := loadcheck.DefaultConfig()
	return &cli.Command{
		Name:  "loadcheck",
		Usage: "flood a running server with generated snapshots and verify what it serves",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: def.BaseURL, Usage: "server base URL"},
			&cli.IntFlag{Name: "snapshots", Value: def.Snapshots},
			&cli.IntFlag{Name: "repeats", Value: def.Repeats, Usage: "duplicate submissions per snapshot"},
			&cli.IntFlag{Name: "climbers", Value: def.Climbers},
			&cli.IntFlag{Name: "gyms", Value: def.Gyms},
			&cli.Uint64Flag{Name: "seed", Value: def.Seed},
			&cli.IntFlag{Name: "year", Value: def.SeasonYear},
			&cli.IntFlag{Name: "top", Value: def.TopN, Usage: "leaderboard rows to compare"},
			&cli.IntFlag{Name: "workers", Value: def.Workers},
			&cli.DurationFlag{Name: "timeout", Value: def.Timeout, Usage: "per-request timeout"},
			&cli.DurationFlag{Name: "wait", Value: def.WaitTimeout, Usage: "how long to wait for the probe result"},
		},
		Action: func(c *cli.Context) error {
			ctx := ctxOf(c)
			cfg, err := loadConfig(ctx, c.String("config"))
			if err != nil {
				return err
			}
			opts, err := engine.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			check := &loadcheck.Config{
				BaseURL:      c.String("url"),
				Snapshots:    c.Int("snapshots"),
				Repeats:      c.Int("repeats"),
				Climbers:     c.Int("climbers"),
				Gyms:         c.Int("gyms"),
				Seed:         c.Uint64("seed"),
				SeasonYear:   c.Int("year"),
				TopN:         c.Int("top"),
				Workers:      c.Int("workers"),
				Timeout:      c.Duration("timeout"),
				WaitTimeout:  c.Duration("wait"),
				PollInterval: def.PollInterval,
				Engine:       engine.New(opts...),
			}
			stats, err := loadcheck.Run(ctx, check, logger.Named("loadcheck"))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}

// compute loads configuration and runs the engine over --in.
func compute(c *cli.Context) (*engine.Result, error) {
	ctx := ctxOf(c)
	cfg, err := loadConfig(ctx, c.String("config"))
	if err != nil {
		return nil, err
	}
	if y := c.Int("season-year"); y > 0 {
		cfg.SeasonYear = y
	}
	opts, err := engine.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, engine.WithLogger(logger.Named("engine")))

	data, err := readInput(c.App.Reader, c.String("in"))
	if err != nil {
		return nil, err
	}
	return engine.New(opts...).Compute(ctx, data)
}

func ctxOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(ctx, path)
	}
	return config.Load(ctx)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

type summary struct {
	RunID        string         `json:"runId"`
	Period       string         `json:"period,omitempty"`
	SeasonYear   int            `json:"seasonYear"`
	SiegeEnabled bool           `json:"siegeEnabled"`
	Climbers     int            `json:"climbers"`
	Leaderboard  []types.Entry  `json:"leaderboard"`
	Teams        []types.Team   `json:"teams"`
	Castles      []castleLine   `json:"castles,omitempty"`
	Warnings     int            `json:"warnings"`
	Scores       []types.Score  `json:"scores,omitempty"`
	Detail       []types.Castle `json:"castleDetail,omitempty"`
}

type castleLine struct {
	ID            string  `json:"castleId"`
	HP            int     `json:"currentHP"`
	OriginalHP    int     `json:"originalHP"`
	HealthPercent float64 `json:"healthPercent"`
	Status        string  `json:"status"`
	Attacks       int     `json:"attackCount"`
}

func summarize(ctx context.Context, res *engine.Result, top int, full bool) (summary, error) {
	out := summary{
		RunID:        res.RunID.String(),
		Period:       res.Period,
		SeasonYear:   res.SeasonYear,
		SiegeEnabled: res.SiegeEnabled,
		Climbers:     len(res.Scores),
		Teams:        types.NewTeams(res.Teams),
		Warnings:     len(res.Warnings),
	}

	board := repository.NewTreapStore()
	entries := make([]repository.Entry, 0, len(res.Scores))
	for _, s := range res.Scores {
		entries = append(entries, repository.Entry{Climber: s.Participant.Name, Team: s.Participant.Team, Score: s.Combined()})
	}
	if err := board.Replace(ctx, entries); err != nil {
		return summary{}, err
	}
	if top > 0 {
		ranked, err := board.TopN(ctx, top)
		if err != nil {
			return summary{}, err
		}
		for _, e := range ranked {
			out.Leaderboard = append(out.Leaderboard, types.Entry{Rank: e.Rank, Climber: e.Climber, Team: e.Team, Score: types.Float(e.Score)})
		}
	}

	for _, c := range res.Castles() {
		out.Castles = append(out.Castles, castleLine{
			ID:            c.ID,
			HP:            c.HP,
			OriginalHP:    c.OriginalHP,
			HealthPercent: c.HealthPercent(),
			Status:        string(c.Status()),
			Attacks:       c.AttackCount,
		})
	}
	if full {
		out.Scores = types.NewScores(res.Scores)
		out.Detail = types.NewCastles(res.Castles(), 0)
	}
	return out, nil
}

// Command deal works with Klondike deals from the terminal, without a server.
//
//	deal show -seed 42          # print the opening layout of a seeded deal
//	deal autoplay -games 200    # greedy win rate over consecutive seeds
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/klondike/game/engine"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func seedFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "seed",
		Usage: "deal seed (random when empty)",
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "deal",
		Usage: "Inspect and autoplay Klondike deals",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the opening layout of a deal",
				Flags: []cli.Flag{seedFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					seed, err := parseSeed(cmd.String("seed"))
					if err != nil {
						return err
					}
					e, err := engine.NewEngine(engine.DefaultGameConfig(), engine.WithSeed(seed))
					if err != nil {
						return err
					}
					e.DealAll()
					state := e.Snapshot()

					pterm.DefaultSection.Printfln("Deal %d", state.Seed)
					pterm.Info.Printfln("Stock: %d cards", len(state.Stock.Cards))
					return pterm.DefaultTable.WithHasHeader().WithData(layoutTable(state)).Render()
				},
			},
			{
				Name:  "autoplay",
				Usage: "Play consecutive seeds greedily and report the win rate",
				Flags: []cli.Flag{
					seedFlag(),
					&cli.IntFlag{Name: "games", Value: 100, Usage: "number of deals to play"},
					&cli.IntFlag{Name: "max-steps", Value: defaultMaxSteps, Usage: "move limit per deal"},
					&cli.BoolFlag{Name: "verbose", Usage: "print one row per deal"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					first, err := parseSeed(cmd.String("seed"))
					if err != nil {
						return err
					}
					games := int(cmd.Int("games"))
					if games <= 0 {
						return fmt.Errorf("games must be positive, got %d", games)
					}

					results := make([]*PlayResult, 0, games)
					for i := 0; i < games; i++ {
						if err := ctx.Err(); err != nil {
							return err
						}
						r, err := Autoplay(first+uint64(i), int(cmd.Int("max-steps")))
						if err != nil {
							return err
						}
						results = append(results, r)
					}

					if cmd.Bool("verbose") {
						if err := pterm.DefaultTable.WithHasHeader().WithData(resultsTable(results)).Render(); err != nil {
							return err
						}
					}
					s := Summarize(results)
					pterm.Success.Printfln("Won %d of %d deals (%.1f%%), %.1f cards on foundations on average",
						s.Won, s.Games, s.WinRate*100, s.AvgFoundations)
					return nil
				},
			},
		},
	}
}

func parseSeed(s string) (uint64, error) {
	if s == "" {
		return rand.Uint64(), nil
	}
	seed, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q: %w", s, err)
	}
	return seed, nil
}

// Summary aggregates autoplay results
type Summary struct {
	Games          int
	Won            int
	WinRate        float64
	AvgFoundations float64
}

func Summarize(results []*PlayResult) Summary {
	s := Summary{Games: len(results)}
	if s.Games == 0 {
		return s
	}
	total := 0
	for _, r := range results {
		if r.Won {
			s.Won++
		}
		total += r.Foundations
	}
	s.WinRate = float64(s.Won) / float64(s.Games)
	s.AvgFoundations = float64(total) / float64(s.Games)
	return s
}

func cardLabel(c engine.Card) string {
	if !c.FaceUp {
		return "##"
	}
	return c.String()
}

// layoutTable renders the tableaus as columns, the first row being the bottom cards
func layoutTable(state *engine.GameState) pterm.TableData {
	header := make([]string, len(state.Tableaus))
	depth := 0
	for i, t := range state.Tableaus {
		header[i] = fmt.Sprintf("t%d", i)
		depth = max(depth, len(t.Cards))
	}

	data := pterm.TableData{header}
	for row := 0; row < depth; row++ {
		line := make([]string, len(state.Tableaus))
		for i, t := range state.Tableaus {
			if row < len(t.Cards) {
				line[i] = cardLabel(t.Cards[row])
			}
		}
		data = append(data, line)
	}
	return data
}

func resultsTable(results []*PlayResult) pterm.TableData {
	data := pterm.TableData{{"Seed", "Result", "Moves", "Foundations"}}
	for _, r := range results {
		outcome := "stuck"
		switch {
		case r.Won:
			outcome = "won"
		case !r.Stuck:
			outcome = "step limit"
		}
		data = append(data, []string{
			strconv.FormatUint(r.Seed, 10),
			outcome,
			strconv.Itoa(r.Moves),
			fmt.Sprintf("%d/52", r.Foundations),
		})
	}
	return data
}

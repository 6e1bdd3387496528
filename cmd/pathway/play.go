package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/pathway/internal/cli"
	"github.com/aretw0/pathway/internal/presentation/tui"
)

var playCmd = &cobra.Command{
	Use:   "play <module-id>",
	Short: "Play a module in the terminal",
	Long: `Starts or resumes the learner's session and plays it interactively.
Enter advances, a number takes a router choice, any other text answers a question.
Type 'b' to go back, 'r' to restart and 'q' to quit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd, false)
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		plain, _ := cmd.Flags().GetBool("plain")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		backend, err := cli.OpenBackend(sc, cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		engine, err := cli.NewEngine(cfg, backend, logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		opts := []cli.PlayerOption{cli.WithPlayerLogger(logger)}
		fd := int(os.Stdout.Fd())
		if !plain && term.IsTerminal(fd) {
			width, _, err := term.GetSize(fd)
			if err != nil || width <= 0 {
				width = 80
			}
			tui.PrintBanner(out)
			opts = append(opts, cli.WithRenderer(tui.NewRenderer(width)))
		}

		player := cli.NewPlayer(engine, cmd.InOrStdin(), out, opts...)
		return cli.HandleExecutionError(player.Run(sc, args[0], user))
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("user", "u", defaultUser(), "Learner id the session belongs to")
	playCmd.Flags().Bool("plain", false, "Disable Markdown rendering and the banner")
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "learner"
}

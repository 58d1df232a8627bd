package cli

import (
	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile and match history commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result *Profile
			if err := client.Get("/api/v1/profile", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.AddCommand(newProfileCreateCmd())
	cmd.AddCommand(newProfileRenameCmd())
	cmd.AddCommand(newProfileMatchesCmd())
	cmd.AddCommand(newProfileRecordCmd())

	return cmd
}

func newProfileCreateCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create your profile, or show it if it already exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result *Profile
			if err := client.Post("/api/v1/profile", map[string]string{"username": username}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (generated when empty)")

	return cmd
}

func newProfileRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <username>",
		Short: "Change your username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result *Profile
			if err := client.Patch("/api/v1/profile/username", map[string]string{"username": args[0]}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newProfileMatchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matches",
		Short: "List your most recent matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []MatchRecord
			if err := client.Get("/api/v1/profile/matches", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newProfileRecordCmd() *cobra.Command {
	var (
		playerChar, opponentChar string
		won                      bool
		roundsWon, roundsLost    int
		perfect                  int
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a match played outside the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"player_character":   playerChar,
				"opponent_character": opponentChar,
				"player_won":         won,
				"rounds_won":         roundsWon,
				"rounds_lost":        roundsLost,
				"perfect_rounds":     perfect,
			}
			var result MatchResult
			if err := client.Post("/api/v1/profile/matches", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerChar, "character", "", "Your character (required)")
	cmd.Flags().StringVar(&opponentChar, "opponent", "", "Opponent character (required)")
	cmd.Flags().BoolVar(&won, "won", false, "Whether you won the match")
	cmd.Flags().IntVar(&roundsWon, "rounds-won", 0, "Rounds you won")
	cmd.Flags().IntVar(&roundsLost, "rounds-lost", 0, "Rounds you lost")
	cmd.Flags().IntVar(&perfect, "perfect", 0, "Perfect rounds")
	_ = cmd.MarkFlagRequired("character")
	_ = cmd.MarkFlagRequired("opponent")

	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top captains by best win streak",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []LeaderboardEntry
			if err := client.Get("/api/v1/leaderboard", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

package cli

import (
	"github.com/spf13/cobra"
)

func newBattleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battle",
		Short: "Battle commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return battleRequest(func(result *BattleState) error {
				return client.Get("/api/v1/battle", result)
			})
		},
	}

	cmd.AddCommand(newBattleSelectCmd())
	cmd.AddCommand(newBattleMoveCmd())
	cmd.AddCommand(newBattleActionCmd("end-round", "Acknowledge the end of a round", "/api/v1/battle/end-round"))
	cmd.AddCommand(newBattleActionCmd("play-again", "Rematch against a new opponent", "/api/v1/battle/play-again"))
	cmd.AddCommand(newBattleActionCmd("menu", "Leave the battle and return to the menu", "/api/v1/battle/menu"))
	cmd.AddCommand(newBattleStrategyCmd())

	return cmd
}

func battleRequest(do func(result *BattleState) error) error {
	var result BattleState
	if err := do(&result); err != nil {
		return err
	}

	NewOutput(cfg.Output).Print(result)
	return nil
}

func newBattleSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <character>",
		Short: "Pick a fighter and start a match against a random opponent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return battleRequest(func(result *BattleState) error {
				return client.Post("/api/v1/battle/select", map[string]string{"character_id": args[0]}, result)
			})
		},
	}
}

func newBattleMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "move <light|heavy|special>",
		Short:     "Attack with one of your moves",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"light", "heavy", "special"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return battleRequest(func(result *BattleState) error {
				return client.Post("/api/v1/battle/move", map[string]string{"move_type": args[0]}, result)
			})
		},
	}
}

func newBattleActionCmd(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return battleRequest(func(result *BattleState) error {
				return client.Post(path, nil, result)
			})
		},
	}
}

func newBattleStrategyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategy [name]",
		Short: "List AI strategies, or set the one your opponent uses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)
			if len(args) == 0 {
				var result Strategies
				if err := client.Get("/api/v1/battle/strategies", &result); err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			if err := client.Post("/api/v1/battle/strategy", map[string]string{"strategy": args[0]}, nil); err != nil {
				return err
			}
			out.PrintMessage("Opponent strategy set to " + args[0])
			return nil
		},
	}
}

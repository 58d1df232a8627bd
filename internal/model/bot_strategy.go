package model

// Bot strategy constants
const (
	BotStrategyEasy   = "easy"
	BotStrategyMedium = "medium"
)

// BotStrategyDisplayName returns a human-readable label for a strategy
func BotStrategyDisplayName(strategy string) string {
	switch strategy {
	case BotStrategyEasy:
		return "Easy"
	case BotStrategyMedium:
		return "Medium"
	default:
		return strategy
	}
}

// ValidBotStrategies returns all valid bot strategy names
func ValidBotStrategies() []string {
	return []string{BotStrategyEasy, BotStrategyMedium}
}

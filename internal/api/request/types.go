package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateProfileRequest is the request body for creating a profile
type CreateProfileRequest struct {
	Username string `json:"username,omitempty"`
}

// UpdateUsernameRequest is the request body for renaming a profile
type UpdateUsernameRequest struct {
	Username string `json:"username"`
}

// RecordMatchRequest is the request body for recording a locally played match
type RecordMatchRequest struct {
	PlayerCharacter   string `json:"player_character"`
	OpponentCharacter string `json:"opponent_character"`
	PlayerWon         bool   `json:"player_won"`
	RoundsWon         int    `json:"rounds_won"`
	RoundsLost        int    `json:"rounds_lost"`
	PerfectRounds     int    `json:"perfect_rounds"`
}

// SelectCharacterRequest is the request body for choosing a fighter
type SelectCharacterRequest struct {
	CharacterID string `json:"character_id"`
}

// MoveRequest is the request body for attacking
type MoveRequest struct {
	MoveType string `json:"move_type"`
}

// SetStrategyRequest is the request body for changing the AI strategy
type SetStrategyRequest struct {
	Strategy string `json:"strategy"`
}

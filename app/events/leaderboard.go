package events

const (
	LeaderboardInvalidatedV1 = "leaderboard.invalidated.v1"
)

// LeaderboardInvalidatedPayloadV1 lists the boards that changed.
type LeaderboardInvalidatedPayloadV1 struct {
	Keys []LeaderboardKeyV1 `json:"keys"`
}

// LeaderboardKeyV1 identifies one board.
type LeaderboardKeyV1 struct {
	Period    string `json:"period"`
	PeriodKey string `json:"period_key"`
}

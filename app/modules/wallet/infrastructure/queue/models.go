package walletqueue

// BoosterExpiredJob fires when a booster runs out.
type BoosterExpiredJob struct {
	UserUUID  string `json:"user_uuid"`
	ExpiresAt int64  `json:"expires_at"`
}

// Kind returns the job type identifier for River
func (BoosterExpiredJob) Kind() string { return "booster_expired" }

// BoosterSweepJob periodically expires boosters whose job was lost.
type BoosterSweepJob struct{}

// Kind returns the job type identifier for River
func (BoosterSweepJob) Kind() string { return "booster_sweep" }

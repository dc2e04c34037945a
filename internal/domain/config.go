package domain

// RatePolicy is the per-sender submission limit. Limit 0 disables limiting.
type RatePolicy struct {
	Limit         int `json:"limit"`
	WindowMinutes int `json:"window_minutes"`
}

// Default values applied when a deployment has no settings row yet.
const (
	DefaultRateLimit         = 5
	DefaultRateWindowMinutes = 1
)

// Config is the merged, read-only view of a deployment's durable settings.
type Config struct {
	LogChannelID      string                `json:"log_channel_id"`
	AdminLogChannelID string                `json:"admin_log_channel_id"`
	Enabled           bool                  `json:"enabled"`
	BannedUsers       map[string]struct{}   `json:"-"`
	RatePolicy        RatePolicy            `json:"rate_policy"`
	Counters          map[MessageType]int64 `json:"counters"`
}

// ConfigPatch is a partial update. Nil fields are left unchanged.
type ConfigPatch struct {
	LogChannelID      *string     `json:"log_channel_id,omitempty"`
	AdminLogChannelID *string     `json:"admin_log_channel_id,omitempty"`
	Enabled           *bool       `json:"enabled,omitempty"`
	RatePolicy        *RatePolicy `json:"rate_policy,omitempty"`
}

// Apply merges p into s field by field.
func (p ConfigPatch) Apply(s *Settings) {
	if p.LogChannelID != nil {
		s.LogChannelID = *p.LogChannelID
	}
	if p.AdminLogChannelID != nil {
		s.AdminLogChannelID = *p.AdminLogChannelID
	}
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.RatePolicy != nil {
		s.RateLimit = p.RatePolicy.Limit
		s.RateWindowMinutes = p.RatePolicy.WindowMinutes
	}
}

// DefaultSettings returns the settings used before any admin write.
func DefaultSettings(deploymentID string) Settings {
	return Settings{
		DeploymentID:      deploymentID,
		Enabled:           true,
		RateLimit:         DefaultRateLimit,
		RateWindowMinutes: DefaultRateWindowMinutes,
	}
}

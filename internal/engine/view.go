package engine

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/languard-core/internal/blocklist"
	"github.com/nerrad567/languard-core/internal/presence"
)

// Duration renders as a Go duration string ("1h30m0s") in JSON.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DeviceView is one entry of a composed device list.
type DeviceView struct {
	MAC            string          `json:"mac"`
	IP             string          `json:"ip,omitempty"`
	Hostname       string          `json:"hostname,omitempty"`
	FirstSeen      *time.Time      `json:"first_seen,omitempty"`
	LastSeen       *time.Time      `json:"last_seen,omitempty"`
	OnlineDuration *Duration       `json:"online_duration,omitempty"`
	Status         presence.Status `json:"status"`
	Blocked        bool            `json:"blocked"`
	BlockedAt      *time.Time      `json:"blocked_at,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
}

// viewFromEnriched builds the view of a device that answered the sweep.
func viewFromEnriched(e presence.Enriched) DeviceView {
	first, last := e.FirstSeen, e.LastSeen
	dur := Duration(e.OnlineDuration)
	return DeviceView{
		MAC:            e.MAC,
		IP:             e.IP,
		Hostname:       e.Hostname,
		FirstSeen:      &first,
		LastSeen:       &last,
		OnlineDuration: &dur,
		Status:         presence.StatusOnline,
	}
}

// withBlock overlays an active ledger entry.
func (v DeviceView) withBlock(entry blocklist.Entry, status presence.Status) DeviceView {
	blockedAt := entry.BlockedAt
	v.Status = status
	v.Blocked = true
	v.BlockedAt = &blockedAt
	if entry.ExpiresAt != nil {
		exp := *entry.ExpiresAt
		v.ExpiresAt = &exp
	}
	return v
}

// Summary counts views per status.
type Summary struct {
	Online    int `json:"online"`
	Blocked   int `json:"blocked"`
	Scheduled int `json:"scheduled"`
}

// Summarize counts views per status.
func Summarize(views []DeviceView) Summary {
	var s Summary
	for _, v := range views {
		switch v.Status {
		case presence.StatusOnline:
			s.Online++
		case presence.StatusBlocked:
			s.Blocked++
		case presence.StatusScheduled:
			s.Scheduled++
		}
	}
	return s
}

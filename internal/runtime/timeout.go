package runtime

import (
	"time"

	"github.com/deepchat/deepchat/internal/tabs"
)

const idleTimeout = time.Second
const busyTimeout = 100 * time.Millisecond

// Notice is a transient status-line message that self-expires, ported
// from original_source's ui::state::Notice.
type Notice struct {
	Text      string
	ExpiresAt time.Time
}

// ComputeTimeout mirrors original_source's compute_timeout/
// notice_timeout exactly: 100ms while the active tab is busy streaming,
// otherwise the smaller of 1s and the time left until notice (the
// loop's single status-line notice) expires, or 1s flat if there is no
// notice.
func ComputeTimeout(model *tabs.Model, notice *Notice) time.Duration {
	active := model.Active()
	if active == nil {
		return idleTimeout
	}
	if active.App.Busy {
		return busyTimeout
	}
	if notice == nil {
		return idleTimeout
	}
	remaining := time.Until(notice.ExpiresAt)
	if remaining < 0 {
		remaining = 0
	}
	if remaining < idleTimeout {
		return remaining
	}
	return idleTimeout
}

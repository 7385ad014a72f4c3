package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordLifecycleEvent writes one onboarding lifecycle event.
//
// Events are tagged by action (register, approve, reject, status_check) and
// tenant so dashboards can chart registration volume and approval rates per
// tenant. The write is non-blocking; data is batched and sent asynchronously,
// and a disconnected client drops the point silently. Metrics must never
// slow down or fail the lifecycle itself.
func (c *Client) RecordLifecycleEvent(action, tenantID string) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(
		"onboarding_event",
		map[string]string{
			"action": action,
			"tenant": tenantID,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	))
}

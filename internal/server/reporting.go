package server

import (
	"context"
	"fmt"
)

// playingReport is the wire form of a playback report.
type playingReport struct {
	ItemID        string `json:"ItemId"`
	PlaySessionID string `json:"PlaySessionId"`
	PositionTicks int64  `json:"PositionTicks,omitempty"`
}

// ReportStart reports that playback started for a track.
//
// Reporting is fire-and-forget from the engine's point of view: callers
// run it off the playback path and only log failures.
func (c *Client) ReportStart(ctx context.Context, trackID string) error {
	if err := c.reportLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("report start: %w", err)
	}
	return c.post(ctx, "/Sessions/Playing", playingReport{
		ItemID:        trackID,
		PlaySessionID: c.playSessionID,
	})
}

// ReportStop reports that playback stopped for a track at the given
// position.
func (c *Client) ReportStop(ctx context.Context, trackID string, positionTicks int64) error {
	if err := c.reportLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("report stop: %w", err)
	}
	return c.post(ctx, "/Sessions/Playing/Stopped", playingReport{
		ItemID:        trackID,
		PlaySessionID: c.playSessionID,
		PositionTicks: positionTicks,
	})
}

package model

import "time"

// NetflowSnapshot is one row of the append-only netflows relation. The current
// value for an exchange is the row with the greatest ID for that label; prior
// rows are never mutated, forming the audit trail. All amounts are decimal
// strings, never floats.
type NetflowSnapshot struct {
	ID                int64     `json:"-"`
	Exchange          string    `json:"exchange"`
	Inflow            string    `json:"inflow"`
	Outflow           string    `json:"outflow"`
	CumulativeNetflow string    `json:"cumulative_netflow"`
	LastUpdated       time.Time `json:"last_updated"`
}

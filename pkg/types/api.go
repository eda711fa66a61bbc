package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid view: "pie" is not one of [area stacked expand hidden]
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ChannelStatus reports the sequencing counters of one request channel.
type ChannelStatus struct {
	// Channel name (endpoint name unless overridden).
	// example: counts-q1
	Name string `json:"name" example:"counts-q1"`
	// Number of requests issued on the channel.
	// example: 12
	Sent uint64 `json:"sent" example:"12"`
	// Sequence number of the last accepted response.
	// example: 11
	Received uint64 `json:"received" example:"11"`
}

// PollStatus reports one poll scheduler.
type PollStatus struct {
	// example: timeline-q1
	Name string `json:"name" example:"timeline-q1"`
	// Whether the poll is currently ticking.
	// example: true
	Polling bool `json:"polling" example:"true"`
	// Tick interval in milliseconds.
	// example: 10000
	IntervalMS int64 `json:"interval_ms" example:"10000"`
}

// PanelStatus reports the freshness of a panel's data.
type PanelStatus struct {
	// example: tweets
	Name string `json:"name" example:"tweets"`
	// Number of accepted results the panel has applied.
	// example: 3
	Updates uint64 `json:"updates" example:"3"`
	// Unix seconds of the last applied result; 0 when none yet.
	// example: 1700000000
	UpdatedUnix int64 `json:"updated_unix" example:"1700000000"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Request channels and their counters, sorted by name.
	Channels []ChannelStatus `json:"channels"`
	// Poll schedulers owned by the session.
	Polls []PollStatus `json:"polls"`
	// Panels and their freshness.
	Panels []PanelStatus `json:"panels"`
	// Whether the session is running.
	// example: true
	Running bool `json:"running" example:"true"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// PanelResponse is returned by GET /panels/{name}.
type PanelResponse struct {
	// example: tweets
	Name string `json:"name" example:"tweets"`
	// The latest accepted payload, per query id.
	Data map[string]any `json:"data" swaggertype:"object"`
}

// ModelResponse is returned by GET and PATCH /models/{name}.
type ModelResponse struct {
	// example: query-0
	Name string `json:"name" example:"query-0"`
	// Current field values.
	Data map[string]any `json:"data" swaggertype:"object"`
	// Reason the last rejected update failed; empty when none has been rejected.
	// example: invalid min_rt: must not be negative
	Invalid string `json:"invalid,omitempty" example:"invalid min_rt: must not be negative"`
}

// NamesResponse lists the names accepted by /models/{name} or /panels/{name}.
type NamesResponse struct {
	Names []string `json:"names"`
}

// RefreshResponse is returned by POST /refresh once every issued request has
// completed.
type RefreshResponse struct {
	// example: 14
	Requested int `json:"requested" example:"14"`
	// Responses delivered to the panels.
	// example: 13
	Accepted int `json:"accepted" example:"13"`
	// Responses dropped because a newer request on the same channel was issued.
	// example: 1
	Stale int `json:"stale" example:"1"`
	// example: 0
	Failed int `json:"failed" example:"0"`
}

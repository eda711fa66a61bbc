package requests

import "sync"

// channel holds the sequencing state of one request channel. sent and received
// are guarded by Manager.mu; deliver serializes completion handling so that
// notifications on a channel are never reordered.
type channel struct {
	name     string
	sent     uint64
	received uint64

	deliver sync.Mutex
}

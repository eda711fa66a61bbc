package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"livedash/internal/model"
	"livedash/internal/poll"
	"livedash/internal/requests"
	"livedash/pkg/types"
)

// DefaultBinSize is the timeline's count bucket width.
const DefaultBinSize = time.Minute

// TimelineOptions configure a Timeline.
type TimelineOptions struct {
	Queries  []*model.Query
	Interval *model.Interval
	BinSize  time.Duration
	// LiveInterval enables a poll that refreshes the counts; zero disables it.
	LiveInterval time.Duration
	Overlap      poll.Overlap
	Clock        quartz.Clock
	Logger       *zerolog.Logger
	PollMetrics  *poll.Metrics
}

// Timeline shows binned counts for each query over the interval's whole range.
type Timeline struct {
	*ListPanel
	binSize time.Duration
	live    *poll.Poll
}

func NewTimeline(m *requests.Manager, opts TimelineOptions) (*Timeline, error) {
	if opts.BinSize <= 0 {
		opts.BinSize = DefaultBinSize
	}
	t := &Timeline{binSize: opts.BinSize}
	t.ListPanel = NewListPanel(m, ListOptions{
		Name:           "timeline",
		Endpoint:       requests.EndpointCounts,
		Fetch:          (*requests.Manager).Counts,
		Params:         t.params,
		Queries:        opts.Queries,
		Interval:       opts.Interval,
		IntervalFields: []string{"min", "max"},
		Clock:          opts.Clock,
		Logger:         opts.Logger,
	})
	if opts.LiveInterval > 0 {
		p, err := poll.New(poll.Options{
			Name:     "timeline",
			Callback: t.refreshAndWait,
			Interval: opts.LiveInterval,
			Overlap:  opts.Overlap,
			Clock:    opts.Clock,
			Logger:   opts.Logger,
			Metrics:  opts.PollMetrics,
		})
		if err != nil {
			t.ListPanel.Close()
			return nil, err
		}
		t.live = p
	}
	return t, nil
}

func (t *Timeline) params(q *model.Query, iv *model.Interval) types.Params {
	p := types.Params{}
	if q != nil {
		p = q.Params()
	}
	if iv != nil {
		p["from"] = iv.Min()
		p["to"] = iv.Max()
	}
	p["interval"] = t.binSize.Seconds()
	return p
}

func (t *Timeline) BinSize() time.Duration { return t.binSize }

// Poll returns the live poll, or nil when live updates are disabled.
func (t *Timeline) Poll() *poll.Poll { return t.live }

func (t *Timeline) refreshAndWait(ctx context.Context) error {
	var errs []error
	for _, c := range t.Refresh() {
		if err := c.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StartLive starts the live poll if there is one.
func (t *Timeline) StartLive() {
	if t.live != nil {
		t.live.Start()
	}
}

// StopLive stops the live poll and waits for a running refresh to return.
func (t *Timeline) StopLive() {
	if t.live != nil {
		t.live.Stop()
		t.live.Wait()
	}
}

func (t *Timeline) Close() {
	t.StopLive()
	t.ListPanel.Close()
}

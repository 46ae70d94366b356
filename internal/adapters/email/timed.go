package email

import (
	"context"
	"time"

	"dietwithdee/internal/adapters/http/perf"
)

// TimedSender records every provider call on a perf collector.
type TimedSender struct {
	next      Sender
	collector *perf.Collector
	label     string
	now       func() time.Time
}

// Timed wraps s so each Send and SendBatch lands in c as a KindSend entry
// labelled "send <provider>". A nil collector returns s unchanged.
func Timed(s Sender, c *perf.Collector, provider string) Sender {
	if c == nil {
		return s
	}
	return &TimedSender{next: s, collector: c, label: "send " + provider, now: time.Now}
}

func (t *TimedSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	start := t.now()
	res, err := t.next.Send(ctx, req)
	t.record(t.label, start, err)
	return res, err
}

// SendBatch is recorded as one entry; batches are labelled separately so
// their latency does not skew single sends.
func (t *TimedSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	start := t.now()
	res, err := t.next.SendBatch(ctx, reqs)
	t.record(t.label+" batch", start, err)
	return res, err
}

func (t *TimedSender) record(label string, start time.Time, err error) {
	end := t.now()
	t.collector.Record(perf.Entry{
		Kind:       perf.KindSend,
		Path:       label,
		StatusCode: StatusCode(err),
		Failed:     err != nil,
		DurationMs: float64(end.Sub(start).Microseconds()) / 1000,
		Timestamp:  end,
	})
}

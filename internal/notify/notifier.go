package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultWorkers    = 4
	defaultQueueDepth = 256
	defaultTimeout    = 30 * time.Second
)

// refreshPayload is the POST body sent to a namespace's callback URL
// (spec.md §4.10, step 4).
type refreshPayload struct {
	AppName string `json:"appName"`
}

type job struct {
	namespace string
	appName   string
	trackID   string
	url       string
}

// Notifier is the Notifier (C10): a fixed-size worker pool dispatching
// refresh callbacks and recording their outcome in NotifyStore.
type Notifier struct {
	store       *Store
	callbackURL map[string]string
	client      *http.Client
	timeout     time.Duration
	log         *zap.Logger

	jobs chan job
	wg   sync.WaitGroup
	stop chan struct{}

	dispatched prometheus.Counter
	succeeded  prometheus.Counter
	failed     prometheus.Counter

	workersOverride int
}

// Option configures Notifier construction.
type Option func(*Notifier)

// WithWorkers overrides the worker pool size (default 4).
func WithWorkers(n int) Option {
	return func(no *Notifier) {
		if n > 0 {
			no.workersOverride = n
		}
	}
}

// New constructs a Notifier. callbackURL maps namespace name to its
// configured refresh callback (spec.md §6, `refreshNotifyUrl`); a
// namespace absent from the map has no-op sends (spec.md §4.10, step 3).
func New(store *Store, callbackURL map[string]string, registry prometheus.Registerer, log *zap.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		store:       store,
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: defaultTimeout},
		timeout:     defaultTimeout,
		log:         log,
		jobs:        make(chan job, defaultQueueDepth),
		stop:        make(chan struct{}),
		dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "configserver_notify_dispatched_total",
			Help: "Total refresh notifications dispatched to callback URLs.",
		}),
		succeeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "configserver_notify_success_total",
			Help: "Total refresh notifications that completed with a 2xx response.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "configserver_notify_failed_total",
			Help: "Total refresh notifications that errored or received a non-2xx response.",
		}),
	}
	for _, o := range opts {
		o(n)
	}
	if registry != nil {
		registry.MustRegister(n.dispatched, n.succeeded, n.failed)
	}

	workers := defaultWorkers
	if n.workersOverride > 0 {
		workers = n.workersOverride
	}
	n.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go n.worker()
	}
	return n
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for {
		select {
		case <-n.stop:
			return
		case j, ok := <-n.jobs:
			if !ok {
				return
			}
			n.deliver(j)
		}
	}
}

// SendRefresh computes a tracking ID, records an IN_PROGRESS notification,
// and either marks it SUCCESS immediately (no callback configured) or
// enqueues the HTTP dispatch (spec.md §4.10).
func (n *Notifier) SendRefresh(namespace, appName, commitID string) {
	trackID := commitID
	if trackID == "" {
		trackID = fmt.Sprintf("notify-%d-%s", time.Now().UnixMilli(), appName)
	}

	n.store.Record(namespace, Notification{
		ID:            trackID,
		Status:        StatusInProgress,
		InitiatedTime: time.Now(),
	})

	url, ok := n.callbackURL[namespace]
	if !ok || url == "" {
		n.store.UpdateAtomic(namespace, trackID, func(ntf Notification) Notification {
			ntf.Status = StatusSuccess
			return ntf
		})
		return
	}

	select {
	case n.jobs <- job{namespace: namespace, appName: appName, trackID: trackID, url: url}:
		n.dispatched.Inc()
	case <-n.stop:
	}
}

func (n *Notifier) deliver(j job) {
	body, err := json.Marshal(refreshPayload{AppName: j.appName})
	if err != nil {
		n.markFailed(j, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.url, bytes.NewReader(body))
	if err != nil {
		n.markFailed(j, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.markFailed(j, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.markFailed(j, fmt.Errorf("callback returned status %d", resp.StatusCode))
		return
	}

	n.succeeded.Inc()
	n.store.UpdateAtomic(j.namespace, j.trackID, func(ntf Notification) Notification {
		ntf.Status = StatusSuccess
		return ntf
	})
}

func (n *Notifier) markFailed(j job, cause error) {
	n.failed.Inc()
	n.log.Warn("refresh notification failed",
		zap.String("namespace", j.namespace), zap.String("appName", j.appName),
		zap.String("url", j.url), zap.Error(cause))
	n.store.UpdateAtomic(j.namespace, j.trackID, func(ntf Notification) Notification {
		ntf.Status = StatusFailed
		return ntf
	})
}

// Shutdown interrupts the worker pool; in-flight requests may be abandoned
// (spec.md §4.10, step 6).
func (n *Notifier) Shutdown() {
	close(n.stop)
	n.wg.Wait()
}

package main

import (
	"context"
	"log"
	"time"
)

type alertSink interface {
	String() string
	send(ctx context.Context, l *syslogEnt) error
	close(ctx context.Context) error
}

// notifier fans alerts out to every configured sink from one goroutine.
type notifier struct {
	sinks  []alertSink
	ch     chan *syslogEnt
	done   chan struct{}
	runID  string
	count  int
	failed int
}

func newNotifier(runID string, sinks ...alertSink) *notifier {
	return &notifier{
		sinks: sinks,
		ch:    make(chan *syslogEnt, 1000),
		done:  make(chan struct{}),
		runID: runID,
	}
}

func (n *notifier) start(ctx context.Context) {
	go func() {
		defer close(n.done)
		for l := range n.ch {
			n.count++
			for _, s := range n.sinks {
				if err := s.send(ctx, l); err != nil {
					n.failed++
					log.Printf("send err=%v sink=%s", err, s)
				}
			}
		}
	}()
}

func (n *notifier) send(severity int, typ, key, msg string) {
	if len(n.sinks) < 1 {
		return
	}
	n.ch <- &syslogEnt{
		Time:     time.Now(),
		Severity: severity,
		Type:     typ,
		Key:      key,
		RunID:    n.runID,
		Msg:      msg,
	}
}

// stop drains pending alerts and closes the sinks.
func (n *notifier) stop(ctx context.Context) {
	close(n.ch)
	<-n.done
	for _, s := range n.sinks {
		if err := s.close(ctx); err != nil {
			log.Printf("close err=%v sink=%s", err, s)
		}
	}
	if len(n.sinks) > 0 {
		log.Printf("alerts sent=%d failed=%d", n.count, n.failed)
	}
}

// shutdown stops the notifier on a fresh context so that sinks can still
// flush after the run context was cancelled by a signal.
func (n *notifier) shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n.stop(ctx)
}

// notifyResults sends the flagged events, infected pairs, privileged
// accounts, per event ID summary and run stats.
func notifyResults(n *notifier, e *Engine) {
	for _, ev := range e.Records() {
		if ev.IsGolden {
			n.send(ev.AlertLevel.severity(), "GoldenTicket", ev.AccountName, ev.String())
		}
	}
	for _, g := range e.Infected() {
		n.send(2, "Kerberos", g.Account, countKerberos(g).String())
	}
	for _, p := range e.Privileged() {
		n.send(6, "Privilege", p.Account, p.String())
	}
	for _, s := range e.EventSummary() {
		n.send(6, "Summary", "", s.String())
	}
	n.send(6, "Stats", "", e.Stats.String())
}

package main

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type engineConfig struct {
	SuspiciousCmd []string
	// nil disables the admin list rule
	AdminWhiteList []string
	AttackStart    time.Time
	Rules          []string
	Dedup          bool
	Encoding       string
	Workers        int
}

// Stats are the run counters printed in the detection rate report.
type Stats struct {
	Files            int
	Failed           int
	Lines            int
	Events           int
	Dropped          int
	Duplicates       int
	BadTimes         int
	LogCnt           int
	DataNum          int
	DetectedEventNum int
	InfectedNum      int
	Train            int
	Test             int
	Outlier          int
}

func (s *Stats) String() string {
	return fmt.Sprintf("type=Stats,files=%d,failed=%d,lines=%d,events=%d,dropped=%d,duplicates=%d,badTimes=%d,total=%d,pairs=%d,tpEvent=%d,tpPair=%d,train=%d,test=%d,outlier=%d",
		s.Files, s.Failed, s.Lines, s.Events, s.Dropped, s.Duplicates, s.BadTimes,
		s.LogCnt, s.DataNum, s.DetectedEventNum, s.InfectedNum,
		s.Train, s.Test, s.Outlier)
}

// Engine owns the in-memory log of one run: the account index, the
// privileged account set and the counters.
type Engine struct {
	RunID string
	Stats Stats

	cfg      engineConfig
	det      *detector
	accounts []string
	log      map[string][]*EventRecord
	seen     map[string]map[string]bool
	admins   privilegeSet
	summary  map[int]*eventSummaryEnt
	groups   []*computerGroup
	chrono   [][]*EventRecord
	ordered  []*EventRecord
}

func NewEngine(cfg engineConfig) (*Engine, error) {
	det, err := newDetector(cfg.Rules, cfg.SuspiciousCmd, cfg.AdminWhiteList)
	if err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Engine{
		RunID:   uuid.New().String(),
		cfg:     cfg,
		det:     det,
		log:     make(map[string][]*EventRecord),
		seen:    make(map[string]map[string]bool),
		admins:  make(privilegeSet),
		summary: make(map[int]*eventSummaryEnt),
	}, nil
}

// Run ingests every export in dir, detects and labels.
func (e *Engine) Run(ctx context.Context, dir string) error {
	if err := e.IngestDir(ctx, dir); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Analyze(ctx); err != nil {
		return err
	}
	e.Label()
	return nil
}

func (e *Engine) IngestDir(ctx context.Context, dir string) error {
	files, err := listEventLogFiles(dir)
	if err != nil {
		return fmt.Errorf("list input dir: %w", err)
	}
	if len(files) < 1 {
		log.Printf("no csv file in %s", dir)
	}
	e.IngestFiles(ctx, files)
	return nil
}

// IngestFiles reads files concurrently and merges them in the given order.
// A file that cannot be read to the end is logged and skipped as a whole.
func (e *Engine) IngestFiles(ctx context.Context, files []string) {
	results := make([]*fileResult, len(files))
	failed := make([]bool, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			st := time.Now()
			r, err := readEventLogFile(f, e.cfg.Encoding)
			if err != nil {
				log.Printf("read err=%v file=%s skipped", err, f)
				failed[i] = true
				return nil
			}
			if r != nil {
				log.Printf("read file=%s lines=%d events=%d records=%d dur=%s",
					r.File, r.Lines, r.Events, len(r.Records), time.Since(st))
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("ingest err=%v", err)
	}
	for i, r := range results {
		if failed[i] {
			e.Stats.Failed++
			continue
		}
		if r != nil {
			e.merge(r)
		}
	}
}

func (e *Engine) merge(r *fileResult) {
	e.Stats.Files++
	e.Stats.Lines += r.Lines
	e.Stats.Events += r.Events
	e.Stats.Dropped += r.Dropped
	e.Stats.BadTimes += r.BadTimes
	for _, a := range r.Admins {
		e.admins.add(a)
	}
	for id, s := range r.Summary {
		if es, ok := e.summary[id]; ok {
			es.merge(s)
		} else {
			c := *s
			e.summary[id] = &c
		}
	}
	for _, ev := range r.Records {
		e.add(ev)
	}
}

func (e *Engine) add(ev *EventRecord) {
	a := ev.AccountName
	if e.cfg.Dedup {
		seen, ok := e.seen[a]
		if !ok {
			seen = make(map[string]bool)
			e.seen[a] = seen
		}
		k := ev.key()
		if seen[k] {
			e.Stats.Duplicates++
			return
		}
		seen[k] = true
	}
	if _, ok := e.log[a]; !ok {
		e.accounts = append(e.accounts, a)
	}
	e.log[a] = append(e.log[a], ev)
}

// Analyze back-fills client addresses, groups each account by computer and
// runs the detection rules. Accounts are independent and run concurrently.
func (e *Engine) Analyze(ctx context.Context) error {
	perAccount := make([][]*computerGroup, len(e.accounts))
	e.chrono = make([][]*EventRecord, len(e.accounts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, a := range e.accounts {
		i, a := i, a
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			evs := e.log[a]
			e.chrono[i] = backfillClientAddress(evs)
			groups := groupByComputer(a, evs)
			for _, cg := range groups {
				rewindow(cg)
				e.det.detect(cg)
			}
			perAccount[i] = groups
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	e.groups = e.groups[:0]
	e.Stats.LogCnt, e.Stats.DataNum, e.Stats.DetectedEventNum, e.Stats.InfectedNum = 0, 0, 0, 0
	for _, groups := range perAccount {
		for _, cg := range groups {
			e.groups = append(e.groups, cg)
			e.Stats.LogCnt += len(cg.Events)
			if cg.Account != "" && cg.Computer != "" {
				e.Stats.DataNum++
			}
			for _, ev := range cg.Events {
				if ev.IsGolden {
					e.Stats.DetectedEventNum++
				}
			}
			if cg.Infected {
				e.Stats.InfectedNum++
				log.Printf("infected %s", cg)
			}
		}
	}
	return nil
}

// Label assigns dataset labels per account, session bucket by session
// bucket, oldest first.
func (e *Engine) Label() {
	l := newLabeler(e.Stats.LogCnt, e.cfg.AttackStart)
	e.ordered = e.ordered[:0]
	e.Stats.Train, e.Stats.Test, e.Stats.Outlier = 0, 0, 0
	for i := range e.chrono {
		for _, bg := range groupByBucket(e.chrono[i]) {
			for _, ev := range bg.Events {
				switch l.label(ev) {
				case targetTrain:
					e.Stats.Train++
				case targetTest:
					e.Stats.Test++
				case targetOutlier:
					e.Stats.Outlier++
				}
				e.ordered = append(e.ordered, ev)
			}
		}
	}
}

// Records returns the labeled events in output order.
func (e *Engine) Records() []*EventRecord {
	return e.ordered
}

// Account returns the indexed events of one account in ingest order.
func (e *Engine) Account(name string) []*EventRecord {
	return e.log[name]
}

func (e *Engine) Accounts() []string {
	return e.accounts
}

func (e *Engine) Groups() []*computerGroup {
	return e.groups
}

func (e *Engine) Infected() []*computerGroup {
	ret := []*computerGroup{}
	for _, g := range e.groups {
		if g.Infected {
			ret = append(ret, g)
		}
	}
	return ret
}

func (e *Engine) Privileged() []*privilegeEnt {
	return e.admins.list(e.det.adminWhiteList)
}

func (e *Engine) EventSummary() []*eventSummaryEnt {
	ret := []*eventSummaryEnt{}
	for _, s := range e.summary {
		ret = append(ret, s)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].EventID < ret[j].EventID
	})
	return ret
}

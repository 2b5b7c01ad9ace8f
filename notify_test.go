package main

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	mu       sync.Mutex
	logs     []*syslogEnt
	fail     bool
	closed   bool
	closeErr error
}

func (m *memSink) String() string { return "mem" }

func (m *memSink) send(ctx context.Context, l *syslogEnt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("unreachable")
	}
	m.logs = append(m.logs, l)
	return nil
}

func (m *memSink) close(ctx context.Context) error {
	m.closed = true
	m.closeErr = ctx.Err()
	return nil
}

func (m *memSink) types() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make(map[string]int)
	for _, l := range m.logs {
		ret[l.Type]++
	}
	return ret
}

func TestNotifyResults(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "dc01.csv",
		privEvent("2023/01/01 10:00:01", "alice"),
		stEvent("2023/01/01 10:00:00", "alice", "10.0.0.5", "cifs/fs01"),
	)
	e := newTestEngine(t, engineConfig{})
	require.NoError(t, e.Run(context.Background(), dir))

	ok := &memSink{}
	bad := &memSink{fail: true}
	n := newNotifier(e.RunID, ok, bad)
	n.start(context.Background())
	notifyResults(n, e)
	n.stop(context.Background())

	types := ok.types()
	assert.Equal(t, 1, types["GoldenTicket"])
	assert.Equal(t, 1, types["Kerberos"])
	assert.Equal(t, 1, types["Privilege"])
	assert.Equal(t, 2, types["Summary"])
	assert.Equal(t, 1, types["Stats"])
	assert.Equal(t, 6, n.count)
	assert.Equal(t, 6, n.failed)
	assert.True(t, ok.closed)
	assert.True(t, bad.closed)
	for _, l := range ok.logs {
		assert.Equal(t, e.RunID, l.RunID)
		if l.Type == "GoldenTicket" {
			assert.Equal(t, 2, l.Severity)
			assert.Contains(t, l.Msg, "type=GoldenTicket,account=alice,computer=10.0.0.5,eventID=4769")
		}
	}
}

func TestNotifierWithoutSinks(t *testing.T) {
	n := newNotifier("run")
	n.start(context.Background())
	n.send(6, "Stats", "", "type=Stats")
	n.stop(context.Background())
	assert.Equal(t, 0, n.count)
}

func TestSyslogSink(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	s, err := newSyslogSink(pc.LocalAddr().String())
	require.NoError(t, err)
	defer s.close(context.Background())
	require.NoError(t, s.send(context.Background(), &syslogEnt{
		Time:     time.Now(),
		Severity: 2,
		Msg:      "type=GoldenTicket,account=alice",
	}))

	buf := make([]byte, 2048)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	l, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	msg := string(buf[:l])
	assert.True(t, strings.HasPrefix(msg, "<170>"), msg)
	assert.True(t, strings.HasSuffix(msg, " twgtdetect: type=GoldenTicket,account=alice"), msg)
}

func TestMonitorMsg(t *testing.T) {
	msg := monitorMsg()
	assert.True(t, strings.HasPrefix(msg, "type=Monitor,"), msg)
	assert.Contains(t, msg, "goroutine=")
}

func TestNotifierShutdownAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &memSink{}
	n := newNotifier("run", m)
	n.start(ctx)
	n.send(2, "GoldenTicket", "alice", "type=GoldenTicket,account=alice")
	cancel()
	n.shutdown(time.Second)
	assert.True(t, m.closed)
	assert.NoError(t, m.closeErr, "sinks flush on a live context")
	assert.Len(t, m.logs, 1)
}

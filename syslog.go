package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

type syslogEnt struct {
	Time     time.Time `json:"time"`
	Severity int       `json:"severity"`
	Type     string    `json:"type"`
	Key      string    `json:"key,omitempty"`
	RunID    string    `json:"runID"`
	Msg      string    `json:"msg"`
}

// syslogSink sends alerts as RFC 3164 style messages over UDP.
type syslogSink struct {
	dst  []net.Conn
	host string
}

func newSyslogSink(syslogDst string) (*syslogSink, error) {
	s := &syslogSink{}
	for _, d := range strings.Split(syslogDst, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if !strings.Contains(d, ":") {
			d += ":514"
		}
		c, err := net.Dial("udp", d)
		if err != nil {
			s.close(context.Background())
			return nil, err
		}
		s.dst = append(s.dst, c)
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	s.host = host
	return s, nil
}

func (s *syslogSink) String() string {
	return "syslog"
}

func (s *syslogSink) send(ctx context.Context, l *syslogEnt) error {
	msg := fmt.Sprintf("<%d>%s %s twgtdetect: %s", 21*8+l.Severity, l.Time.Format("2006-01-02T15:04:05-07:00"), s.host, l.Msg)
	for _, d := range s.dst {
		if _, err := d.Write([]byte(msg)); err != nil {
			return err
		}
	}
	return nil
}

func (s *syslogSink) close(ctx context.Context) error {
	for _, d := range s.dst {
		d.Close()
	}
	return nil
}

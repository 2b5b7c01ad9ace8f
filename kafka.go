package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/segmentio/kafka-go"
)

// kafkaSink collects alerts and writes them to a topic in one batch on close.
type kafkaSink struct {
	writer *kafka.Writer
	msgs   []kafka.Message
}

func newKafkaSink(brokers, topic string) *kafkaSink {
	addrs := []string{}
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	return &kafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(addrs...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
	}
}

func (s *kafkaSink) String() string {
	return "kafka"
}

func (s *kafkaSink) send(ctx context.Context, l *syslogEnt) error {
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	s.msgs = append(s.msgs, kafka.Message{
		Key:   []byte(l.Key),
		Value: b,
		Time:  l.Time,
	})
	return nil
}

func (s *kafkaSink) close(ctx context.Context) error {
	defer s.writer.Close()
	if len(s.msgs) < 1 {
		return nil
	}
	err := s.writer.WriteMessages(ctx, s.msgs...)
	s.msgs = nil
	return err
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// mqttSink publishes alerts as JSON to <topic>/<type>.
type mqttSink struct {
	client mqtt.Client
	topic  string
}

func newMQTTSink(broker, clientID, user, password, topic string) (*mqttSink, error) {
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	if strings.Count(broker, ":") < 2 {
		broker += ":1883"
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(time.Second * 10)
	opts.SetWriteTimeout(time.Second * 10)
	if user != "" {
		opts.SetUsername(user)
		opts.SetPassword(password)
	}
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return &mqttSink{
		client: client,
		topic:  strings.TrimSuffix(topic, "/"),
	}, nil
}

func (s *mqttSink) String() string {
	return "mqtt"
}

func (s *mqttSink) send(ctx context.Context, l *syslogEnt) error {
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	token := s.client.Publish(s.topic+"/"+strings.ToLower(l.Type), 1, false, b)
	token.Wait()
	return token.Error()
}

func (s *mqttSink) close(ctx context.Context) error {
	s.client.Disconnect(250)
	return nil
}

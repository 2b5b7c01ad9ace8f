package main

import (
	"math"
	"time"
)

// share of events labeled train when no attack start time is given
const trainRatio = 0.75

// dataset labels
const (
	targetTrain   = "train"
	targetTest    = "test"
	targetOutlier = "outlier"
)

// labeler assigns dataset labels to events in processing order.
type labeler struct {
	attackStart time.Time
	trainTarget int
	trained     int
}

func newLabeler(total int, attackStart time.Time) *labeler {
	return &labeler{
		attackStart: attackStart,
		trainTarget: int(math.Round(float64(total) * trainRatio)),
	}
}

// label sets and returns the target of e.
func (l *labeler) label(e *EventRecord) string {
	switch {
	case e.IsGolden:
		e.Target = targetOutlier
	case !l.attackStart.IsZero():
		if e.Time.Before(l.attackStart) {
			e.Target = targetTrain
		} else {
			e.Target = targetTest
		}
	case l.trained < l.trainTarget:
		e.Target = targetTrain
		l.trained++
	default:
		e.Target = targetTest
	}
	return e.Target
}

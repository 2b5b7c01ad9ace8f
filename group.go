package main

import (
	"hash/fnv"
)

// computerGroup holds the events of one account seen from one client address.
type computerGroup struct {
	Account  string
	Computer string
	Events   []*EventRecord
	Infected bool
}

func (g *computerGroup) String() string {
	return "Account: " + g.Account + ", Computer: " + g.Computer
}

// bucketGroup holds the events of one account sharing a session bucket.
type bucketGroup struct {
	Bucket int64
	Events []*EventRecord
}

// groupByComputer partitions an account's events by client address, keeping
// first-seen order of addresses and events.
func groupByComputer(account string, evs []*EventRecord) []*computerGroup {
	ret := []*computerGroup{}
	idx := make(map[string]*computerGroup)
	for _, e := range evs {
		g, ok := idx[e.ClientAddress]
		if !ok {
			g = &computerGroup{Account: account, Computer: e.ClientAddress}
			idx[e.ClientAddress] = g
			ret = append(ret, g)
		}
		g.Events = append(g.Events, e)
	}
	return ret
}

// rewindow makes bucket ids unique per account and computer so that the same
// file bucket seen from two computers no longer collides.
func rewindow(g *computerGroup) {
	base := computerHash(g.Account + g.Computer)
	for _, e := range g.Events {
		e.TimeBucket = base + e.TimeBucket
	}
}

func computerHash(s string) int64 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int64(int32(h.Sum32()))
}

// groupByBucket partitions events by bucket in first-seen order.
func groupByBucket(evs []*EventRecord) []*bucketGroup {
	ret := []*bucketGroup{}
	idx := make(map[int64]*bucketGroup)
	for _, e := range evs {
		g, ok := idx[e.TimeBucket]
		if !ok {
			g = &bucketGroup{Bucket: e.TimeBucket}
			idx[e.TimeBucket] = g
			ret = append(ret, g)
		}
		g.Events = append(g.Events, e)
	}
	return ret
}

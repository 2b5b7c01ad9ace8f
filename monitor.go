package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
)

var startTime = time.Now()

// monitorMsg reports host and process resource usage of the run.
func monitorMsg() string {
	cpus := 0.0
	if a, err := cpu.Percent(0, false); err == nil && len(a) > 0 {
		cpus = a[0]
	}
	memUsed := 0.0
	if v, err := mem.VirtualMemory(); err == nil {
		memUsed = v.UsedPercent
	}
	var rss uint64
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if m, err := p.MemoryInfo(); err == nil {
			rss = m.RSS
		}
	}
	return fmt.Sprintf("type=Monitor,cpu=%.3f,mem=%.3f,rss=%d,goroutine=%d,elapsed=%.3f",
		cpus, memUsed, rss, runtime.NumGoroutine(), time.Since(startTime).Seconds())
}

func sendMonitor(n *notifier) {
	msg := monitorMsg()
	log.Println(msg)
	n.send(6, "Monitor", "", msg)
}

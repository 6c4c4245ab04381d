package engine

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mvp-joe/spyglass/internal/search"
)

// exporterInterval is how often a monitoring sample is taken.
const exporterInterval = 10 * time.Second

// monitorSample is one exported measurement. Samples land in the local
// date-stamped monitoring index and are shipped as JSON lines to every
// export host.
type monitorSample struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Cluster    string    `json:"cluster"`
	Node       string    `json:"node"`
	Docs       uint64    `json:"docs"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryUsed uint64    `json:"memory_used"`
}

type exporter struct {
	node     *Node
	hosts    []string
	interval time.Duration
}

func (n *Node) startExporter(ctx context.Context) {
	e := &exporter{
		node:     n,
		hosts:    strings.Split(n.settings.Get(search.KeyMonitorHosts), ","),
		interval: exporterInterval,
	}
	n.wg.Add(1)
	go e.run(ctx)
}

func (e *exporter) run(ctx context.Context) {
	defer e.node.wg.Done()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.export(e.sample())
		}
	}
}

// sample collects the current process and index stats. Collection errors
// degrade to zero values; monitoring never takes the node down.
func (e *exporter) sample() monitorSample {
	s := monitorSample{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Cluster:   e.node.settings.ClusterName(),
		Node:      e.node.settings.NodeName(),
	}
	if docs, err := e.node.DocCount(); err == nil {
		s.Docs = docs
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		s.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemoryUsed = vm.Used
	}
	return s
}

// export stores the sample locally and ships it to every export host.
// Per-host failures are logged and never stop the loop.
func (e *exporter) export(s monitorSample) {
	e.store(s)

	line, err := json.Marshal(s)
	if err != nil {
		log.Printf("WARN: failed to encode monitoring sample: %v", err)
		return
	}
	line = append(line, '\n')
	for _, host := range e.hosts {
		if err := shipSample(host, line); err != nil {
			log.Printf("WARN: failed to ship monitoring sample to %s: %v", host, err)
		}
	}
}

func (e *exporter) store(s monitorSample) {
	name := ".monitoring-" + s.Timestamp.Format("2006.01.02")
	index, err := e.node.EnsureIndex(name)
	if err != nil {
		log.Printf("WARN: failed to open monitoring index: %v", err)
		return
	}
	if err := index.Index(s.ID, s); err != nil {
		log.Printf("WARN: failed to store monitoring sample: %v", err)
	}
}

func shipSample(host string, line []byte) error {
	conn, err := net.DialTimeout("tcp", host, 2*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Write(line)
	return err
}

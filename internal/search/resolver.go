// Package search resolves host application properties into the runtime
// settings of the embedded search node.
//
// Resolution is a pure mapping: the Resolver reads the immutable property
// set, derives the node's filesystem layout, storage tuning, script
// registration, network binding, cluster-formation policy and monitoring
// export, and freezes the result into a Settings map. It performs no I/O
// beyond an optional local hostname lookup and never creates directories;
// the engine bootstrap owns all filesystem side effects.
//
// Resolution either produces the complete map or fails without producing
// anything. The one property with a distinct failure mode is the search
// port (see MissingPropertyError).
package search

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/mvp-joe/spyglass/internal/props"
)

// nodeNamePrefix starts the synthetic node name used when no name property
// is set and the local hostname cannot be resolved.
const nodeNamePrefix = "spyglass-"

// Resolver maps a host property set into node settings. The function
// fields default to the real environment (os.Hostname, runtime.NumCPU,
// time.Now) when nil; tests substitute them. When Diag is non-nil the
// frozen map is dumped to it after a successful resolution.
type Resolver struct {
	Props    *props.PropertySet
	Hostname func() (string, error)
	NumCPU   func() int
	Now      func() time.Time
	Diag     io.Writer
}

// Resolve runs every configuration stage in order and freezes the result.
func (r *Resolver) Resolve() (*Settings, error) {
	if !r.Props.Has(props.SearchPort) {
		return nil, &MissingPropertyError{Key: props.SearchPort}
	}
	port, err := r.Props.Int(props.SearchPort)
	if err != nil {
		return nil, fmt.Errorf("failed to read search port: %w", err)
	}

	b := NewBuilder()
	if err := r.fileSystemSettings(b); err != nil {
		return nil, err
	}
	r.storageSettings(b)
	r.scriptSettings(b)
	r.networkSettings(b, port)
	r.clusterSettings(b)
	r.monitoringSettings(b)

	settings := b.Build()
	if r.Diag != nil {
		fmt.Fprintf(r.Diag, "search node settings:\n%s", settings)
	}
	return settings, nil
}

// WorkDir returns the node's working directory for a property set: the
// temp override when set, else <home>/temp, as an absolute path. The stop
// and status commands use it to locate the pid file and ready marker
// without running a full resolution.
func WorkDir(p *props.PropertySet) (string, error) {
	dir := p.Value(props.PathTemp)
	if dir == "" {
		home := p.Value(props.PathHome)
		if home == "" {
			return "", fmt.Errorf("property %q is not set", props.PathHome)
		}
		dir = filepath.Join(home, "temp")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return abs, nil
}

// fileSystemSettings derives the data, working and log directories from
// the optional override paths, falling back to subdirectories of the
// mandatory home. A data override still gets the engine subdirectory
// appended so the engine never shares a directory it does not own; the
// working and log overrides are used as given. The working directory
// doubles as the plugin directory.
func (r *Resolver) fileSystemSettings(b *Builder) error {
	home := r.Props.Value(props.PathHome)
	if home == "" {
		return fmt.Errorf("property %q is not set", props.PathHome)
	}

	dataDir := filepath.Join(home, "data", "search")
	if override := r.Props.Value(props.PathData); override != "" {
		dataDir = filepath.Join(override, "search")
	}
	workDir, err := WorkDir(r.Props)
	if err != nil {
		return err
	}
	logDir := filepath.Join(home, "log")
	if override := r.Props.Value(props.PathLog); override != "" {
		logDir = override
	}

	for key, dir := range map[string]string{
		KeyPathData:    dataDir,
		KeyPathWork:    workDir,
		KeyPathPlugins: workDir,
		KeyPathLogs:    logDir,
	} {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", key, err)
		}
		b.Set(key, abs)
	}
	return nil
}

// storageSettings fixes the index storage profile: single shard, periodic
// refresh, memory-mapped store, no store throttling, and a merge thread
// count of max(1, min(3, cpus/2)).
func (r *Resolver) storageSettings(b *Builder) {
	b.SetInt(KeyShards, 1)
	b.Set(KeyRefreshInterval, "30s")
	b.Set(KeyStoreType, "mmapfs")
	b.Set(KeyStoreThrottle, "none")
	b.SetInt(KeyMergeThreads, max(1, min(3, r.numCPU()/2)))
}

// scriptSettings registers the built-in list-update script. The host runs
// partial list updates through this single named entry point instead of a
// general scripting engine.
func (r *Resolver) scriptSettings(b *Builder) {
	b.Set(KeyScriptLang, "native")
	b.Set(KeyScriptListUpdate, "builtin")
}

// networkSettings binds the transport to the injected port. Multicast
// discovery stays off unconditionally, and the node's own HTTP interface
// stays down: the host application is the only sanctioned access path.
func (r *Resolver) networkSettings(b *Builder, port int) {
	b.SetBool(KeyMulticast, false)
	b.SetInt(KeyTransportPort, port)
	b.SetBool(KeyHTTPEnabled, false)
}

// clusterSettings applies the cluster-formation policy: join the
// configured master hosts when any are listed, toggle replication on
// activation, and settle the node's identity.
func (r *Resolver) clusterSettings(b *Builder) {
	masters := splitList(r.Props.Value(props.ClusterMaster))
	if len(masters) > 0 {
		b.Set(KeyUnicastHosts, strings.Join(masters, ","))
		b.SetBool(KeyNodeMaster, false)
		// Meant as an N/2+1 quorum, but the live cluster size is unknown
		// at resolution time, so the threshold stays at one.
		b.SetInt(KeyMinimumMasters, 1)
	}

	replicas := 0
	if r.Props.Bool(props.ClusterActivation, false) {
		replicas = 1
	}
	b.SetInt(KeyReplicas, replicas)

	b.Set(KeyClusterName, r.Props.ValueDefault(props.ClusterName, ""))
	b.Set(KeyRackID, r.Props.ValueDefault(props.NodeName, "unknown"))
	b.Set(KeyNodeName, r.nodeName())
}

// monitoringSettings always admits auto-creation of monitoring indices and
// wires the exporter when target hosts are configured. The host set is
// sorted and deduplicated; its order carries no meaning.
func (r *Resolver) monitoringSettings(b *Builder) {
	b.Set(KeyAutoCreate, ".monitoring-*")

	hosts := splitList(r.Props.Value(props.SearchMonitor))
	if len(hosts) == 0 {
		return
	}
	sort.Strings(hosts)
	b.Set(KeyMonitorHosts, strings.Join(hosts, ","))
}

// nodeName picks the node name: the property verbatim when present, then
// the local hostname, then a synthetic prefix+timestamp name. Hostname
// lookup failure is recovered here so a launch never blocks or dies on a
// missing DNS setup.
func (r *Resolver) nodeName() string {
	if r.Props.Has(props.NodeName) {
		return r.Props.Value(props.NodeName)
	}
	name, err := r.hostname()
	if err != nil {
		synthetic := fmt.Sprintf("%s%d", nodeNamePrefix, r.now().UnixMilli())
		log.Printf("WARN: could not resolve hostname, node name set to %q: %v", synthetic, err)
		return synthetic
	}
	return name
}

func (r *Resolver) hostname() (string, error) {
	if r.Hostname != nil {
		return r.Hostname()
	}
	return os.Hostname()
}

func (r *Resolver) numCPU() int {
	if r.NumCPU != nil {
		return r.NumCPU()
	}
	return runtime.NumCPU()
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// splitList splits a comma-separated property value into its distinct
// entries: whitespace trimmed, empties dropped, duplicates collapsed,
// first-seen order kept.
func splitList(value string) []string {
	var entries []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		entries = append(entries, part)
	}
	return entries
}

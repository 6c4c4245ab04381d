package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Settings keys written by the resolver. They are the stable output
// contract: the engine bootstrap and external tooling read the frozen map
// through these names.
const (
	KeyPathData         = "path.data"
	KeyPathWork         = "path.work"
	KeyPathPlugins      = "path.plugins"
	KeyPathLogs         = "path.logs"
	KeyShards           = "index.number_of_shards"
	KeyRefreshInterval  = "index.refresh_interval"
	KeyStoreType        = "index.store.type"
	KeyStoreThrottle    = "indices.store.throttle.type"
	KeyMergeThreads     = "index.merge.scheduler.max_thread_count"
	KeyScriptLang       = "script.default_lang"
	KeyScriptListUpdate = "script.native.list_update.type"
	KeyMulticast        = "discovery.multicast.enabled"
	KeyTransportPort    = "transport.tcp.port"
	KeyHTTPEnabled      = "http.enabled"
	KeyUnicastHosts     = "discovery.unicast.hosts"
	KeyNodeMaster       = "node.master"
	KeyMinimumMasters   = "discovery.minimum_master_nodes"
	KeyReplicas         = "index.number_of_replicas"
	KeyClusterName      = "cluster.name"
	KeyRackID           = "node.rack_id"
	KeyNodeName         = "node.name"
	KeyAutoCreate       = "action.auto_create_index"
	KeyMonitorHosts     = "monitor.exporter.hosts"
)

// Builder accumulates settings stage by stage before the map is frozen.
// Values are kept in their wire form (strings); the typed setters convert.
type Builder struct {
	values map[string]string
}

func NewBuilder() *Builder {
	return &Builder{values: make(map[string]string)}
}

func (b *Builder) Set(key, value string)      { b.values[key] = value }
func (b *Builder) SetInt(key string, v int)   { b.values[key] = strconv.Itoa(v) }
func (b *Builder) SetBool(key string, v bool) { b.values[key] = strconv.FormatBool(v) }

// Build freezes the accumulated values into a Settings. The Builder and the
// result share nothing, so further Builder writes never reach the frozen map.
func (b *Builder) Build() *Settings {
	frozen := make(map[string]string, len(b.values))
	for k, v := range b.values {
		frozen[k] = v
	}
	return &Settings{values: frozen}
}

// Settings is the frozen configuration map handed to the engine bootstrap.
// No partial view ever escapes the resolver: a Settings either carries the
// full result of every stage or does not exist.
type Settings struct {
	values map[string]string
}

// Has reports whether key was written by any stage.
func (s *Settings) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get returns the value for key, or "" when key was never written.
func (s *Settings) Get(key string) string {
	return s.values[key]
}

// GetInt parses the value for key as a base-10 integer.
func (s *Settings) GetInt(key string) (int, error) {
	v, ok := s.values[key]
	if !ok {
		return 0, fmt.Errorf("setting %q is not present", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("setting %q is not an integer: %q", key, v)
	}
	return n, nil
}

// GetBool reports whether key holds the literal "true".
func (s *Settings) GetBool(key string) bool {
	return s.values[key] == "true"
}

// Keys returns every written key in sorted order.
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the map as sorted key=value lines, one per setting. This
// is the form dumped to the diagnostic channel and printed by the settings
// command.
func (s *Settings) String() string {
	var sb strings.Builder
	for _, k := range s.Keys() {
		fmt.Fprintf(&sb, "%s=%s\n", k, s.values[k])
	}
	return sb.String()
}

// Port returns the transport port the node binds.
func (s *Settings) Port() int {
	n, _ := strconv.Atoi(s.values[KeyTransportPort])
	return n
}

// ClusterName returns the resolved cluster name.
func (s *Settings) ClusterName() string {
	return s.values[KeyClusterName]
}

// NodeName returns the resolved node name.
func (s *Settings) NodeName() string {
	return s.values[KeyNodeName]
}

// InCluster reports whether the node joins existing master hosts instead of
// forming its own cluster.
func (s *Settings) InCluster() bool {
	return s.Has(KeyUnicastHosts)
}

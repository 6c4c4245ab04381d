package props

// Property keys understood by the supervisor and the node. The host
// application writes these into spyglass.yml (nested under the dots) or the
// matching SPYGLASS_* environment variables.
const (
	// SearchPort is the transport port the node binds. The supervising
	// process always injects it, so the resolver treats its absence as an
	// integration fault rather than user misconfiguration.
	SearchPort = "spyglass.search.port"

	// SearchMonitor lists monitoring export hosts, comma-separated.
	SearchMonitor = "spyglass.search.monitor"

	// SearchOptions locates the options file handed to the node process.
	SearchOptions = "spyglass.search.options"

	// SearchGracePeriod is how long a detached launch waits before probing
	// whether the child is still alive.
	SearchGracePeriod = "spyglass.search.grace_period"

	// SearchWaitReady, when set to a duration, makes start block until the
	// node publishes its ready marker or the duration elapses.
	SearchWaitReady = "spyglass.search.wait_ready"

	// ClusterName names the cluster the node belongs to.
	ClusterName = "spyglass.cluster.name"

	// ClusterMaster lists master hosts to join, comma-separated. A
	// non-empty list means this node joins an existing cluster instead of
	// forming its own.
	ClusterMaster = "spyglass.cluster.master"

	// ClusterActivation marks the node as part of an activated cluster,
	// which switches replication on.
	ClusterActivation = "spyglass.cluster.activation"

	// NodeName optionally names this node.
	NodeName = "spyglass.node.name"

	// PathHome is the mandatory installation home directory.
	PathHome = "spyglass.path.home"

	// PathConf is the configuration directory (defaults to the directory
	// the config file was loaded from).
	PathConf = "spyglass.path.conf"

	// PathData, PathTemp and PathLog override the home-derived data,
	// working and log directories.
	PathData = "spyglass.path.data"
	PathTemp = "spyglass.path.temp"
	PathLog  = "spyglass.path.log"

	// PathDist optionally names the distribution directory forwarded to
	// the node process as --dist.
	PathDist = "spyglass.path.dist"
)

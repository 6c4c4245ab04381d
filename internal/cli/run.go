package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/spyglass/internal/engine"
	"github.com/mvp-joe/spyglass/internal/props"
	"github.com/mvp-joe/spyglass/internal/search"
)

var runCmd = &cobra.Command{
	Use:   "run [--home dir] [--conf dir] [--dist dir] [key=value ...]",
	Short: "Run the search node process in the foreground",
	Long: `Run the search node process. Normally invoked by spyglass start,
which passes the option-file lines ahead of the supervisor-supplied
--home and --conf flags.

Settings are resolved from the properties, then any key=value arguments
are applied as overrides in order (later wins). The node serves until it
receives SIGINT or SIGTERM and then shuts down cleanly. Unrecognized
arguments are logged and skipped.`,
	// The argument vector comes from the launcher verbatim; it is scanned
	// by hand rather than parsed as flags.
	DisableFlagParsing: true,
	RunE:               runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runArgs is the parsed form of the child argument vector.
type runArgs struct {
	home      string
	conf      string
	dist      string
	overrides []string
}

func runRun(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return cmd.Help()
		}
	}

	parsed := parseRunArgs(args)

	confDir := parsed.conf
	if confDir == "" {
		confDir = resolveConfDir(confDirFlag)
	}
	p, err := props.Load(confDir)
	if err != nil {
		return err
	}
	p = overlayProps(p, map[string]string{
		props.PathHome: parsed.home,
		props.PathConf: parsed.conf,
	})

	r := &search.Resolver{Props: p, Diag: log.Writer()}
	settings, err := r.Resolve()
	if err != nil {
		return err
	}
	settings = applyOverrides(settings, parsed.overrides)

	node, err := engine.Boot(settings)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if parsed.dist != "" {
		log.Printf("using distribution directory %s", parsed.dist)
	}
	log.Printf("search node %s started (pid %d)", settings.NodeName(), os.Getpid())

	<-ctx.Done()
	log.Println("shutdown signal received, closing search node")
	return node.Close()
}

// parseRunArgs scans the forwarded argument vector: the supervisor path
// flags, the daemonize token the launcher already acted on, and key=value
// settings overrides in their original order. Anything else is logged and
// skipped.
func parseRunArgs(args []string) runArgs {
	var parsed runArgs
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--home" && i+1 < len(args):
			parsed.home = args[i+1]
			i++
		case strings.HasPrefix(arg, "--home="):
			parsed.home = strings.TrimPrefix(arg, "--home=")
		case arg == "--conf" && i+1 < len(args):
			parsed.conf = args[i+1]
			i++
		case strings.HasPrefix(arg, "--conf="):
			parsed.conf = strings.TrimPrefix(arg, "--conf=")
		case arg == "--dist" && i+1 < len(args):
			parsed.dist = args[i+1]
			i++
		case strings.HasPrefix(arg, "--dist="):
			parsed.dist = strings.TrimPrefix(arg, "--dist=")
		case arg == "-d" || arg == "--daemonize":
			// The launcher already detached; the node ignores the token.
		case isOverride(arg):
			parsed.overrides = append(parsed.overrides, arg)
		default:
			log.Printf("WARN: ignoring unrecognized argument %q", arg)
		}
	}
	return parsed
}

func isOverride(arg string) bool {
	if strings.HasPrefix(arg, "-") {
		return false
	}
	key, _, ok := strings.Cut(arg, "=")
	return ok && key != ""
}

// overlayProps rebuilds the property set with the forwarded path flags
// applied on top. Empty flag values change nothing.
func overlayProps(p *props.PropertySet, flags map[string]string) *props.PropertySet {
	changed := false
	values := make(map[string]string)
	for _, key := range p.Keys() {
		values[key] = p.Value(key)
	}
	for key, value := range flags {
		if value == "" {
			continue
		}
		values[key] = value
		changed = true
	}
	if !changed {
		return p
	}
	return props.New(values)
}

// applyOverrides rebuilds the frozen settings with the forwarded
// key=value lines applied in order, later lines winning.
func applyOverrides(settings *search.Settings, overrides []string) *search.Settings {
	if len(overrides) == 0 {
		return settings
	}
	b := search.NewBuilder()
	for _, key := range settings.Keys() {
		b.Set(key, settings.Get(key))
	}
	for _, line := range overrides {
		key, value, _ := strings.Cut(line, "=")
		b.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return b.Build()
}

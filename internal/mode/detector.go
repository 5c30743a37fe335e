// Package mode decides whether credboot runs embedded inside an
// orchestrated environment or standalone. The decision is made once per
// resolution run and never changes mid-run.
package mode

import (
	"os"
	"strings"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// Mode is the operating mode of a resolution run.
type Mode string

const (
	// Embedded restricts resolution to configuration owned by the
	// enclosing orchestrator (parent hierarchy only).
	Embedded Mode = "embedded"

	// Standalone lets resolution consult every available source.
	Standalone Mode = "standalone"
)

// EmbeddedOverrideVar forces embedded mode regardless of any other signal.
const EmbeddedOverrideVar = "CREDBOOT_EMBEDDED"

// coordinationVars signal an orchestrator-provided message bus or gateway.
// A container marker alone is not enough to conclude embedded operation:
// plenty of standalone runs happen inside plain containers.
var coordinationVars = []string{
	"MESSAGE_BUS_URL",
	"NATS_URL",
	"GATEWAY_URL",
	"MQTT_BROKER_URL",
}

// containerMarkers are runtime-specific filesystem indicators.
var containerMarkers = []string{
	"/.dockerenv",
	"/run/.containerenv",
}

const cgroupFile = "/proc/1/cgroup"

var cgroupRuntimeTags = []string{"docker", "containerd", "kubepods", "podman", "libpod"}

// Decision is a detected mode plus the signal that produced it, for the
// mode command and debug output.
type Decision struct {
	Mode   Mode
	Reason string
}

// Detector performs mode detection from an injectable environment view and
// filesystem markers. It has no side effects and never fails: absent every
// signal the answer is Standalone.
type Detector struct {
	env        provider.Environ
	markers    []string
	cgroupPath string
}

// Option customizes a Detector, mainly for tests.
type Option func(*Detector)

// WithContainerMarkers overrides the container marker files checked.
func WithContainerMarkers(paths ...string) Option {
	return func(d *Detector) { d.markers = paths }
}

// WithCgroupPath overrides the cgroup file checked for runtime tags.
func WithCgroupPath(path string) Option {
	return func(d *Detector) { d.cgroupPath = path }
}

// NewDetector creates a detector over env.
func NewDetector(env provider.Environ, opts ...Option) *Detector {
	d := &Detector{
		env:        env,
		markers:    containerMarkers,
		cgroupPath: cgroupFile,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the operating mode. Decision order, first match wins:
// explicit override, containerization marker plus a coordination endpoint,
// otherwise standalone.
func (d *Detector) Detect() Decision {
	if v, ok := d.env.LookupEnv(EmbeddedOverrideVar); ok && Truthy(v) {
		return Decision{Mode: Embedded, Reason: EmbeddedOverrideVar + " is set"}
	}

	if marker := d.containerMarker(); marker != "" {
		if endpoint := d.coordinationEndpoint(); endpoint != "" {
			return Decision{
				Mode:   Embedded,
				Reason: "container marker " + marker + " with coordination endpoint " + endpoint,
			}
		}
	}

	return Decision{Mode: Standalone, Reason: "no embedded signals detected"}
}

func (d *Detector) containerMarker() string {
	for _, path := range d.markers {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if data, err := os.ReadFile(d.cgroupPath); err == nil {
		content := string(data)
		for _, tag := range cgroupRuntimeTags {
			if strings.Contains(content, tag) {
				return d.cgroupPath + " (" + tag + ")"
			}
		}
	}
	return ""
}

func (d *Detector) coordinationEndpoint() string {
	for _, name := range coordinationVars {
		if v, ok := d.env.LookupEnv(name); ok && v != "" {
			return name
		}
	}
	return ""
}

// Truthy reports whether an override-style value means "yes".
func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

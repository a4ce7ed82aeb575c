package server

import (
	"strings"

	"github.com/google/uuid"
	"github.com/momentics/hioload-relay/affinity"
	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/internal/transport"
	"github.com/momentics/hioload-relay/reactor"
)

// RejectMessage is written once to a connection refused for capacity.
const RejectMessage = "Error: Maximum number of clients already connected."

// Config holds all server-side configuration parameters.
type Config struct {
	Host          string `yaml:"host"`           // bind address, loopback by default
	Port          uint16 `yaml:"port"`           // TCP port; 0 picks an ephemeral port
	MaxClients    int    `yaml:"max_clients"`    // hard cap on concurrent connections
	BufferSize    int    `yaml:"buffer_size"`    // per-connection receive buffer
	MaxEvents     int    `yaml:"max_events"`     // readiness events per poll
	RejectMessage string `yaml:"reject_message"` // sent to refused connections
	IsolateFaults bool   `yaml:"isolate_faults"` // close only the failing connection on read errors
	CPU           int    `yaml:"cpu"`            // pin the event loop thread; -1 leaves it unpinned
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:          "127.0.0.1",
		Port:          2138,
		MaxClients:    5,
		BufferSize:    255,
		MaxEvents:     reactor.DefaultMaxEvents,
		RejectMessage: RejectMessage,
		IsolateFaults: true,
		CPU:           affinity.Unpinned,
	}
}

// Validate checks the configuration before any socket is opened.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Host) == "":
		return api.Invalid("host is empty")
	case c.MaxClients < 1:
		return api.Invalid("max_clients %d", c.MaxClients)
	case c.BufferSize < 1:
		return api.Invalid("buffer_size %d", c.BufferSize)
	case c.MaxEvents < 1:
		return api.Invalid("max_events %d", c.MaxEvents)
	case c.RejectMessage == "":
		return api.Invalid("reject_message is empty")
	case c.CPU < affinity.Unpinned:
		return api.Invalid("cpu %d", c.CPU)
	}
	return nil
}

// LoopState is the event loop's position in its Idle/Dispatching cycle.
type LoopState int32

const (
	LoopIdle LoopState = iota
	LoopDispatching
	LoopStopped
)

func (s LoopState) String() string {
	switch s {
	case LoopIdle:
		return "idle"
	case LoopDispatching:
		return "dispatching"
	case LoopStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// slot is the state of one accepted, not yet closed connection.
type slot struct {
	conn     *transport.Conn
	buf      []byte
	used     int
	messages uint64
	session  uuid.UUID
}

func newSlot(conn *transport.Conn, buf []byte) *slot {
	return &slot{
		conn:    conn,
		buf:     buf,
		session: uuid.New(),
	}
}

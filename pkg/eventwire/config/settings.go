package config

import "time"

// RegistrySettings configures the shared naming registry of the remote
// bridge.
type RegistrySettings struct {
	// Host the registry listens on (or is looked up at).
	Host string

	// Port the registry listens on.
	Port int

	// DialTimeout bounds how long LocateOrCreate waits for an existing
	// registry to answer before deciding to create one.
	DialTimeout time.Duration
}

// RemoteSettings configures remote delivery.
type RemoteSettings struct {
	// NotifyTimeout is the per-call timeout of one remote notification.
	// It is a property of the transport, not of the fire operation.
	NotifyTimeout time.Duration
}

// JournalSettings configures the delivery-failure journal.
type JournalSettings struct {
	// Path of the SQLite journal file; empty disables the journal,
	// ":memory:" keeps it in memory.
	Path string
}

// Settings are the decoded eventwire configuration sections.
type Settings struct {
	Registry RegistrySettings
	Remote   RemoteSettings
	Journal  JournalSettings
}

// Defaults used when a key is absent.
const (
	DefaultRegistryHost  = "127.0.0.1"
	DefaultRegistryPort  = 7411
	DefaultDialTimeout   = 2 * time.Second
	DefaultNotifyTimeout = 5 * time.Second
)

// SettingsFrom decodes the eventwire sections of a Config, filling defaults
// for absent keys.
//
// Expected shape:
//
//	registry:
//	  host: 127.0.0.1
//	  port: 7411
//	  dial_timeout: 2s
//	remote:
//	  notify_timeout: 5s
//	journal:
//	  path: ./deliveries.db
func SettingsFrom(cfg Config) Settings {
	reg := cfg.Sub("registry")
	rem := cfg.Sub("remote")
	jnl := cfg.Sub("journal")

	return Settings{
		Registry: RegistrySettings{
			Host:        reg.String("host", DefaultRegistryHost),
			Port:        reg.Int("port", DefaultRegistryPort),
			DialTimeout: reg.Duration("dial_timeout", DefaultDialTimeout),
		},
		Remote: RemoteSettings{
			NotifyTimeout: rem.Duration("notify_timeout", DefaultNotifyTimeout),
		},
		Journal: JournalSettings{
			Path: jnl.String("path", ""),
		},
	}
}

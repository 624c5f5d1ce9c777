package resolver

// Canonical values for the defaulted fields of a HostFleetConfigSpec.
const (
	DefaultHostReplicas         uint32 = 1
	DefaultLeafNodeDomain              = "leaf"
	DefaultConfigServiceEnabled        = false
	DefaultNATSAddress                 = "nats://nats.default.svc.cluster.local"
	DefaultJetstreamDomain             = "default"
	DefaultLogLevel                    = "INFO"
	DefaultDaemonSet                   = false
)

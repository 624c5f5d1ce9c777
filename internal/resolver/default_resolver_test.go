package resolver

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
)

func minimalSpec() fleetv1alpha1.HostFleetConfigSpec {
	return fleetv1alpha1.HostFleetConfigSpec{
		Issuers:    []string{"iss1"},
		Lattice:    "prod",
		Version:    "1.0.0",
		SecretName: "host-secret",
	}
}

func ptr[T any](v T) *T { return &v }

func TestDefaultResolver_AppliesAllDefaults(t *testing.T) {
	got, err := NewDefault().Resolve(minimalSpec())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	if got.HostReplicas == nil || *got.HostReplicas != 1 {
		t.Fatalf("expected hostReplicas=1, got %v", got.HostReplicas)
	}
	if got.LeafNodeDomain == nil || *got.LeafNodeDomain != "leaf" {
		t.Fatalf("expected leafNodeDomain=leaf, got %v", got.LeafNodeDomain)
	}
	if got.ConfigServiceEnabled == nil || *got.ConfigServiceEnabled {
		t.Fatalf("expected configServiceEnabled=false, got %v", got.ConfigServiceEnabled)
	}
	if got.NATSAddress == nil || *got.NATSAddress != "nats://nats.default.svc.cluster.local" {
		t.Fatalf("unexpected natsAddress %v", got.NATSAddress)
	}
	if got.JetstreamDomain == nil || *got.JetstreamDomain != "default" {
		t.Fatalf("expected jetstreamDomain=default, got %v", got.JetstreamDomain)
	}
	if got.LogLevel == nil || *got.LogLevel != "INFO" {
		t.Fatalf("expected logLevel=INFO, got %v", got.LogLevel)
	}
	if got.DaemonSet == nil || *got.DaemonSet {
		t.Fatalf("expected daemonset=false, got %v", got.DaemonSet)
	}

	// Required and optional-without-default fields are untouched.
	if diff := cmp.Diff([]string{"iss1"}, got.Issuers); diff != "" {
		t.Fatalf("issuers changed (-want +got):\n%s", diff)
	}
	if got.Lattice != "prod" || got.Version != "1.0.0" || got.SecretName != "host-secret" {
		t.Fatalf("required fields changed: %+v", got)
	}
	if got.HostLabels != nil || got.EnableStructuredLogging != nil || got.RegistryCredentialsSecret != nil ||
		got.Resources != nil || got.ControlTopicPrefix != nil {
		t.Fatalf("expected optional fields without defaults to stay absent, got %+v", got)
	}
}

func TestDefaultResolver_KeepsExplicitValues(t *testing.T) {
	raw := minimalSpec()
	raw.HostReplicas = ptr(uint32(0))
	raw.LogLevel = ptr("DEBUG")
	raw.LeafNodeDomain = ptr("edge")
	raw.ConfigServiceEnabled = ptr(true)
	raw.NATSAddress = ptr("nats://nats.lattice.svc:4222")
	raw.JetstreamDomain = ptr("hub")
	raw.DaemonSet = ptr(true)

	got, err := NewDefault().Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if diff := cmp.Diff(raw, got); diff != "" {
		t.Fatalf("explicit values changed (-want +got):\n%s", diff)
	}
	if *got.HostReplicas != 0 {
		t.Fatalf("expected explicit hostReplicas=0 to survive, got %d", *got.HostReplicas)
	}
}

func TestDefaultResolver_PassesResourcesVerbatim(t *testing.T) {
	raw := minimalSpec()
	raw.Resources = &fleetv1alpha1.HostFleetResources{
		Wasmcloud: &corev1.ResourceRequirements{
			Limits: corev1.ResourceList{corev1.ResourceMemory: resource.MustParse("512Mi")},
		},
	}

	got, err := Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.Resources == nil || got.Resources.Wasmcloud == nil {
		t.Fatalf("expected wasmcloud resources to pass through, got %+v", got.Resources)
	}
	if got.Resources.NATS != nil {
		t.Fatalf("expected nats resources to stay absent, got %+v", got.Resources.NATS)
	}
	mem := got.Resources.Wasmcloud.Limits[corev1.ResourceMemory]
	if mem.String() != "512Mi" {
		t.Fatalf("expected 512Mi memory limit, got %s", mem.String())
	}
}

func TestDefaultResolver_Idempotent(t *testing.T) {
	inputs := map[string]fleetv1alpha1.HostFleetConfigSpec{
		"minimal": minimalSpec(),
		"partial": func() fleetv1alpha1.HostFleetConfigSpec {
			s := minimalSpec()
			s.LogLevel = ptr("DEBUG")
			s.HostLabels = map[string]string{"zone": "eu"}
			s.Issuers = []string{}
			return s
		}(),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			once, err := Resolve(in)
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			twice, err := Resolve(once)
			if err != nil {
				t.Fatalf("second Resolve error: %v", err)
			}
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Fatalf("resolve is not idempotent (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestDefaultResolver_DoesNotMutateInput(t *testing.T) {
	raw := minimalSpec()
	raw.HostLabels = map[string]string{"zone": "eu"}

	got, err := Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if raw.HostReplicas != nil || raw.LogLevel != nil {
		t.Fatalf("input was mutated: %+v", raw)
	}
	got.HostLabels["zone"] = "us"
	got.Issuers[0] = "other"
	if raw.HostLabels["zone"] != "eu" || raw.Issuers[0] != "iss1" {
		t.Fatalf("output aliases input: %+v", raw)
	}
}

func TestDefaultResolver_EmptyIssuersAccepted(t *testing.T) {
	raw := minimalSpec()
	raw.Issuers = []string{}

	if _, err := Resolve(raw); err != nil {
		t.Fatalf("expected empty issuer list to be accepted, got %v", err)
	}
}

func TestDefaultResolver_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fleetv1alpha1.HostFleetConfigSpec)
		fields []string
	}{
		{"lattice", func(s *fleetv1alpha1.HostFleetConfigSpec) { s.Lattice = "" }, []string{"lattice"}},
		{"issuers", func(s *fleetv1alpha1.HostFleetConfigSpec) { s.Issuers = nil }, []string{"issuers"}},
		{"version", func(s *fleetv1alpha1.HostFleetConfigSpec) { s.Version = "" }, []string{"version"}},
		{"secretName", func(s *fleetv1alpha1.HostFleetConfigSpec) { s.SecretName = "" }, []string{"secretName"}},
		{"all", func(s *fleetv1alpha1.HostFleetConfigSpec) { *s = fleetv1alpha1.HostFleetConfigSpec{} },
			[]string{"issuers", "lattice", "version", "secretName"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := minimalSpec()
			tt.mutate(&raw)

			_, err := Resolve(raw)
			if !errors.Is(err, ErrMalformedInput) {
				t.Fatalf("expected ErrMalformedInput, got %v", err)
			}
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected *MalformedInputError, got %T", err)
			}
			if diff := cmp.Diff(tt.fields, malformed.Fields); diff != "" {
				t.Fatalf("missing fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

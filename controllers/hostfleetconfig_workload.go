package controllers

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
)

const (
	labelManagedBy = "fleet.anvil.dev/managed-by"
	labelFleetName = "fleet.anvil.dev/fleet"
	labelAppName   = "app.kubernetes.io/name"

	managedByHostFleet = "hostfleetconfig"
	hostAppName        = "wasmcloud-host"

	hostImageRepository = "ghcr.io/wasmcloud/wasmcloud"
	natsImage           = "nats:2.10-alpine"

	hostContainerName = "wasmcloud-host"
	natsContainerName = "nats-leaf"

	natsConfigVolume = "nats-config"
	natsConfigKey    = "nats.conf"
	natsConfigDir    = "/nats/config"
	natsLeafPort     = 7422

	clusterSeedKey = "WASMCLOUD_CLUSTER_SEED"
)

var reNonDNS = regexp.MustCompile(`[^a-z0-9-]+`)

// fleetLabels are the selector labels shared by every object of one fleet.
func fleetLabels(fleetName string) map[string]string {
	return map[string]string{
		labelManagedBy: managedByHostFleet,
		labelFleetName: fleetName,
		labelAppName:   hostAppName,
	}
}

// natsLeafConfig renders the leaf node configuration of the sidecar. JetStream
// runs under the leaf node domain and the single remote is the fleet's NATS
// host on the leaf node port.
func natsLeafConfig(spec fleetv1alpha1.HostFleetConfigSpec) string {
	return fmt.Sprintf(`jetstream {
  domain: %q
  store_dir: "/tmp/nats/jetstream"
}
leafnodes {
  remotes: [
    {
      url: "%s"
    }
  ]
}
`, *spec.LeafNodeDomain, leafRemoteURL(*spec.NATSAddress))
}

// leafRemoteURL points addr at the leaf node port. A client port already in
// addr is replaced; a missing scheme defaults to nats.
func leafRemoteURL(addr string) string {
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		u, err = url.Parse("nats://" + addr)
		if err != nil || u.Host == "" {
			return fmt.Sprintf("%s:%d", addr, natsLeafPort)
		}
	}
	u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(natsLeafPort))
	return u.String()
}

// hostPodTemplate builds the pod template for a resolved spec. imageTag must
// already be normalized.
func hostPodTemplate(fleetName, configMapName, imageTag string, spec fleetv1alpha1.HostFleetConfigSpec) corev1.PodTemplateSpec {
	host := corev1.Container{
		Name:  hostContainerName,
		Image: fmt.Sprintf("%s:%s", hostImageRepository, imageTag),
		Env:   hostEnv(spec),
	}
	nats := corev1.Container{
		Name:  natsContainerName,
		Image: natsImage,
		Args:  []string{"-js", "--config", natsConfigDir + "/" + natsConfigKey},
		VolumeMounts: []corev1.VolumeMount{{
			Name:      natsConfigVolume,
			MountPath: natsConfigDir,
		}},
	}
	if spec.Resources != nil {
		if spec.Resources.Wasmcloud != nil {
			host.Resources = *spec.Resources.Wasmcloud.DeepCopy()
		}
		if spec.Resources.NATS != nil {
			nats.Resources = *spec.Resources.NATS.DeepCopy()
		}
	}

	podSpec := corev1.PodSpec{
		Containers: []corev1.Container{host, nats},
		Volumes: []corev1.Volume{{
			Name: natsConfigVolume,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: configMapName},
				},
			},
		}},
	}
	if spec.RegistryCredentialsSecret != nil && *spec.RegistryCredentialsSecret != "" {
		podSpec.ImagePullSecrets = []corev1.LocalObjectReference{{Name: *spec.RegistryCredentialsSecret}}
	}

	return corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{Labels: fleetLabels(fleetName)},
		Spec:       podSpec,
	}
}

// hostEnv maps the resolved spec onto host environment variables. The host
// talks to the lattice through the local leaf node.
func hostEnv(spec fleetv1alpha1.HostFleetConfigSpec) []corev1.EnvVar {
	env := []corev1.EnvVar{
		{Name: "WASMCLOUD_LATTICE", Value: spec.Lattice},
		{Name: "WASMCLOUD_CLUSTER_ISSUERS", Value: strings.Join(spec.Issuers, ",")},
		{Name: "WASMCLOUD_RPC_HOST", Value: "127.0.0.1"},
		{Name: "WASMCLOUD_CTL_HOST", Value: "127.0.0.1"},
		{Name: "WASMCLOUD_JS_DOMAIN", Value: *spec.JetstreamDomain},
		{Name: "WASMCLOUD_LOG_LEVEL", Value: *spec.LogLevel},
		{Name: "WASMCLOUD_CONFIG_SERVICE", Value: boolString(*spec.ConfigServiceEnabled)},
		{
			Name: clusterSeedKey,
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: spec.SecretName},
					Key:                  clusterSeedKey,
				},
			},
		},
	}
	if spec.EnableStructuredLogging != nil && *spec.EnableStructuredLogging {
		env = append(env, corev1.EnvVar{Name: "WASMCLOUD_STRUCTURED_LOGGING_ENABLED", Value: "true"})
	}
	if spec.ControlTopicPrefix != nil {
		env = append(env, corev1.EnvVar{Name: "WASMCLOUD_CTL_TOPIC_PREFIX", Value: *spec.ControlTopicPrefix})
	}

	keys := make([]string, 0, len(spec.HostLabels))
	for k := range spec.HostLabels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, corev1.EnvVar{Name: "WASMCLOUD_LABEL_" + k, Value: spec.HostLabels[k]})
	}
	return env
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func int32Ptr(v int32) *int32 { return &v }

// hostWorkloadName derives a DNS-label-safe name for the fleet's workload and
// config objects.
func hostWorkloadName(fleetName string) string {
	base := strings.ToLower("hf-" + fleetName)
	base = reNonDNS.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if len(base) <= 63 {
		return base
	}
	h := sha1.Sum([]byte(base))
	suffix := "-" + hex.EncodeToString(h[:])[:8]
	return strings.Trim(base[:63-len(suffix)], "-") + suffix
}

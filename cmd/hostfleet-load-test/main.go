package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/apimachinery/pkg/util/wait"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
	"github.com/anvil-platform/hostfleet/controllers"
)

var scheme = runtime.NewScheme()

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(fleetv1alpha1.AddToScheme(scheme))
}

type options struct {
	fleets     int
	namespace  string
	lattice    string
	version    string
	secretName string
	timeout    time.Duration
	cleanup    bool
}

// outcome is the result of one fleet: how long it took to resolve, or why it
// did not.
type outcome struct {
	name    string
	latency time.Duration
	err     error
}

// The kubeconfig flag is registered by controller-runtime.
func main() {
	var opts options
	flag.IntVar(&opts.fleets, "fleets", 10, "Number of HostFleetConfigs to create")
	flag.StringVar(&opts.namespace, "namespace", "default", "Namespace to create fleets in")
	flag.StringVar(&opts.lattice, "lattice", "load-test", "Lattice the fleets join")
	flag.StringVar(&opts.version, "version", "1.0.4", "Host version to request")
	flag.StringVar(&opts.secretName, "secret", "host-secret", "Secret holding the cluster issuer seed")
	flag.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "How long to wait for each fleet to resolve")
	flag.BoolVar(&opts.cleanup, "cleanup", true, "Delete the created fleets when done")
	flag.Parse()

	cfg, err := ctrl.GetConfig()
	if err != nil {
		log.Fatalf("load kubeconfig: %v", err)
	}
	cl, err := client.New(cfg, client.Options{Scheme: scheme})
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	ctx := ctrl.SetupSignalHandler()
	log.Printf("creating %d fleets in namespace %s", opts.fleets, opts.namespace)

	start := time.Now()
	outcomes := run(ctx, cl, opts)
	report(outcomes, time.Since(start))

	if opts.cleanup {
		for _, o := range outcomes {
			fleet := &fleetv1alpha1.HostFleetConfig{ObjectMeta: metav1.ObjectMeta{Name: o.name, Namespace: opts.namespace}}
			if err := client.IgnoreNotFound(cl.Delete(context.Background(), fleet)); err != nil {
				log.Printf("delete %s: %v", o.name, err)
			}
		}
	}
}

func run(ctx context.Context, cl client.Client, opts options) []outcome {
	outcomes := make([]outcome, opts.fleets)
	prefix := fmt.Sprintf("load-test-fleet-%d", time.Now().Unix())

	var wg sync.WaitGroup
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("%s-%d", prefix, i)
			latency, err := createAndWait(ctx, cl, name, opts)
			outcomes[i] = outcome{name: name, latency: latency, err: err}
		}(i)
	}
	wg.Wait()
	return outcomes
}

// createAndWait creates one fleet and polls until the controller reports its
// config as resolved.
func createAndWait(ctx context.Context, cl client.Client, name string, opts options) (time.Duration, error) {
	fleet := &fleetv1alpha1.HostFleetConfig{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: opts.namespace},
		Spec: fleetv1alpha1.HostFleetConfigSpec{
			Issuers:    []string{},
			Lattice:    opts.lattice,
			Version:    opts.version,
			SecretName: opts.secretName,
		},
	}

	created := time.Now()
	if err := cl.Create(ctx, fleet); err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}

	key := client.ObjectKeyFromObject(fleet)
	err := wait.PollUntilContextTimeout(ctx, time.Second, opts.timeout, false, func(ctx context.Context) (bool, error) {
		var current fleetv1alpha1.HostFleetConfig
		if err := cl.Get(ctx, key, &current); err != nil {
			return false, nil
		}
		return meta.IsStatusConditionTrue(current.Status.Conditions, controllers.FleetConditionConfigResolved), nil
	})
	if err != nil {
		return 0, fmt.Errorf("wait for %s: %w", controllers.FleetConditionConfigResolved, err)
	}
	return time.Since(created), nil
}

func report(outcomes []outcome, total time.Duration) {
	var latencies []time.Duration
	for _, o := range outcomes {
		if o.err != nil {
			log.Printf("fleet %s: %v", o.name, o.err)
			continue
		}
		latencies = append(latencies, o.latency)
	}

	if len(latencies) == 0 {
		log.Printf("finished in %v: no fleets resolved", total)
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	log.Printf("finished in %v: %d/%d fleets resolved, min %v, p50 %v, max %v",
		total, len(latencies), len(outcomes),
		latencies[0], latencies[len(latencies)/2], latencies[len(latencies)-1])
}

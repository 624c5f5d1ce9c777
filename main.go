package main

import (
	"flag"
	"os"
	"time"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
	"github.com/anvil-platform/hostfleet/controllers"
	"github.com/anvil-platform/hostfleet/internal/observe"
	"github.com/anvil-platform/hostfleet/internal/resolver"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(fleetv1alpha1.AddToScheme(scheme))
}

func main() {
	var metricsAddr string
	var probeAddr string
	var enableLeaderElection bool
	var natsRequestTimeout time.Duration
	var refreshInterval time.Duration
	var retryInterval time.Duration

	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8080", "The address the metric endpoint binds to.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", false, "Enable leader election for controller manager.")
	flag.DurationVar(&natsRequestTimeout, "nats-request-timeout", observe.DefaultRequestTimeout, "Timeout for application listing requests sent over NATS.")
	flag.DurationVar(&refreshInterval, "app-refresh-interval", controllers.DefaultRefreshInterval, "How often running applications are re-listed for a healthy fleet.")
	flag.DurationVar(&retryInterval, "app-retry-interval", controllers.DefaultRetryInterval, "Requeue delay after a failed application listing.")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: metricsAddr},
		HealthProbeBindAddress: probeAddr,
		LeaderElection:         enableLeaderElection,
		LeaderElectionID:       "hostfleetconfig.fleet.anvil.dev",
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	lister := observe.NewNATSLister(ctrl.Log.WithName("observe"), natsRequestTimeout)
	defer func() {
		if err := lister.Close(); err != nil {
			setupLog.Error(err, "failed to close nats connections")
		}
	}()

	if err := (&controllers.HostFleetConfigReconciler{
		Client:          mgr.GetClient(),
		Scheme:          mgr.GetScheme(),
		Recorder:        mgr.GetEventRecorderFor("HostFleetConfig"),
		Resolver:        resolver.NewDefault(),
		Lister:          lister,
		RefreshInterval: refreshInterval,
		RetryInterval:   retryInterval,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "HostFleetConfig")
		os.Exit(1)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		_ = lister.Close()
		os.Exit(1)
	}
}

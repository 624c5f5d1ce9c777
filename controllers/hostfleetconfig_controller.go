package controllers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
	"github.com/anvil-platform/hostfleet/internal/observe"
	"github.com/anvil-platform/hostfleet/internal/resolver"
	"github.com/anvil-platform/hostfleet/internal/semver"
	"github.com/anvil-platform/hostfleet/internal/status"
)

const (
	controllerName = "HostFleetConfig"

	DefaultRefreshInterval = time.Minute
	DefaultRetryInterval   = 15 * time.Second
)

// HostFleetConfigReconciler turns a HostFleetConfig into a host workload and
// reports the applications running in its lattice.
//
// RBAC:
// +kubebuilder:rbac:groups=fleet.anvil.dev,resources=hostfleetconfigs,verbs=get;list;watch
// +kubebuilder:rbac:groups=fleet.anvil.dev,resources=hostfleetconfigs/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=apps,resources=deployments;daemonsets,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch;update
type HostFleetConfigReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
	Resolver resolver.Resolver
	Lister   observe.AppLister

	// RefreshInterval is how often a healthy fleet is re-observed.
	RefreshInterval time.Duration
	// RetryInterval is the requeue delay after a failed observation.
	RetryInterval time.Duration
}

func (r *HostFleetConfigReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	hostFleetReconcileTotal.WithLabelValues(controllerName).Inc()

	logger := log.FromContext(ctx).WithValues(
		"controller", controllerName,
		"namespace", req.Namespace,
		"fleet", req.Name,
	)

	var fleet fleetv1alpha1.HostFleetConfig
	if err := r.Get(ctx, req.NamespacedName, &fleet); err != nil {
		if client.IgnoreNotFound(err) == nil {
			hostFleetAppCount.DeleteLabelValues(req.Namespace, req.Name)
			hostFleetObserveErrorTotal.DeleteLabelValues(req.Namespace, req.Name)
			return ctrl.Result{}, nil
		}
		hostFleetReconcileErrorTotal.WithLabelValues(controllerName).Inc()
		return ctrl.Result{}, err
	}
	before := fleet.DeepCopy()

	res := r.Resolver
	if res == nil {
		res = resolver.NewDefault()
	}

	// 1) Resolve defaults. Missing required fields are surfaced, never filled.
	spec, err := res.Resolve(fleet.Spec)
	if err != nil {
		if !errors.Is(err, resolver.ErrMalformedInput) {
			hostFleetReconcileErrorTotal.WithLabelValues(controllerName).Inc()
			return ctrl.Result{}, err
		}
		hostFleetMalformedConfigTotal.Inc()
		logger.Info("host fleet config is malformed", "error", err.Error())
		r.recordEventf(&fleet, corev1.EventTypeWarning, "MalformedInput", "%v", err)
		setFleetCondition(&fleet, metav1.Condition{
			Type:    FleetConditionConfigResolved,
			Status:  metav1.ConditionFalse,
			Reason:  "MalformedInput",
			Message: err.Error(),
		})
		return ctrl.Result{}, r.patchStatus(ctx, before, &fleet)
	}

	version, err := semver.ParseVersion(spec.Version)
	if err != nil {
		logger.Info("host version is invalid", "version", spec.Version)
		r.recordEventf(&fleet, corev1.EventTypeWarning, "InvalidVersion", "Host version %q is not a semantic version", spec.Version)
		setFleetCondition(&fleet, metav1.Condition{
			Type:    FleetConditionConfigResolved,
			Status:  metav1.ConditionFalse,
			Reason:  "InvalidVersion",
			Message: err.Error(),
		})
		return ctrl.Result{}, r.patchStatus(ctx, before, &fleet)
	}
	if version.Prerelease() {
		logger.Info("deploying prerelease host version", "version", version.ImageTag())
	}
	setFleetCondition(&fleet, metav1.Condition{
		Type:    FleetConditionConfigResolved,
		Status:  metav1.ConditionTrue,
		Reason:  "Resolved",
		Message: fmt.Sprintf("Hosts run version %s in lattice %q", version.ImageTag(), spec.Lattice),
	})

	// 2) Ensure the NATS leaf node config and the host workload.
	name := hostWorkloadName(fleet.Name)
	if err := r.ensureNATSConfig(ctx, &fleet, name, spec); err != nil {
		logger.Error(err, "failed to ensure nats config", "configMap", name)
		r.recordEventf(&fleet, corev1.EventTypeWarning, "EnsureConfigMapFailed", "Failed to ensure ConfigMap %q: %v", name, err)
		hostFleetReconcileErrorTotal.WithLabelValues(controllerName).Inc()
		return ctrl.Result{}, err
	}

	template := hostPodTemplate(fleet.Name, name, version.ImageTag(), spec)
	var progress workloadProgress
	if *spec.DaemonSet {
		progress, err = r.ensureDaemonSet(ctx, &fleet, name, template)
	} else {
		progress, err = r.ensureDeployment(ctx, &fleet, name, replicaCount(*spec.HostReplicas), template)
	}
	if err != nil {
		logger.Error(err, "failed to ensure host workload", "workload", name, "daemonset", *spec.DaemonSet)
		r.recordEventf(&fleet, corev1.EventTypeWarning, "EnsureWorkloadFailed", "Failed to ensure host workload %q: %v", name, err)
		hostFleetReconcileErrorTotal.WithLabelValues(controllerName).Inc()
		return ctrl.Result{}, err
	}
	setFleetCondition(&fleet, workloadReadyCondition(progress))

	// 3) Observe running applications and rebuild the status summary.
	result := ctrl.Result{RequeueAfter: r.refreshInterval()}
	if r.Lister != nil {
		start := time.Now()
		apps, err := r.Lister.ListApps(ctx, *spec.NATSAddress, spec.Lattice)
		hostFleetObserveDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			hostFleetObserveErrorTotal.WithLabelValues(fleet.Namespace, fleet.Name).Inc()
			logger.Info("failed to list lattice applications; keeping previous status", "error", err.Error())
			setFleetCondition(&fleet, metav1.Condition{
				Type:    FleetConditionAppsObserved,
				Status:  metav1.ConditionFalse,
				Reason:  "ListFailed",
				Message: err.Error(),
			})
			result.RequeueAfter = r.retryInterval()
		} else {
			observed := applyObservedApps(&fleet, apps)
			hostFleetAppCount.WithLabelValues(fleet.Namespace, fleet.Name).Set(float64(observed.AppCount))
			setFleetCondition(&fleet, metav1.Condition{
				Type:    FleetConditionAppsObserved,
				Status:  metav1.ConditionTrue,
				Reason:  "Listed",
				Message: fmt.Sprintf("%d applications running in lattice %q", observed.AppCount, spec.Lattice),
			})
		}
	}

	if err := r.patchStatus(ctx, before, &fleet); err != nil {
		logger.Error(err, "failed to patch fleet status")
		hostFleetReconcileErrorTotal.WithLabelValues(controllerName).Inc()
		return ctrl.Result{}, err
	}
	return result, nil
}

func (r *HostFleetConfigReconciler) ensureNATSConfig(ctx context.Context, fleet *fleetv1alpha1.HostFleetConfig, name string, spec fleetv1alpha1.HostFleetConfigSpec) error {
	cm := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: fleet.Namespace}}
	_, err := controllerutil.CreateOrUpdate(ctx, r.Client, cm, func() error {
		cm.Labels = mergeLabels(cm.Labels, fleetLabels(fleet.Name))
		cm.Data = map[string]string{natsConfigKey: natsLeafConfig(spec)}
		return controllerutil.SetControllerReference(fleet, cm, r.Scheme)
	})
	return err
}

// ensureDeployment applies the replica-counted topology and removes a
// DaemonSet left from a previous topology.
func (r *HostFleetConfigReconciler) ensureDeployment(ctx context.Context, fleet *fleetv1alpha1.HostFleetConfig, name string, replicas int32, template corev1.PodTemplateSpec) (workloadProgress, error) {
	if err := r.deleteOwned(ctx, fleet, &appsv1.DaemonSet{}, name); err != nil {
		return workloadProgress{}, err
	}

	deployment := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: fleet.Namespace}}
	op, err := controllerutil.CreateOrUpdate(ctx, r.Client, deployment, func() error {
		deployment.Labels = mergeLabels(deployment.Labels, fleetLabels(fleet.Name))
		deployment.Spec.Replicas = int32Ptr(replicas)
		deployment.Spec.Selector = &metav1.LabelSelector{MatchLabels: fleetLabels(fleet.Name)}
		deployment.Spec.Template = template
		return controllerutil.SetControllerReference(fleet, deployment, r.Scheme)
	})
	if err != nil {
		return workloadProgress{}, err
	}
	if op == controllerutil.OperationResultCreated {
		r.recordEventf(fleet, corev1.EventTypeNormal, "DeploymentCreated", "Created Deployment %q with %d hosts", name, replicas)
	}
	return workloadProgress{
		ready:    deployment.Status.ReadyReplicas,
		desired:  replicas,
		observed: deployment.Status.ObservedGeneration >= deployment.Generation,
	}, nil
}

// ensureDaemonSet applies the per-node topology and removes a Deployment left
// from a previous topology.
func (r *HostFleetConfigReconciler) ensureDaemonSet(ctx context.Context, fleet *fleetv1alpha1.HostFleetConfig, name string, template corev1.PodTemplateSpec) (workloadProgress, error) {
	if err := r.deleteOwned(ctx, fleet, &appsv1.Deployment{}, name); err != nil {
		return workloadProgress{}, err
	}

	ds := &appsv1.DaemonSet{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: fleet.Namespace}}
	op, err := controllerutil.CreateOrUpdate(ctx, r.Client, ds, func() error {
		ds.Labels = mergeLabels(ds.Labels, fleetLabels(fleet.Name))
		ds.Spec.Selector = &metav1.LabelSelector{MatchLabels: fleetLabels(fleet.Name)}
		ds.Spec.Template = template
		return controllerutil.SetControllerReference(fleet, ds, r.Scheme)
	})
	if err != nil {
		return workloadProgress{}, err
	}
	if op == controllerutil.OperationResultCreated {
		r.recordEventf(fleet, corev1.EventTypeNormal, "DaemonSetCreated", "Created DaemonSet %q", name)
	}
	// Until the DaemonSet controller schedules at least one host the desired
	// count is unknown, not zero.
	return workloadProgress{
		ready:    ds.Status.NumberReady,
		desired:  ds.Status.DesiredNumberScheduled,
		observed: ds.Status.ObservedGeneration >= ds.Generation && ds.Status.DesiredNumberScheduled > 0,
	}, nil
}

// deleteOwned deletes obj if it exists and is controlled by fleet.
func (r *HostFleetConfigReconciler) deleteOwned(ctx context.Context, fleet *fleetv1alpha1.HostFleetConfig, obj client.Object, name string) error {
	err := r.Get(ctx, types.NamespacedName{Namespace: fleet.Namespace, Name: name}, obj)
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	owner := metav1.GetControllerOf(obj)
	if owner == nil || owner.UID != fleet.UID {
		return nil
	}
	if err := r.Delete(ctx, obj); err != nil && !apierrors.IsNotFound(err) {
		return err
	}
	r.recordEventf(fleet, corev1.EventTypeNormal, "TopologyChanged", "Deleted %T %q after topology change", obj, name)
	return nil
}

// applyObservedApps replaces the fleet's app summary with the aggregate of
// apps. Conditions and observedGeneration are carried over.
func applyObservedApps(fleet *fleetv1alpha1.HostFleetConfig, apps []fleetv1alpha1.AppStatus) fleetv1alpha1.HostFleetConfigStatus {
	observed := status.Aggregate(apps)
	observed.ObservedGeneration = fleet.Status.ObservedGeneration
	observed.Conditions = fleet.Status.Conditions
	fleet.Status = observed
	return observed
}

func (r *HostFleetConfigReconciler) patchStatus(ctx context.Context, before, fleet *fleetv1alpha1.HostFleetConfig) error {
	fleet.Status.ObservedGeneration = fleet.Generation
	return r.Status().Patch(ctx, fleet, client.MergeFrom(before))
}

func (r *HostFleetConfigReconciler) refreshInterval() time.Duration {
	if r.RefreshInterval > 0 {
		return r.RefreshInterval
	}
	return DefaultRefreshInterval
}

func (r *HostFleetConfigReconciler) retryInterval() time.Duration {
	if r.RetryInterval > 0 {
		return r.RetryInterval
	}
	return DefaultRetryInterval
}

func (r *HostFleetConfigReconciler) recordEventf(obj client.Object, eventType, reason, messageFmt string, args ...any) {
	if r.Recorder == nil || obj == nil {
		return
	}
	r.Recorder.Eventf(obj, eventType, reason, messageFmt, args...)
}

func (r *HostFleetConfigReconciler) SetupWithManager(mgr ctrl.Manager) error {
	if r.Resolver == nil {
		r.Resolver = resolver.NewDefault()
	}
	return ctrl.NewControllerManagedBy(mgr).
		For(&fleetv1alpha1.HostFleetConfig{}).
		Owns(&appsv1.Deployment{}).
		Owns(&appsv1.DaemonSet{}).
		Owns(&corev1.ConfigMap{}).
		Complete(r)
}

func replicaCount(n uint32) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}

func mergeLabels(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

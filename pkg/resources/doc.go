// Package resources implements the built-in resource types and the tasks
// that reconcile them: symlinks, file permissions, system packages, systemd
// services, and editor extensions.
//
// Each resource type implements engine.Resource. The tasks translate the
// manifest's declarations into resources, filter them through their `when`
// expressions, and hand batches to the engine's reconciliation passes.
// Resources backed by slow external listings (packages, extensions) issue one
// bulk state query per batch.
package resources

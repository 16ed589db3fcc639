// Package registry is the shared namespace hardware interfaces write into.
//
// A Registry keeps three parallel trees for every object, frame and node:
//
//   - the live tree of model.Object / model.Frame / model.Node records that
//     editors see (pose, value, public data);
//   - a declaration shadow keyed by names, recording which nodes drivers have
//     declared, so Reconcile can prune the ones that are no longer wanted;
//   - a callback tree holding the value, public-data and connection
//     subscribers of each node, plus flat lifecycle subscriber lists.
//
// Every facade operation resolves names through an objectid.Resolver. A miss
// at any step is a silent no-op: drivers routinely race ahead of registry
// state, so callers must treat all calls as best-effort.
//
// Subscriber callbacks always run outside the registry locks, on a snapshot
// of the subscriber list taken when dispatch starts. A callback may therefore
// call back into the Registry. A panicking or failing subscriber is recovered
// and logged without affecting the others.
package registry

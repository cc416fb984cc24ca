// Package transition sequences multi-step visual updates.
//
// A Track is an ordered chain of steps (fade out, mutate, fade in, fetch).
// Each step starts only after the previous one has completed, and every
// step body runs on the reconciliation scheduler, so page mutations never
// run in parallel. Distinct tracks are independent: two tracks started by
// one event may interleave freely.
//
// Element sets are captured when a step is added, not re-queried when it
// runs. There is no cancellation of a running track; a later event that
// overwrites the same elements simply applies after or between its steps.
//
// A failing step stops its track. Steps already applied stay applied and
// the failure is reported as a *Fault.
package transition

// Package phasedispatcher implements the phase-step control pass inside the
// election-core context.
//
// The module reads the global election phase once per invocation and, for the
// two recognized processing windows (annulment and counting), drives every
// registered question through exactly one bulk operation on a per-question
// processor. All other phases are a deliberate no-op so the pass is safe to
// schedule in any stage of the election. Business rules stay in the
// application layer; the state store, question registry, and processor are
// isolated behind ports and adapters.
package phasedispatcher

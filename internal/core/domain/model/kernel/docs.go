// Package kernel holds the primitives shared by the lab order model.
//
// The package includes:
//   - UUID: identifiers for orders, items, log entries and actors
//   - Actor and Capability: the authenticated principal and what it may do
//   - TimeOfDay: wall-clock cutoffs such as the auto-cancel deadline
//   - MinutesBetween: whole-minute durations used for waiting and turnaround times
//
// Values are immutable and safe for concurrent use.
package kernel

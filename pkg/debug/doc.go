// Package debug models the call stack of a remote Robot Framework execution
// and decides, at every pausing point the agent reports, whether execution
// should pause.
//
// Events flow one way: the StacktraceBuilder consumes agent events and
// mutates a Stacktrace, and the UserProcessDebugController reads that stack
// together with breakpoints and preferences to produce responses. User
// actions reach the controller through a thread-safe queue.
package debug

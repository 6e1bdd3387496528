/*
Package session serializes access to playback sessions.

A Manager guards every session key with a reference-counted in-process mutex and,
when configured, a distributed lock, so that transitions of one learner in one
module never interleave, even across engine replicas.
*/
package session

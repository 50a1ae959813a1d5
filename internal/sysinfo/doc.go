// Package sysinfo sizes the worker pools from host load.
//
// Pool sizes scale with logical CPU count and shrink when memory is
// under pressure, so a large audit doesn't starve the host. Sampling
// failures fall back to conservative defaults rather than aborting the
// run.
package sysinfo

// Package display renders run progress to the terminal.
//
// A single goroutine owns the output writer: it consumes the
// pipeline's status stream and redraws an in-place progress view with
// ANSI cursor movement. Keyboard controls arrive on a raw input
// reader: p pauses the view while workers keep running and buffering,
// s skips the buffered events and resumes at the newest, q quits the
// run through the controller. Without a TTY the renderer degrades to
// one completion line per URL.
package display

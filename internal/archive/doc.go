// Package archive resolves dead URLs against the Wayback Machine.
//
// Lookups go through the CDX index and pick the most recent capture
// that answered successfully. An archive without any capture is a
// normal miss, not an error. When the URL's extension is in the
// analysis set the capture's body is downloaded and written to the
// content cache so analysis can run on content the live web lost.
package archive

// Package main provides the entry point for the WaybackWolf CLI.
//
// WaybackWolf audits lists of URLs: it checks which ones still answer,
// resolves dead ones against the Wayback Machine, and optionally runs
// recovered content through an AI backend to flag sensitive data.
//
// Usage:
//
//	waybackwolf audit --input urls.txt
//	waybackwolf audit --ai chatgpt https://example.com/backup.sql
//
// See --help for all available options.
package main

// main is the entry point for WaybackWolf.
func main() {
	Execute()
}

// Package cmd implements the chitose CLI commands using Cobra.
//
// Available commands:
//   - get, post, put, delete: Send one request and print the response text
//   - bench: Send the same request many times and report latency
//   - kv: Manage the cookie/session store
//   - init: Write a default .chitose.yaml
//   - completion: Generate shell completion scripts
//   - version: Show chitose version information
//
// Request commands support cookies, headers as text or JSON, bodies from
// files, gjson path extraction, JSON Schema checks, persisted sessions and
// a watch mode that resends when the body file changes.
package cmd

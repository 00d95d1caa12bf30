// Package cli provides the command-line interface for fakews.
//
// Commands:
//   - serve: Serve a script file as a scripted session and report the verdict
//   - respond: Answer every message with a fixed list of responses
//   - record: Dial an endpoint, send messages and capture the replies
//   - convert: Turn a captured transcript into a script file
//   - validate: Check script files against the schema and compile them
//   - schema: Print the script file JSON Schema
//   - version: Show fakews version
//
// Settings are layered: flags, then FAKEWS_* environment variables, then
// .fakewsrc.yaml, then the global config file, then defaults.
package cli

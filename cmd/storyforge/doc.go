// Command storyforge is the CLI entry point for the content generation
// control plane. It wires configuration, quota enforcement, the generation
// coordinator, and session monitoring into the process, report, status, and
// config subcommands.
package main

// Package core defines the conversation data model shared by the supervisor
// graph and the team sub-graphs: the Message variants exchanged with the
// decision oracle, the Action requests it may issue, and the append-only
// State that accumulates them.
package core

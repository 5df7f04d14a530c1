// Package smartapp implements the SmartThings SmartApp webhook lifecycle.
//
// The platform drives a webhook SmartApp through a fixed set of lifecycle
// phases: PING and CONFIRMATION verify the endpoint, CONFIGURATION renders
// the install wizard, INSTALL and UPDATE deliver credentials, EVENT carries
// device events and device lifecycle notifications, and UNINSTALL tears the
// installation down. The Handler is the state machine behind all seven.
//
// The handler also owns subscription reconciliation: keeping the remote
// subscription set aligned with the local device registration set. Routine
// reconciliation only creates what is missing (the platform rejects
// duplicates with 409, which is treated as success); only the UPDATE phase
// deletes and recreates from scratch.
//
// Responses never echo tokens.
package smartapp

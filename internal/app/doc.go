// Package app contains the core application logic of the decision tool. It
// defines the App struct, its validated configuration, and the run lifecycle
// (plan, submit, persist), decoupled from the CLI that fills the
// configuration in.
package app

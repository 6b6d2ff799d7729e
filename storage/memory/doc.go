// Package memory provides the encrypted in-memory implementation of
// storage.CredentialStore. Records live for the process lifetime only
// and are lost on restart.
package memory

// Package service contains the application workflows for accounts and
// places. It sits between the HTTP layer and the store: handlers call the
// workflows, the workflows validate input, call collaborators such as the
// geocoder or the token service, and run multi-entity writes through the
// Coordinator so that a place and its owner's place set change together.
//
// Every error returned by a workflow is a *Failure carrying one of the
// package's failure kinds and a message that is safe to show to clients.
package service

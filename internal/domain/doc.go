// Package domain defines the entities of the places API: users, the places
// they create and the geographic locations those places resolve to. It
// holds validation rules and the owner-set operations on a user, and has no
// knowledge of storage or transport.
package domain

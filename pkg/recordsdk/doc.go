// Package recordsdk is the Go client for the labrecords service.
//
// Beyond plain HTTP plumbing it implements the two consumer-side contracts
// the service expects of every client:
//
//   - a session monitor that classifies authentication failures. A token
//     superseded by a newer login elsewhere locks the session without
//     destroying any client-held state, while ordinary token problems log
//     the session out.
//   - a conflict resolution flow for versioned record writes: a rejected
//     write surfaces the authoritative record so the caller can reload or
//     deliberately force-overwrite; nothing is merged automatically.
package recordsdk

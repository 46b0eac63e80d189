// Package otp generates one-time passcodes.
//
// Codes are fixed-length decimal strings drawn uniformly from a
// cryptographically secure source.
package otp

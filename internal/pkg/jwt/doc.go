// Package jwt issues and checks the short-lived proof tokens handed out after a
// passcode is verified.
//
// Tokens are signed with HS512 and carry the resolved account plus the
// identifier and channel that were proven.
package jwt

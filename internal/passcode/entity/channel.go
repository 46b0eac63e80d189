package entity

import "strings"

// Channel is the kind of identifier a passcode is bound to.
type Channel int16

const (
	// ChannelUnknown is not a valid channel.
	ChannelUnknown Channel = 0
	// ChannelEmail binds a passcode to an email address.
	ChannelEmail Channel = 1
	// ChannelPhone binds a passcode to an E.164 phone number.
	ChannelPhone Channel = 2
)

// ParseChannel accepts "email", "phone" and "sms" in any case.
func ParseChannel(s string) Channel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "email":
		return ChannelEmail
	case "phone", "sms":
		return ChannelPhone
	default:
		return ChannelUnknown
	}
}

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelPhone:
		return "phone"
	default:
		return "unknown"
	}
}

func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelPhone
}

// NormalizeIdentifier trims the identifier and lower-cases emails.
func (c Channel) NormalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if c == ChannelEmail {
		return strings.ToLower(identifier)
	}
	return identifier
}

package event

import "time"

const PasscodeVerifiedDestination string = "passcode_verified"
const PasscodeVerifiedDestinationConsumerSweeper string = "passcode_verified_sweeper"

type PasscodeVerifiedMessage struct {
	AccountID  int64     `json:"account_id,string"`
	Identifier string    `json:"identifier"`
	Channel    string    `json:"channel"`
	VerifiedAt time.Time `json:"verified_at"`
}

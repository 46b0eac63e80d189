package usecase

import (
	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/validator"
)

type emailTarget struct {
	Identifier string `validate:"required,email,max=254"`
}

type phoneTarget struct {
	Identifier string `validate:"required,phone"`
}

type codeCandidate struct {
	Code string `validate:"required,passcode"`
}

// validateTarget expects an already normalized identifier.
func (s *Usecase) validateTarget(identifier string, ch entity.Channel) error {
	var err error
	switch ch {
	case entity.ChannelEmail:
		err = s.validator.Validate(emailTarget{Identifier: identifier})
	case entity.ChannelPhone:
		err = s.validator.Validate(phoneTarget{Identifier: identifier})
	default:
		err = validator.V10ValidationError{"channel": "channel must be one of [email phone]"}
	}

	if err != nil {
		return invalidInput(entity.ErrInvalidIdentifier, err)
	}
	return nil
}

func (s *Usecase) validateCode(code string) error {
	if err := s.validator.Validate(codeCandidate{Code: code}); err != nil {
		return invalidInput(entity.ErrMalformedCode, err)
	}
	return nil
}

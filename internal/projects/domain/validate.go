package domain

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// Validate trims and checks the create input.
func (in *CreateProjectInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Template = strings.TrimSpace(in.Template)

	err := validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, MaxNameLength)),
		validation.Field(&in.Description, validation.RuneLength(0, MaxDescriptionLength)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// Validate trims and checks whichever fields are set.
func (in *UpdateProjectInput) Validate() error {
	if in.Name == nil && in.Description == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		in.Name = &n
		if err := validation.Validate(n, validation.Required, validation.RuneLength(1, MaxNameLength)); err != nil {
			return fmt.Errorf("%w: name: %v", ErrInvalidInput, err)
		}
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
		if err := validation.Validate(d, validation.RuneLength(0, MaxDescriptionLength)); err != nil {
			return fmt.Errorf("%w: description: %v", ErrInvalidInput, err)
		}
	}
	return nil
}

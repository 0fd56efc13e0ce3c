package request

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ParseClock parses a wall-clock time in HH:MM or HH:MM:SS form and returns
// the minutes after midnight; seconds are dropped. "24:00" is accepted as the
// end of the day (1440).
func ParseClock(s string) (int, error) {
	if s == "24:00" || s == "24:00:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
	}
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// RegisterValidators installs the custom binding rules used by request DTOs:
//
//	clock   - "HH:MM" or "HH:MM:SS", with "24:00" as end of day
//	weekday - integer 0 (Sunday) .. 6 (Saturday)
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	if err := v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := ParseClock(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("register clock validator: %w", err)
	}

	if err := v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		d := fl.Field().Int()
		return d >= 0 && d <= 6
	}); err != nil {
		return fmt.Errorf("register weekday validator: %w", err)
	}

	return nil
}

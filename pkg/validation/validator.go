package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rapidride/prediction-service/pkg/common"
)

// Validate is the global validator instance
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("latitude", validateLatitude)
	_ = Validate.RegisterValidation("longitude", validateLongitude)
	_ = Validate.RegisterValidation("traffic_level", validateTrafficLevel)
	_ = Validate.RegisterValidation("iso8601", validateISO8601)
}

// ValidateStruct validates a struct and returns a 422 AppError on failure.
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		messages := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			messages = append(messages, describeFieldError(fieldErr))
		}
		return common.NewValidationError(strings.Join(messages, "; "))
	}

	return err
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "latitude":
		return fmt.Sprintf("%s must be within [-90, 90]", fe.Field())
	case "longitude":
		return fmt.Sprintf("%s must be within [-180, 180]", fe.Field())
	case "traffic_level":
		return fmt.Sprintf("%s must be within [0.5, 3.0]", fe.Field())
	case "iso8601":
		return fmt.Sprintf("%s must be an ISO-8601 timestamp", fe.Field())
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// validateLatitude checks if latitude is within valid range (-90 to 90)
func validateLatitude(fl validator.FieldLevel) bool {
	latitude := fl.Field().Float()
	return latitude >= -90.0 && latitude <= 90.0
}

// validateLongitude checks if longitude is within valid range (-180 to 180)
func validateLongitude(fl validator.FieldLevel) bool {
	longitude := fl.Field().Float()
	return longitude >= -180.0 && longitude <= 180.0
}

// validateTrafficLevel checks the traffic multiplier range (0.5 to 3.0)
func validateTrafficLevel(fl validator.FieldLevel) bool {
	level := fl.Field().Float()
	return level >= 0.5 && level <= 3.0
}

// validateISO8601 accepts RFC 3339 timestamps, which is the ISO-8601
// profile requests are expected to carry. Unparseable timestamps are NOT
// rejected here: the feature builder substitutes defaults instead, so this
// tag is only applied where a hard requirement exists.
func validateISO8601(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}

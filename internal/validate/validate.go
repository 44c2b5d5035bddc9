// Package validate checks request and form structs against their validate
// tags and reports failures per JSON field, ready to render next to the
// form inputs.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-web/internal/display"
	"github.com/iliyamo/cinema-web/internal/model"
)

var std = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		d, ok := f.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		return d.InexactFloat64()
	}, decimal.Decimal{})
	// timestamp accepts every layout the backend sends.
	if err := v.RegisterValidation("timestamp", func(fl validator.FieldLevel) bool {
		_, ok := display.ParseTime(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
	v.RegisterStructValidation(showtimeWindow, model.ShowtimeInput{})
	return v
}

// showtimeWindow requires the end of a showtime, when given, after its start.
func showtimeWindow(sl validator.StructLevel) {
	in := sl.Current().Interface().(model.ShowtimeInput)
	if in.EndTime == "" {
		return
	}
	start, okStart := display.ParseTime(in.StartTime)
	end, okEnd := display.ParseTime(in.EndTime)
	if okStart && okEnd && !end.After(start) {
		sl.ReportError(in.EndTime, "end_time", "EndTime", "after_start", "")
	}
}

// messages override the generated text for a field and tag.
var messages = map[string]string{
	"movie_id.required":             "Select a movie",
	"auditorium_id.required":        "Select an auditorium",
	"end_time.after_start":          "End time must be after start time",
	"release_date.datetime":         "Release date must be YYYY-MM-DD",
	"email.required":                "A valid email is required",
	"email.email":                   "A valid email is required",
	"password_confirmation.eqfield": "Passwords do not match",
	"password.min":                  "Password must be at least 8 characters",
	"duration_minutes.gt":           "Duration must be greater than zero",
	"price.gt":                      "Price must be greater than zero",
}

// Fields validates s and returns one message per failing field, or nil.
// It panics when s is not a struct, which is a programming error.
func Fields(s any) map[string]string {
	err := std.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		panic(err)
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	if m, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	}
	return label + " is invalid"
}

package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/domain/schedule"
)

// Validation rule patterns
var (
	// StudentNumberPattern accepts 6 to 12 digit student numbers
	StudentNumberPattern = `^\d{6,12}$`

	// CheckInCodePattern is the 4-digit session code
	CheckInCodePattern = `^\d{4}$`

	// ClockPattern is a 24h HH:MM time of day
	ClockPattern = `^([01]\d|2[0-3]):[0-5]\d$`

	// PasswordMinLength is enforced on every password change
	PasswordMinLength = 8
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	StudentNumber *regexp.Regexp
	CheckInCode   *regexp.Regexp
	Clock         *regexp.Regexp
}{
	StudentNumber: regexp.MustCompile(StudentNumberPattern),
	CheckInCode:   regexp.MustCompile(CheckInCodePattern),
	Clock:         regexp.MustCompile(ClockPattern),
}

// Register installs the custom rules and json field naming on v
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"weekday":           validateWeekday,
		"hhmm":              patternRule(CompiledPatterns.Clock),
		"checkin_code":      patternRule(CompiledPatterns.CheckInCode),
		"student_number":    patternRule(CompiledPatterns.StudentNumber),
		"attendance_status": validateAttendanceStatus,
		"date":              validateDate,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// New returns a validator with the custom rules installed
func New() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

func patternRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func validateWeekday(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= 0 && n <= 6
}

func validateAttendanceStatus(fl validator.FieldLevel) bool {
	return attendance.Status(fl.Field().String()).Valid()
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := schedule.ParseDate(fl.Field().String())
	return err == nil
}

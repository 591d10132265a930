package service

import "errors"

// Not-found errors: a referenced entity does not exist.
var (
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrSpecialtyNotFound    = errors.New("specialty not found")
	ErrScheduleNotFound     = errors.New("schedule not found")
	ErrScheduleDateNotFound = errors.New("schedule date not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrRecordNotFound       = errors.New("medical record not found")
	ErrRecordItemNotFound   = errors.New("medical record item not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Validation errors: malformed input.
var (
	ErrInvalidTimeWindow  = errors.New("invalid schedule time window")
	ErrInvalidStatus      = errors.New("invalid status value")
	ErrInvalidDate        = errors.New("date must be formatted as YYYY-MM-DD")
	ErrWorkDayMismatch    = errors.New("date does not fall on the schedule's work day")
	ErrEffectivenessRange = errors.New("effectiveness must be between 0 and 100")
)

// Conflict errors: the write would violate a uniqueness rule.
var (
	ErrDuplicateLicense     = errors.New("license number already registered")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrDuplicatePatientCode = errors.New("patient code already registered")
	ErrDuplicateWorkDay     = errors.New("doctor already has a schedule for that work day")
	ErrScheduleDateExists   = errors.New("schedule date already exists for that date")
)

// Booking errors.
var (
	ErrCapacityExceeded       = errors.New("no appointment slots remain for that date")
	ErrDateUnavailable        = errors.New("doctor is not available on that date")
	ErrInvalidStateTransition = errors.New("appointment status transition not permitted")
)

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrDoctorNotFound, ErrPatientNotFound, ErrSpecialtyNotFound,
		ErrScheduleNotFound, ErrScheduleDateNotFound, ErrAppointmentNotFound,
		ErrRecordNotFound, ErrRecordItemNotFound, ErrNotificationNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict reports whether err is one of the conflict sentinels.
func IsConflict(err error) bool {
	for _, target := range []error{
		ErrDuplicateLicense, ErrDuplicateEmail, ErrDuplicatePatientCode,
		ErrDuplicateWorkDay, ErrScheduleDateExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err is one of the validation sentinels.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidTimeWindow, ErrInvalidStatus, ErrInvalidDate,
		ErrWorkDayMismatch, ErrEffectivenessRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

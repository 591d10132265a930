package endpoint

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/model"
	"github.com/citasalud/hospital-api/service"
	"github.com/citasalud/hospital-api/util"
)

// respondServiceError translates a service-layer error into the right API
// response: not-found sentinels map to 404, validation to 400, conflicts and
// booking collisions to 409, everything else to 500.
func respondServiceError(c *gin.Context, msg string, err error) {
	switch {
	case service.IsNotFound(err):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: msg, Err: err})
	case service.IsValidation(err):
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
	case service.IsConflict(err),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrDateUnavailable),
		errors.Is(err, service.ErrInvalidStateTransition):
		util.CallUserConflict(c, util.APIErrorParams{Msg: msg, Err: err})
	default:
		util.CallServerError(c, util.APIErrorParams{Msg: msg, Err: err})
	}
}

// newAppointmentService builds an appointment service whose completion hooks
// append to the patient's medical record and notify the patient.
func newAppointmentService(db *gorm.DB) *service.AppointmentService {
	svc := service.NewAppointmentService(db)
	clinical := service.NewClinicalService(db)
	notifications := service.NewNotificationService(db)

	svc.OnCompletion(func(ev service.CompletionEvent) {
		ctx := context.Background()
		if err := clinical.AppendFromCompletion(ctx, ev); err != nil {
			log.Printf("failed to append completion to medical record: %v", err)
		}

		var patient model.Patient
		if err := db.First(&patient, ev.PatientID).Error; err != nil {
			log.Printf("failed to load patient %d for completion notice: %v", ev.PatientID, err)
			return
		}
		_, err := notifications.NotifyUser(ctx, patient.UserID,
			"Appointment completed",
			fmt.Sprintf("Your appointment on %s has been completed.", ev.Timestamp.Format("2006-01-02")),
			model.NotificationAppointment)
		if err != nil {
			log.Printf("failed to notify patient %d: %v", ev.PatientID, err)
		}
	})
	return svc
}

// notifyPatientOfAppointment sends a booking or cancellation notice to the
// patient's user account. Best-effort: failures are logged, not surfaced.
func notifyPatientOfAppointment(db *gorm.DB, patientID uint, title, message string) {
	var patient model.Patient
	if err := db.First(&patient, patientID).Error; err != nil {
		log.Printf("failed to load patient %d for appointment notice: %v", patientID, err)
		return
	}
	_, err := service.NewNotificationService(db).NotifyUser(context.Background(),
		patient.UserID, title, message, model.NotificationAppointment)
	if err != nil {
		log.Printf("failed to notify patient %d: %v", patientID, err)
	}
}

package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/citamed/scheduling-api/internal/model"
	"github.com/citamed/scheduling-api/internal/repository"
	apperrors "github.com/citamed/scheduling-api/pkg/errors"
	"github.com/citamed/scheduling-api/pkg/logger"
)

// SlotReleaser reacts to a slot becoming free.
type SlotReleaser interface {
	HandleSlotReleased(ctx context.Context, slot model.Slot) error
}

// Service books and releases appointments. Releasing a slot hands it
// to the waitlist engine; a failure there is logged, never surfaced,
// because the cancellation itself already succeeded.
type Service struct {
	appointments  repository.AppointmentRepository
	professionals repository.ProfessionalRepository
	patients      repository.PatientRepository
	engine        SlotReleaser
	logger        *logger.Logger
}

func NewService(
	appointments repository.AppointmentRepository,
	professionals repository.ProfessionalRepository,
	patients repository.PatientRepository,
	engine SlotReleaser,
	logger *logger.Logger,
) *Service {
	return &Service{
		appointments:  appointments,
		professionals: professionals,
		patients:      patients,
		engine:        engine,
		logger:        logger,
	}
}

// Book creates a pending appointment after validating both parties.
// The slot conflict check runs inside the insert so two concurrent
// bookings can never share a slot.
func (s *Service) Book(ctx context.Context, appointment *model.Appointment) error {
	professional, err := s.professionals.Get(ctx, appointment.ProfessionalID)
	if err != nil {
		return err
	}
	if !professional.IsActive() {
		return apperrors.ErrProfessionalUnavailable
	}

	if _, err := s.patients.Get(ctx, appointment.PatientID); err != nil {
		return err
	}

	appointment.Status = model.AppointmentStatusPending
	if err := s.appointments.CreateIfSlotFree(ctx, appointment); err != nil {
		if errors.Is(err, apperrors.ErrSlotTaken) {
			return apperrors.NewConflict("slot already booked", err)
		}
		return err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appointment.ID.String(),
		"professional_id", appointment.ProfessionalID.String())
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.appointments.Get(ctx, id)
}

// SlotAvailable reports whether the slot is free of pending or
// confirmed appointments. Advisory only; Book re-checks inside its
// transaction.
func (s *Service) SlotAvailable(ctx context.Context, slot model.Slot) (bool, error) {
	conflict, err := s.appointments.HasConflict(ctx, slot)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.appointments.List(ctx, filters)
}

// Confirm moves a pending appointment to confirmed. The slot stays
// occupied either way.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) error {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	if appointment.Status != model.AppointmentStatusPending {
		return apperrors.NewConflict(
			fmt.Sprintf("cannot confirm appointment in status %s", appointment.Status), nil)
	}
	return s.appointments.UpdateStatus(ctx, id, model.AppointmentStatusConfirmed, nil)
}

// Cancel frees the slot and hands it to the waitlist engine.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	return s.release(ctx, id, model.AppointmentStatusCancelled, reason)
}

// MarkNoShow records the patient missing the appointment and releases
// the slot for reallocation.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) error {
	return s.release(ctx, id, model.AppointmentStatusNoShow, "")
}

func (s *Service) release(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, reason string) error {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}

	occupied := false
	for _, st := range model.ActiveStatuses {
		if appointment.Status == st {
			occupied = true
			break
		}
	}
	if !occupied {
		return apperrors.NewConflict(
			fmt.Sprintf("appointment is already %s", appointment.Status), nil)
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	if err := s.appointments.UpdateStatus(ctx, id, status, reasonPtr); err != nil {
		return err
	}

	if err := s.engine.HandleSlotReleased(ctx, appointment.Slot()); err != nil {
		s.logger.Error(err, "failed to reallocate released slot",
			"appointment_id", id.String())
	}
	return nil
}

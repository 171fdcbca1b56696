package notification

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/citamed/scheduling-api/internal/model"
	"github.com/citamed/scheduling-api/internal/repository"
	"github.com/citamed/scheduling-api/internal/service/settings"
	"github.com/citamed/scheduling-api/pkg/logger"
	"github.com/citamed/scheduling-api/pkg/messaging"
	"github.com/citamed/scheduling-api/pkg/metrics"
)

// defaultOfferTemplate is used when mensaje_oferta_cupo is not
// configured.
const defaultOfferTemplate = "Hola {paciente}, se liberó un cupo de {especialidad} con {profesional} " +
	"el {fecha} a las {hora}. Responde ACEPTAR para tomarlo o RECHAZAR para seguir en espera. " +
	"La oferta vence en {minutos} minutos."

const expiredMessage = "Hola {paciente}, la oferta de cupo venció. Sigues en lista de espera y te avisaremos cuando se libere otro cupo."

// Dispatcher formats and sends waitlist messages through the
// patient's preferred channel. Delivery failures are reported to the
// caller, which logs them; they never roll back offer state.
type Dispatcher struct {
	settings     *settings.Service
	messenger    messaging.Messenger
	email        EmailSender
	professional repository.ProfessionalRepository
	specialty    repository.SpecialtyRepository
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

// EmailSender is the minimal email capability the dispatcher needs.
type EmailSender interface {
	SendCustom(ctx context.Context, to, subject, content string) error
}

func NewDispatcher(
	settings *settings.Service,
	messenger messaging.Messenger,
	email EmailSender,
	professional repository.ProfessionalRepository,
	specialty repository.SpecialtyRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		settings:     settings,
		messenger:    messenger,
		email:        email,
		professional: professional,
		specialty:    specialty,
		logger:       logger,
		metrics:      metrics,
	}
}

// NotifyOffer renders the offer template and sends it. It returns the
// transport delivery id when available.
func (d *Dispatcher) NotifyOffer(ctx context.Context, candidate *model.Candidate, slot model.Slot, ttlMinutes int) (string, error) {
	template := d.settings.String(ctx, model.SettingOfferTemplate, defaultOfferTemplate)
	text := d.render(ctx, template, candidate, slot, ttlMinutes)
	return d.send(ctx, candidate, "Oferta de cupo", text)
}

// NotifyExpired tells the patient their offer lapsed. Best effort.
func (d *Dispatcher) NotifyExpired(ctx context.Context, candidate *model.Candidate) error {
	text := strings.ReplaceAll(expiredMessage, "{paciente}", candidate.PatientName)
	_, err := d.send(ctx, candidate, "Oferta vencida", text)
	return err
}

func (d *Dispatcher) send(ctx context.Context, candidate *model.Candidate, subject, text string) (string, error) {
	channel := candidate.PreferredChannel
	if channel == "" {
		channel = model.ChannelWhatsApp
	}

	switch channel {
	case model.ChannelEmail:
		if candidate.PatientEmail == "" {
			d.metrics.DispatchFailures.WithLabelValues(string(channel)).Inc()
			return "", fmt.Errorf("patient %s has no email address", candidate.PatientID)
		}
		if err := d.email.SendCustom(ctx, candidate.PatientEmail, subject, text); err != nil {
			d.metrics.DispatchFailures.WithLabelValues(string(channel)).Inc()
			return "", err
		}
		return "", nil
	default:
		id, err := d.messenger.Send(ctx, candidate.PatientPhone, text)
		if err != nil {
			d.metrics.DispatchFailures.WithLabelValues(string(channel)).Inc()
			return "", err
		}
		return id, nil
	}
}

func (d *Dispatcher) render(ctx context.Context, template string, candidate *model.Candidate, slot model.Slot, ttlMinutes int) string {
	professionalName := "el profesional"
	specialtyName := "la especialidad"

	if professional, err := d.professional.Get(ctx, slot.ProfessionalID); err == nil {
		professionalName = professional.Name
		if specialty, err := d.specialty.Get(ctx, professional.SpecialtyID); err == nil {
			specialtyName = specialty.Name
		}
	} else {
		d.logger.Error(err, "failed to resolve professional for offer message")
	}

	replacer := strings.NewReplacer(
		"{paciente}", candidate.PatientName,
		"{fecha}", slot.Date.Format("02/01/2006"),
		"{hora}", slot.Time,
		"{profesional}", professionalName,
		"{especialidad}", specialtyName,
		"{minutos}", strconv.Itoa(ttlMinutes),
	)
	return replacer.Replace(template)
}

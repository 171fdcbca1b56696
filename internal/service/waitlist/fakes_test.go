package waitlist

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/citamed/scheduling-api/internal/model"
	"github.com/citamed/scheduling-api/internal/repository"
	"github.com/citamed/scheduling-api/internal/service/settings"
	apperrors "github.com/citamed/scheduling-api/pkg/errors"
	"github.com/citamed/scheduling-api/pkg/logger"
	"github.com/citamed/scheduling-api/pkg/metrics"
	"github.com/citamed/scheduling-api/pkg/phone"
)

var metricsSeq int32

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetrics(fmt.Sprintf("waitlist_test_%d", atomic.AddInt32(&metricsSeq, 1)))
}

func newTestLogger() *logger.Logger {
	return logger.NewLogger(nil)
}

// fakeWaitlistRepo keeps candidates in memory and mimics the
// conditional update semantics of the real repository.
type fakeWaitlistRepo struct {
	entries map[uuid.UUID]*model.Candidate
}

func newFakeWaitlistRepo() *fakeWaitlistRepo {
	return &fakeWaitlistRepo{entries: make(map[uuid.UUID]*model.Candidate)}
}

func (f *fakeWaitlistRepo) add(c *model.Candidate) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.entries[c.ID] = c
}

func (f *fakeWaitlistRepo) Create(_ context.Context, entry *model.WaitlistEntry) error {
	entry.ID = uuid.New()
	f.entries[entry.ID] = &model.Candidate{WaitlistEntry: *entry}
	return nil
}

func (f *fakeWaitlistRepo) Get(_ context.Context, id uuid.UUID) (*model.WaitlistEntry, error) {
	c, ok := f.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	entry := c.WaitlistEntry
	return &entry, nil
}

func (f *fakeWaitlistRepo) List(_ context.Context, _ *model.WaitlistFilters) ([]*model.WaitlistEntry, error) {
	var out []*model.WaitlistEntry
	for _, c := range f.entries {
		entry := c.WaitlistEntry
		out = append(out, &entry)
	}
	return out, nil
}

func (f *fakeWaitlistRepo) EligibleCandidates(_ context.Context, specialtyID uuid.UUID) ([]*model.Candidate, error) {
	var out []*model.Candidate
	for _, c := range f.entries {
		if c.SpecialtyID != specialtyID || c.AssignedAt != nil || c.OfferActive || c.PatientPhone == "" {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out, nil
}

func (f *fakeWaitlistRepo) MarkOffered(_ context.Context, entryID uuid.UUID, slot model.Slot, expiresAt time.Time) (bool, error) {
	c, ok := f.entries[entryID]
	if !ok || c.AssignedAt != nil || c.OfferActive {
		return false, nil
	}
	now := time.Now()
	c.OfferActive = true
	c.OfferProfessionalID = &slot.ProfessionalID
	c.OfferDate = &slot.Date
	c.OfferTime = &slot.Time
	c.OfferExpiresAt = &expiresAt
	c.OfferCreatedAt = &now
	return true, nil
}

func (f *fakeWaitlistRepo) ClearOffer(_ context.Context, entryID uuid.UUID) (bool, error) {
	c, ok := f.entries[entryID]
	if !ok || !c.OfferActive {
		return false, nil
	}
	c.OfferActive = false
	return true, nil
}

func (f *fakeWaitlistRepo) MarkAssigned(_ context.Context, entryID uuid.UUID, at time.Time) error {
	c, ok := f.entries[entryID]
	if !ok {
		return sql.ErrNoRows
	}
	c.AssignedAt = &at
	c.OfferActive = false
	return nil
}

func (f *fakeWaitlistRepo) ActiveOfferByPhoneKey(_ context.Context, key string, cutoff time.Time) (*model.Candidate, error) {
	var best *model.Candidate
	for _, c := range f.entries {
		if !c.OfferActive || phone.Key(c.PatientPhone) != key {
			continue
		}
		if !cutoff.IsZero() && c.OfferExpiresAt != nil && !c.OfferExpiresAt.After(cutoff) {
			continue
		}
		if best == nil || c.OfferExpiresAt.Before(*best.OfferExpiresAt) {
			best = c
		}
	}
	if best == nil {
		return nil, nil
	}
	copied := *best
	return &copied, nil
}

func (f *fakeWaitlistRepo) StaleOffers(_ context.Context, cutoff time.Time) ([]*model.WaitlistEntry, error) {
	var out []*model.WaitlistEntry
	for _, c := range f.entries {
		if c.OfferActive && c.OfferExpiresAt != nil && c.OfferExpiresAt.Before(cutoff) {
			entry := c.WaitlistEntry
			out = append(out, &entry)
		}
	}
	return out, nil
}

type fakeProfessionalRepo struct {
	professionals map[uuid.UUID]*model.Professional
}

func newFakeProfessionalRepo() *fakeProfessionalRepo {
	return &fakeProfessionalRepo{professionals: make(map[uuid.UUID]*model.Professional)}
}

func (f *fakeProfessionalRepo) add(p *model.Professional) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.professionals[p.ID] = p
}

func (f *fakeProfessionalRepo) Create(_ context.Context, p *model.Professional) error {
	f.add(p)
	return nil
}

func (f *fakeProfessionalRepo) Get(_ context.Context, id uuid.UUID) (*model.Professional, error) {
	p, ok := f.professionals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeProfessionalRepo) List(_ context.Context, _ uuid.UUID) ([]*model.Professional, error) {
	var out []*model.Professional
	for _, p := range f.professionals {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfessionalRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.ProfessionalStatus) error {
	p, ok := f.professionals[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = status
	return nil
}

// fakeAppointmentRepo tracks occupied slots by key so tests can stage
// slot conflicts.
type fakeAppointmentRepo struct {
	booked  map[string]bool
	created []*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{booked: make(map[string]bool)}
}

func slotKey(slot model.Slot) string {
	return fmt.Sprintf("%s|%s|%s", slot.ProfessionalID, slot.Date.Format("2006-01-02"), slot.Time)
}

func (f *fakeAppointmentRepo) occupy(slot model.Slot) {
	f.booked[slotKey(slot)] = true
}

func (f *fakeAppointmentRepo) CreateIfSlotFree(_ context.Context, appointment *model.Appointment) error {
	key := slotKey(appointment.Slot())
	if f.booked[key] {
		return apperrors.ErrSlotTaken
	}
	appointment.ID = uuid.New()
	f.booked[key] = true
	f.created = append(f.created, appointment)
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	for _, a := range f.created {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	return f.created, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus, _ *string) error {
	a, err := f.Get(context.Background(), id)
	if err != nil {
		return err
	}
	a.Status = status
	return nil
}

func (f *fakeAppointmentRepo) HasConflict(_ context.Context, slot model.Slot) (bool, error) {
	return f.booked[slotKey(slot)], nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (f *fakePatientRepo) add(p *model.Patient) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.patients[p.ID] = p
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	f.add(p)
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) List(_ context.Context) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range f.patients {
		out = append(out, p)
	}
	return out, nil
}

type fakeSettingRepo struct {
	values map[string]string
}

func newFakeSettingRepo(values map[string]string) *fakeSettingRepo {
	if values == nil {
		values = make(map[string]string)
	}
	return &fakeSettingRepo{values: values}
}

func (f *fakeSettingRepo) Get(_ context.Context, key string) (*model.Setting, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &model.Setting{Key: key, Value: v}, nil
}

func (f *fakeSettingRepo) List(_ context.Context) ([]*model.Setting, error) {
	var out []*model.Setting
	for k, v := range f.values {
		out = append(out, &model.Setting{Key: k, Value: v})
	}
	return out, nil
}

func (f *fakeSettingRepo) Upsert(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

func newTestSettings(values map[string]string) *settings.Service {
	return settings.NewService(newFakeSettingRepo(values), time.Minute)
}

type notifierCall struct {
	entryID uuid.UUID
	slot    model.Slot
	ttl     int
}

type fakeNotifier struct {
	offers  []notifierCall
	expired []uuid.UUID
	fail    bool
}

func (f *fakeNotifier) NotifyOffer(_ context.Context, candidate *model.Candidate, slot model.Slot, ttlMinutes int) (string, error) {
	if f.fail {
		return "", fmt.Errorf("gateway unavailable")
	}
	f.offers = append(f.offers, notifierCall{entryID: candidate.ID, slot: slot, ttl: ttlMinutes})
	return uuid.New().String(), nil
}

func (f *fakeNotifier) NotifyExpired(_ context.Context, candidate *model.Candidate) error {
	if f.fail {
		return fmt.Errorf("gateway unavailable")
	}
	f.expired = append(f.expired, candidate.ID)
	return nil
}

var _ repository.WaitlistRepository = (*fakeWaitlistRepo)(nil)
var _ repository.ProfessionalRepository = (*fakeProfessionalRepo)(nil)
var _ repository.AppointmentRepository = (*fakeAppointmentRepo)(nil)
var _ repository.PatientRepository = (*fakePatientRepo)(nil)
var _ repository.SettingRepository = (*fakeSettingRepo)(nil)
var _ Notifier = (*fakeNotifier)(nil)

package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// System setting keys
const (
	SettingOpenMinutes      = "ATTENDANCE_OPEN_MINUTES"
	SettingWarnAbsences     = "ABSENT_WARN_COUNT"
	SettingDangerAbsences   = "ABSENT_DANGER_COUNT"
	SettingLatesPerAbsence  = "LATES_PER_ABSENCE"
	SettingMinRate          = "MIN_ATTENDANCE_RATE"
	SettingOffVoteEnabled   = "OFFVOTE_ENABLED"
	SettingExcuseNeedsFile  = "EXCUSE_REQUIRE_FILE"
	SettingNotifications    = "NOTIFICATION_ENABLED"
	SettingAuditLog         = "AUDIT_LOG_ENABLED"
	SettingSessionTimeout   = "SESSION_TIMEOUT_MINUTES"
	SettingSemesterStart    = "SEMESTER_START_DATE"
	SettingSemesterEnd      = "SEMESTER_END_DATE"
	SettingMaintenance      = "SYSTEM_MAINTENANCE"
	defaultSettingsCacheTTL = 30 * time.Second
)

type settingKind int

const (
	kindPositiveInt settingKind = iota
	kindPercent
	kindBool
	kindDate
)

type settingDef struct {
	kind        settingKind
	value       string
	description string
}

var settingDefs = map[string]settingDef{
	SettingOpenMinutes:     {kindPositiveInt, "10", "Minutes a session stays open for check-in"},
	SettingWarnAbsences:    {kindPositiveInt, "2", "Absences that trigger a warning"},
	SettingDangerAbsences:  {kindPositiveInt, "3", "Absences that put a student in danger"},
	SettingLatesPerAbsence: {kindPositiveInt, "3", "Late marks that count as one absence"},
	SettingMinRate:         {kindPercent, "70", "Attendance rate below which a student is in danger"},
	SettingOffVoteEnabled:  {kindBool, "true", "Allow off-class votes"},
	SettingExcuseNeedsFile: {kindBool, "false", "Require an attachment on excuse requests"},
	SettingNotifications:   {kindBool, "true", "Create in-app notifications"},
	SettingAuditLog:        {kindBool, "true", "Record the audit log"},
	SettingSessionTimeout:  {kindPositiveInt, "60", "Idle minutes before the web client signs out"},
	SettingSemesterStart:   {kindDate, "", "First day of the current semester"},
	SettingSemesterEnd:     {kindDate, "", "Last day of the current semester"},
	SettingMaintenance:     {kindBool, "false", "Reject non-admin requests while set"},
}

// DefaultSettings returns the rows seeded into the settings table
func DefaultSettings() []models.Setting {
	out := make([]models.Setting, 0, len(settingDefs))
	for key, def := range settingDefs {
		desc := def.description
		out = append(out, models.Setting{Key: key, Value: def.value, Description: &desc})
	}
	return out
}

// ValidateSetting checks that value fits the type of a known key
func ValidateSetting(key, value string) error {
	def, ok := settingDefs[key]
	if !ok {
		return apperrors.NewValidationError(fmt.Sprintf("unknown setting %q", key))
	}

	switch def.kind {
	case kindPositiveInt, kindPercent:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return apperrors.NewValidationError(fmt.Sprintf("%s must be a positive integer", key))
		}
		if def.kind == kindPercent && n > 100 {
			return apperrors.NewValidationError(fmt.Sprintf("%s must be at most 100", key))
		}
	case kindBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("%s must be true or false", key))
		}
	case kindDate:
		if value == "" {
			return nil
		}
		if _, err := schedule.ParseDate(value); err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("%s must be a date (YYYY-MM-DD)", key))
		}
	}
	return nil
}

// SettingStore persists system settings
type SettingStore interface {
	List(ctx context.Context) ([]*models.Setting, error)
	Upsert(ctx context.Context, key, value string) error
	UpsertMany(ctx context.Context, values map[string]string) error
	EnsureDefaults(ctx context.Context, defaults []models.Setting) error
}

// SettingsDefaults are used when the table has no usable value
type SettingsDefaults struct {
	Policy      attendance.Policy
	OpenMinutes int
}

// SettingsService reads and writes system settings through a short-lived cache
type SettingsService struct {
	store    SettingStore
	defaults SettingsDefaults
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	values   map[string]string
	loadedAt time.Time
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(store SettingStore, defaults SettingsDefaults, ttl time.Duration) *SettingsService {
	if ttl <= 0 {
		ttl = defaultSettingsCacheTTL
	}
	return &SettingsService{
		store:    store,
		defaults: defaults,
		ttl:      ttl,
		now:      time.Now,
	}
}

// EnsureDefaults inserts the settings that are missing from the table
func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	if err := s.store.EnsureDefaults(ctx, DefaultSettings()); err != nil {
		return fmt.Errorf("error seeding default settings: %w", err)
	}
	s.Invalidate()
	return nil
}

// List returns every stored setting
func (s *SettingsService) List(ctx context.Context) ([]*models.Setting, error) {
	return s.store.List(ctx)
}

// Update sets one setting after validating it
func (s *SettingsService) Update(ctx context.Context, key, value string) error {
	if err := ValidateSetting(key, value); err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, key, value); err != nil {
		return fmt.Errorf("error updating setting: %w", err)
	}
	s.Invalidate()
	return nil
}

// UpdateMany validates every pair before writing any of them
func (s *SettingsService) UpdateMany(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if err := ValidateSetting(key, value); err != nil {
			return err
		}
	}
	if err := s.store.UpsertMany(ctx, values); err != nil {
		return fmt.Errorf("error updating settings: %w", err)
	}
	s.Invalidate()
	return nil
}

// Invalidate drops the cached values
func (s *SettingsService) Invalidate() {
	s.mu.Lock()
	s.values = nil
	s.mu.Unlock()
}

func (s *SettingsService) snapshot(ctx context.Context) map[string]string {
	s.mu.RLock()
	if s.values != nil && s.now().Sub(s.loadedAt) < s.ttl {
		values := s.values
		s.mu.RUnlock()
		return values
	}
	s.mu.RUnlock()

	rows, err := s.store.List(ctx)
	if err != nil {
		// Fall back to whatever we had, or to defaults
		logger.Warn().Err(err).Msg("Could not load system settings")
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.values != nil {
			return s.values
		}
		return map[string]string{}
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}

	s.mu.Lock()
	s.values = values
	s.loadedAt = s.now()
	s.mu.Unlock()
	return values
}

func (s *SettingsService) intValue(ctx context.Context, key string, fallback int) int {
	raw, ok := s.snapshot(ctx)[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (s *SettingsService) boolValue(ctx context.Context, key string) bool {
	raw, ok := s.snapshot(ctx)[key]
	if !ok {
		raw = settingDefs[key].value
	}
	b, err := strconv.ParseBool(raw)
	return err == nil && b
}

// Policy builds the attendance thresholds from the current settings
func (s *SettingsService) Policy(ctx context.Context) attendance.Policy {
	d := s.defaults.Policy
	return attendance.Policy{
		LatesPerAbsence: s.intValue(ctx, SettingLatesPerAbsence, d.LatesPerAbsence),
		WarnAbsences:    s.intValue(ctx, SettingWarnAbsences, d.WarnAbsences),
		DangerAbsences:  s.intValue(ctx, SettingDangerAbsences, d.DangerAbsences),
		MinRate:         s.intValue(ctx, SettingMinRate, d.MinRate),
	}
}

// OpenWindow is how long a session accepts check-ins after being opened
func (s *SettingsService) OpenWindow(ctx context.Context) time.Duration {
	return time.Duration(s.intValue(ctx, SettingOpenMinutes, s.defaults.OpenMinutes)) * time.Minute
}

// Enabled reports whether a boolean setting is on
func (s *SettingsService) Enabled(ctx context.Context, key string) bool {
	return s.boolValue(ctx, key)
}

// MaintenanceEnabled reports whether the system is in maintenance mode
func (s *SettingsService) MaintenanceEnabled(ctx context.Context) bool {
	return s.boolValue(ctx, SettingMaintenance)
}

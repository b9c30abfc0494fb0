package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	appModels "github.com/yigit/rollcall/internal/app/models"
	appRepos "github.com/yigit/rollcall/internal/app/repositories"
	appServices "github.com/yigit/rollcall/internal/app/services"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/auth"
)

// DefaultAdminEmail is the account created when no admin exists yet
const DefaultAdminEmail = "admin@rollcall.local"

const defaultAdminPassword = "admin12345"

var defaultDepartments = []appModels.Department{
	{Name: "Computer Engineering", Code: "CENG"},
	{Name: "Electrical Engineering", Code: "EEE"},
	{Name: "Mathematics", Code: "MATH"},
}

// CreateDefaultData inserts the settings, built-in holidays, departments and
// admin account a fresh database needs. Existing rows are left untouched.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data...")
	var finalErr error

	if err := repos.SettingRepository.EnsureDefaults(ctx, appServices.DefaultSettings()); err != nil {
		lgr.Error().Err(err).Msg("Error seeding default settings")
		finalErr = errors.Join(finalErr, err)
	}

	for date, label := range schedule.DefaultHolidays() {
		day, err := schedule.ParseDate(date)
		if err != nil {
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if err := repos.HolidayRepository.Upsert(ctx, &appModels.Holiday{Date: day, Label: label}); err != nil {
			lgr.Error().Err(err).Str("date", date).Msg("Error seeding holiday")
			finalErr = errors.Join(finalErr, err)
		}
	}

	for _, department := range defaultDepartments {
		err := repos.DepartmentRepository.Create(ctx, &department)
		if err != nil && !errors.Is(err, apperrors.ErrDepartmentAlreadyExists) {
			lgr.Error().Err(err).Str("code", department.Code).Msg("Error creating department")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if err := createDefaultAdmin(ctx, repos.UserRepository, lgr); err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	if finalErr != nil {
		lgr.Warn().Err(finalErr).Msg("Default data created with some errors")
	} else {
		lgr.Info().Msg("Default data check/creation completed")
	}
	return finalErr
}

// AdminCreator is the part of the user store needed to create an admin
type AdminCreator interface {
	CountByRole(ctx context.Context) (map[appModels.RoleType]int, error)
	Create(ctx context.Context, user *appModels.User) error
}

func createDefaultAdmin(ctx context.Context, users AdminCreator, lgr zerolog.Logger) error {
	counts, err := users.CountByRole(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Error counting users by role")
		return err
	}
	if counts[appModels.RoleAdmin] > 0 {
		return nil
	}

	if _, err := CreateAdmin(ctx, users, "Administrator", DefaultAdminEmail, defaultAdminPassword); err != nil {
		lgr.Error().Err(err).Msg("Error creating default admin")
		return err
	}
	lgr.Warn().Str("email", DefaultAdminEmail).Msg("Default admin created, change its password")
	return nil
}

// CreateAdmin hashes password and stores a new active admin account
func CreateAdmin(ctx context.Context, users AdminCreator, name, email, password string) (*appModels.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &appModels.User{
		Email:    email,
		Password: hash,
		Name:     name,
		RoleType: appModels.RoleAdmin,
		IsActive: true,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

package service

import (
	"context"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/conductor/internal/auth"
	"github.com/iliyamo/conductor/internal/authz"
	"github.com/iliyamo/conductor/internal/clock"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/repository"
)

// MinPasswordLength is enforced on signup, create and password change.
const MinPasswordLength = 6

type UserService struct {
	users *repository.UserRepo
	cost  int
	now   Clock
}

func NewUserService(users *repository.UserRepo, bcryptCost int, now Clock) *UserService {
	return &UserService{users: users, cost: bcryptCost, now: now.orDefault()}
}

// UserInput is the body of signup and admin create.
type UserInput struct {
	Email      string
	Password   string
	Name       string
	Role       model.Role
	HourlyRate decimal.NullDecimal
}

// UserDetail is a user with the figures of the current period.
type UserDetail struct {
	model.User
	Metrics model.UserMetrics `json:"metrics"`
}

func passwordErrors(pw string) []string {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return []string{"Password is too short (minimum is 6 characters)"}
	}
	return nil
}

func (s *UserService) create(ctx context.Context, in UserInput) (model.User, error) {
	u := model.User{Email: model.NormalizeEmail(in.Email), Name: in.Name, Role: in.Role, HourlyRate: in.HourlyRate}
	errs := append(u.Validate(), passwordErrors(in.Password)...)
	if err := invalid(errs); err != nil {
		return u, err
	}
	hash, err := auth.HashPassword(in.Password, s.cost)
	if err != nil {
		return u, err
	}
	u.PasswordHash = hash
	if err := s.users.Create(ctx, &u); err != nil {
		return u, storeErr(err, "User")
	}
	return u, nil
}

// Signup registers a standard user.
func (s *UserService) Signup(ctx context.Context, in UserInput) (model.User, error) {
	in.Role = model.RoleStandard
	return s.create(ctx, in)
}

// Create registers a user of any role. Admin only.
func (s *UserService) Create(ctx context.Context, actor authz.Actor, in UserInput) (model.User, error) {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.User}, authz.Create); err != nil {
		return model.User{}, err
	}
	return s.create(ctx, in)
}

// List returns every user for admins and only the caller otherwise.
func (s *UserService) List(ctx context.Context, actor authz.Actor) ([]model.User, error) {
	if authz.Allowed(actor, authz.Resource{Kind: authz.User}, authz.ListAll) {
		return s.users.List(ctx)
	}
	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, storeErr(err, "User")
	}
	return []model.User{u}, nil
}

func (s *UserService) Get(ctx context.Context, actor authz.Actor, id uint64) (UserDetail, error) {
	if err := authz.Authorize(actor, authz.On(authz.User, id), authz.Read); err != nil {
		return UserDetail{}, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserDetail{}, storeErr(err, "User")
	}
	now := s.now()
	ws, we := clock.WeekRange(now)
	ms, me := clock.MonthRange(now)
	m, err := s.users.Metrics(ctx, id, model.NewDate(now), model.NewDate(ws), model.NewDate(we), model.NewDate(ms), model.NewDate(me))
	if err != nil {
		return UserDetail{}, err
	}
	m.WorkingRate = model.WorkingRate(m.ThisMonthHours, clock.Weekdays(ms, me))
	return UserDetail{User: u, Metrics: m}, nil
}

// UserPatch holds the fields an update may change.
type UserPatch struct {
	Email      *string
	Name       *string
	Password   *string
	Role       *model.Role
	HourlyRate *decimal.NullDecimal
}

func (s *UserService) Update(ctx context.Context, actor authz.Actor, id uint64, patch UserPatch) (model.User, error) {
	if err := authz.Authorize(actor, authz.On(authz.User, id), authz.Update); err != nil {
		return model.User{}, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return u, storeErr(err, "User")
	}
	if patch.Role != nil && *patch.Role != u.Role {
		if err := authz.Authorize(actor, authz.On(authz.User, id), authz.ChangeRole); err != nil {
			return u, err
		}
		u.Role = *patch.Role
	}
	if patch.Email != nil {
		u.Email = model.NormalizeEmail(*patch.Email)
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.HourlyRate != nil {
		u.HourlyRate = *patch.HourlyRate
	}
	errs := u.Validate()
	u.PasswordHash = ""
	if patch.Password != nil {
		if pe := passwordErrors(*patch.Password); pe != nil {
			errs = append(errs, pe...)
		} else if u.PasswordHash, err = auth.HashPassword(*patch.Password, s.cost); err != nil {
			return u, err
		}
	}
	if err := invalid(errs); err != nil {
		return u, err
	}
	if err := s.users.Update(ctx, &u); err != nil {
		return u, storeErr(err, "User")
	}
	return u, nil
}

// Delete removes a user and everything they own. Admin only.
func (s *UserService) Delete(ctx context.Context, actor authz.Actor, id uint64) error {
	if err := authz.Authorize(actor, authz.On(authz.User, id), authz.Delete); err != nil {
		return err
	}
	return storeErr(s.users.Delete(ctx, id), "User")
}

// Package tenants manages donor teams and donor settings.
package tenants

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/activity"
	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Member is a donor team member as shown to the team
type Member struct {
	ID        string             `json:"id"`
	Email     string             `json:"email"`
	Name      string             `json:"name"`
	DonorRole identity.DonorRole `json:"donor_role"`
	JoinedAt  time.Time          `json:"joined_at"`
}

// Settings is a partial update of donor branding and notification
// preferences. Nil fields are left unchanged.
type Settings struct {
	PrimaryColor      *string         `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor    *string         `json:"secondary_color" validate:"omitempty,hexcolor"`
	Website           *string         `json:"website" validate:"omitempty,url"`
	NotificationPrefs map[string]bool `json:"notification_prefs"`
}

var knownPrefs = map[string]bool{
	models.PrefStoryPublished: true,
	models.PrefMonthlyDigest:  true,
}

// Service manages donor teams
type Service struct {
	db       *gorm.DB
	users    repository.UserRepository
	validate *validator.Validate
}

// NewService creates a tenants service
func NewService(db *gorm.DB, users repository.UserRepository) *Service {
	return &Service{db: db, users: users, validate: validator.New()}
}

// ListTeam lists a donor's members. Any member of the donor may read it.
func (s *Service) ListTeam(ctx context.Context, p *identity.Principal, donorID string) ([]Member, error) {
	if err := s.authorize(ctx, p, donorID, false); err != nil {
		return nil, err
	}
	users, err := s.users.ListDonorMembers(ctx, donorID)
	if err != nil {
		return nil, fmt.Errorf("listing team: %w", err)
	}
	out := make([]Member, 0, len(users))
	for _, u := range users {
		out = append(out, toMember(u))
	}
	return out, nil
}

// AddMember attaches an existing account to the donor with role. Accounts
// already belonging to another organisation are rejected.
func (s *Service) AddMember(ctx context.Context, p *identity.Principal, donorID, email string, role identity.DonorRole) (*Member, error) {
	if err := s.authorize(ctx, p, donorID, true); err != nil {
		return nil, err
	}
	role = identity.DonorRole(strings.ToUpper(string(role)))
	if role != identity.DonorRoleAdmin && role != identity.DonorRoleViewer {
		return nil, apierrors.ValidationError("donor_role", "donor_role must be ADMIN or VIEWER")
	}
	if strings.TrimSpace(email) == "" {
		return nil, apierrors.ValidationError("email", "email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if stderrors.Is(err, repository.ErrUserNotFound) {
		return nil, apierrors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	switch identity.ParseRole(user.Role) {
	case identity.RolePublic:
	case identity.RoleCorporateUser:
		if user.DonorID != nil && *user.DonorID == donorID {
			return nil, apierrors.AlreadyExists("user is already a member of this team")
		}
		return nil, apierrors.ValidationError("email", "user already belongs to another organisation")
	default:
		return nil, apierrors.ValidationError("email", "user already belongs to another organisation")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"role":       string(identity.RoleCorporateUser),
			"donor_id":   donorID,
			"donor_role": string(role),
		}).Error
		if err != nil {
			return fmt.Errorf("adding member: %w", err)
		}
		return activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     activity.ActionDonorMemberAdded,
			EntityType: activity.EntityDonor,
			EntityID:   donorID,
			Details:    map[string]interface{}{"user_id": user.ID, "donor_role": string(role)},
		})
	})
	if err != nil {
		return nil, err
	}

	user.Role = string(identity.RoleCorporateUser)
	user.DonorID = &donorID
	user.DonorRole = string(role)
	logger.L().Info("Donor member added", logger.WithDonorID(donorID), logger.WithUserID(user.ID))
	m := toMember(user)
	return &m, nil
}

// RemoveMember detaches userID from the donor. Members cannot remove
// themselves and the last admin cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, p *identity.Principal, donorID, userID string) error {
	if err := s.authorize(ctx, p, donorID, true); err != nil {
		return err
	}
	if userID == p.UserID {
		return apierrors.ValidationError("user_id", "you cannot remove yourself from the team")
	}

	user, err := s.users.GetUser(ctx, userID)
	if stderrors.Is(err, repository.ErrUserNotFound) {
		return apierrors.NotFound("member")
	}
	if err != nil {
		return fmt.Errorf("loading member: %w", err)
	}
	if user.DonorID == nil || *user.DonorID != donorID {
		return apierrors.NotFound("member")
	}
	if identity.DonorRole(user.DonorRole) == identity.DonorRoleAdmin {
		admins, err := s.users.CountDonorAdmins(ctx, donorID)
		if err != nil {
			return fmt.Errorf("counting admins: %w", err)
		}
		if admins <= 1 {
			return apierrors.ValidationError("user_id", "a team must keep at least one admin")
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"role":       string(identity.RolePublic),
			"donor_id":   nil,
			"donor_role": "",
		}).Error
		if err != nil {
			return fmt.Errorf("removing member: %w", err)
		}
		return activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     activity.ActionDonorMemberRemoved,
			EntityType: activity.EntityDonor,
			EntityID:   donorID,
			Details:    map[string]interface{}{"user_id": user.ID},
		})
	})
}

// UpdateSettings applies a partial branding and preference update
func (s *Service) UpdateSettings(ctx context.Context, p *identity.Principal, donorID string, in Settings) (*models.Donor, error) {
	if err := s.authorize(ctx, p, donorID, true); err != nil {
		return nil, err
	}
	if err := s.validateSettings(in); err != nil {
		return nil, err
	}

	var donor models.Donor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", donorID).Take(&donor).Error; err != nil {
			return fmt.Errorf("loading donor: %w", err)
		}

		changed := []string{}
		if in.PrimaryColor != nil {
			donor.PrimaryColor = strings.ToUpper(*in.PrimaryColor)
			changed = append(changed, "primary_color")
		}
		if in.SecondaryColor != nil {
			donor.SecondaryColor = strings.ToUpper(*in.SecondaryColor)
			changed = append(changed, "secondary_color")
		}
		if in.Website != nil {
			donor.Website = strings.TrimSpace(*in.Website)
			changed = append(changed, "website")
		}
		if in.NotificationPrefs != nil {
			prefs := make(map[string]bool, len(donor.NotificationPrefs)+len(in.NotificationPrefs))
			for k, v := range donor.NotificationPrefs {
				prefs[k] = v
			}
			for k, v := range in.NotificationPrefs {
				prefs[k] = v
			}
			donor.NotificationPrefs = prefs
			changed = append(changed, "notification_prefs")
		}
		if len(changed) == 0 {
			return nil
		}

		if err := tx.Save(&donor).Error; err != nil {
			return fmt.Errorf("saving donor: %w", err)
		}
		return activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     activity.ActionDonorSettingsUpdate,
			EntityType: activity.EntityDonor,
			EntityID:   donorID,
			Details:    map[string]interface{}{"fields": changed},
		})
	})
	if err != nil {
		return nil, err
	}
	logger.L().Info("Donor settings updated", logger.WithDonorID(donorID), zap.String("by", p.UserID))
	return &donor, nil
}

func (s *Service) validateSettings(in Settings) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			field := strings.ToLower(verrs[0].Field())
			switch verrs[0].Field() {
			case "PrimaryColor":
				field = "primary_color"
			case "SecondaryColor":
				field = "secondary_color"
			}
			return apierrors.ValidationError(field, fmt.Sprintf("%s is not valid (%s)", field, verrs[0].Tag()))
		}
		return apierrors.ValidationError("settings", err.Error())
	}
	for k := range in.NotificationPrefs {
		if !knownPrefs[k] {
			return apierrors.ValidationError("notification_prefs", "unknown notification preference "+k)
		}
	}
	return nil
}

// authorize checks that p may read (or, with write, manage) donorID.
// Callers outside the donor see NotFound; viewers attempting writes see
// Forbidden.
func (s *Service) authorize(ctx context.Context, p *identity.Principal, donorID string, write bool) error {
	if p == nil || p.UserID == "" {
		return apierrors.Unauthorized("login required")
	}
	if !p.IsPlatformAdmin() && p.Role != identity.RoleCorporateUser {
		return apierrors.Forbidden("team management is available to donor users")
	}
	if !p.CanViewDonor(donorID) {
		return apierrors.NotFound("donor")
	}
	if write && !p.CanManageDonor(donorID) {
		return apierrors.Forbidden("donor admin access required")
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Donor{}).Where("id = ?", donorID).Count(&n).Error; err != nil {
		return fmt.Errorf("checking donor: %w", err)
	}
	if n == 0 {
		return apierrors.NotFound("donor")
	}
	return nil
}

func toMember(u *models.User) Member {
	return Member{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		DonorRole: identity.DonorRole(u.DonorRole),
		JoinedAt:  u.UpdatedAt,
	}
}

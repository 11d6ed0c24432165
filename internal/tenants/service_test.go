package tenants

import (
	"context"
	"testing"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/activity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/database"
	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/repository"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type TenantsSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *Service
	ctx context.Context

	donor    *models.Donor
	other    *models.Donor
	admin    *identity.Principal
	viewer   *identity.Principal
	outsider *identity.Principal
	platform *identity.Principal
}

func TestTenantsSuite(t *testing.T) {
	suite.Run(t, new(TenantsSuite))
}

func (s *TenantsSuite) SetupTest() {
	s.db = database.NewTestDB(s.T())
	s.svc = NewService(s.db, repository.NewUserRepository(s.db))
	s.ctx = context.Background()

	s.donor = testutil.Donor(s.T(), s.db, "acme")
	s.other = testutil.Donor(s.T(), s.db, "globex")
	s.admin = testutil.CorporateUser(s.T(), s.db, "admin@acme.com", s.donor.ID, identity.DonorRoleAdmin)
	s.viewer = testutil.CorporateUser(s.T(), s.db, "viewer@acme.com", s.donor.ID, identity.DonorRoleViewer)
	s.outsider = testutil.CorporateUser(s.T(), s.db, "admin@globex.com", s.other.ID, identity.DonorRoleAdmin)
	s.platform = testutil.PlatformAdmin(s.T(), s.db, "ops@impactusall.com")
}

func (s *TenantsSuite) TestListTeam() {
	team, err := s.svc.ListTeam(s.ctx, s.viewer, s.donor.ID)
	s.Require().NoError(err)
	s.Require().Len(team, 2)
	s.Equal(identity.DonorRoleAdmin, team[0].DonorRole)
	s.Equal("viewer@acme.com", team[1].Email)

	_, err = s.svc.ListTeam(s.ctx, s.outsider, s.donor.ID)
	s.True(apierrors.Is(err, apierrors.ErrNotFound))

	_, err = s.svc.ListTeam(s.ctx, s.platform, s.donor.ID)
	s.NoError(err)

	_, err = s.svc.ListTeam(s.ctx, nil, s.donor.ID)
	s.True(apierrors.Is(err, apierrors.ErrUnauthorized))
}

func (s *TenantsSuite) TestAddMember() {
	newcomer, _ := testutil.User(s.T(), s.db, "new@acme.com", identity.RolePublic)

	m, err := s.svc.AddMember(s.ctx, s.admin, s.donor.ID, "NEW@acme.com", "viewer")
	s.Require().NoError(err)
	s.Equal(newcomer.ID, m.ID)
	s.Equal(identity.DonorRoleViewer, m.DonorRole)

	var stored models.User
	s.Require().NoError(s.db.First(&stored, "id = ?", newcomer.ID).Error)
	s.Equal(string(identity.RoleCorporateUser), stored.Role)
	s.Require().NotNil(stored.DonorID)
	s.Equal(s.donor.ID, *stored.DonorID)

	entries, err := activity.List(s.ctx, s.db, activity.Filter{EntityID: s.donor.ID, Action: activity.ActionDonorMemberAdded})
	s.Require().NoError(err)
	s.Len(entries, 1)

	_, err = s.svc.AddMember(s.ctx, s.admin, s.donor.ID, "new@acme.com", identity.DonorRoleViewer)
	s.True(apierrors.Is(err, apierrors.ErrAlreadyExists))

	_, err = s.svc.AddMember(s.ctx, s.admin, s.donor.ID, "admin@globex.com", identity.DonorRoleViewer)
	s.True(apierrors.Is(err, apierrors.ErrValidation))

	_, err = s.svc.AddMember(s.ctx, s.admin, s.donor.ID, "ghost@acme.com", identity.DonorRoleViewer)
	s.True(apierrors.Is(err, apierrors.ErrNotFound))

	_, err = s.svc.AddMember(s.ctx, s.admin, s.donor.ID, "new@acme.com", "OWNER")
	s.True(apierrors.Is(err, apierrors.ErrValidation))
}

func (s *TenantsSuite) TestViewerCannotWrite() {
	testutil.User(s.T(), s.db, "new@acme.com", identity.RolePublic)

	_, err := s.svc.AddMember(s.ctx, s.viewer, s.donor.ID, "new@acme.com", identity.DonorRoleViewer)
	s.True(apierrors.Is(err, apierrors.ErrForbidden))

	err = s.svc.RemoveMember(s.ctx, s.viewer, s.donor.ID, s.admin.UserID)
	s.True(apierrors.Is(err, apierrors.ErrForbidden))

	color := "#000000"
	_, err = s.svc.UpdateSettings(s.ctx, s.viewer, s.donor.ID, Settings{PrimaryColor: &color})
	s.True(apierrors.Is(err, apierrors.ErrForbidden))

	_, err = s.svc.UpdateSettings(s.ctx, s.outsider, s.donor.ID, Settings{PrimaryColor: &color})
	s.True(apierrors.Is(err, apierrors.ErrNotFound))
}

func (s *TenantsSuite) TestRemoveMember() {
	s.True(apierrors.Is(s.svc.RemoveMember(s.ctx, s.admin, s.donor.ID, s.admin.UserID), apierrors.ErrValidation))
	s.True(apierrors.Is(s.svc.RemoveMember(s.ctx, s.admin, s.donor.ID, s.outsider.UserID), apierrors.ErrNotFound))

	s.Require().NoError(s.svc.RemoveMember(s.ctx, s.admin, s.donor.ID, s.viewer.UserID))

	var stored models.User
	s.Require().NoError(s.db.First(&stored, "id = ?", s.viewer.UserID).Error)
	s.Nil(stored.DonorID)
	s.Equal(string(identity.RolePublic), stored.Role)
	s.Empty(stored.DonorRole)

	team, err := s.svc.ListTeam(s.ctx, s.admin, s.donor.ID)
	s.Require().NoError(err)
	s.Len(team, 1)

	// the platform admin may not strip the last donor admin
	err = s.svc.RemoveMember(s.ctx, s.platform, s.donor.ID, s.admin.UserID)
	s.True(apierrors.Is(err, apierrors.ErrValidation))
}

func (s *TenantsSuite) TestUpdateSettings() {
	primary := "#0a0b0c"
	site := "https://acme.example.com"
	donor, err := s.svc.UpdateSettings(s.ctx, s.admin, s.donor.ID, Settings{
		PrimaryColor:      &primary,
		Website:           &site,
		NotificationPrefs: map[string]bool{models.PrefStoryPublished: false},
	})
	s.Require().NoError(err)
	s.Equal("#0A0B0C", donor.PrimaryColor)
	s.Equal("#F4A259", donor.SecondaryColor)
	s.False(donor.WantsNotification(models.PrefStoryPublished))

	var stored models.Donor
	s.Require().NoError(s.db.First(&stored, "id = ?", s.donor.ID).Error)
	s.Equal("https://acme.example.com", stored.Website)
	s.Equal(map[string]bool{models.PrefStoryPublished: false}, stored.NotificationPrefs)

	entries, err := activity.List(s.ctx, s.db, activity.Filter{EntityID: s.donor.ID, Action: activity.ActionDonorSettingsUpdate})
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *TenantsSuite) TestUpdateSettingsValidation() {
	bad := "blue"
	_, err := s.svc.UpdateSettings(s.ctx, s.admin, s.donor.ID, Settings{SecondaryColor: &bad})
	s.True(apierrors.Is(err, apierrors.ErrValidation))

	site := "not a url"
	_, err = s.svc.UpdateSettings(s.ctx, s.admin, s.donor.ID, Settings{Website: &site})
	s.True(apierrors.Is(err, apierrors.ErrValidation))

	_, err = s.svc.UpdateSettings(s.ctx, s.admin, s.donor.ID, Settings{NotificationPrefs: map[string]bool{"weekly_spam": true}})
	s.True(apierrors.Is(err, apierrors.ErrValidation))

	entries, err := activity.List(s.ctx, s.db, activity.Filter{EntityID: s.donor.ID})
	s.Require().NoError(err)
	s.Empty(entries)
}

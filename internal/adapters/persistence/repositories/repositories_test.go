package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/core/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestPolicyRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPolicyRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `policies` WHERE `policies`.`id` = \\? AND `policies`.`deleted_at` IS NULL").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 42)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepository_ListExpiring(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPolicyRepository(db)

	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "policy_number", "user_id", "status", "start_date", "end_date"}).
		AddRow(1, "POL-2026-AAAA0001", 7, "active", now.AddDate(-1, 0, 0), now.AddDate(0, 0, 3)).
		AddRow(2, "POL-2026-AAAA0002", 8, "active", now.AddDate(-1, 0, 0), now.AddDate(0, 0, 20))

	mock.ExpectQuery("SELECT \\* FROM `policies` WHERE \\(status = \\? AND end_date >= \\? AND end_date <= \\?\\) AND `policies`.`deleted_at` IS NULL ORDER BY end_date ASC").
		WithArgs(domain.PolicyActive, now, now.AddDate(0, 0, 30)).
		WillReturnRows(rows)

	policies, err := repo.ListExpiring(context.Background(), now, now.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, "POL-2026-AAAA0001", policies[0].PolicyNumber)
	assert.Equal(t, domain.PolicyActive, policies[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepository_FindActiveForAsset(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPolicyRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `policies` WHERE \\(user_id = \\? AND vehicle_id = \\? AND status = \\? AND end_date >= \\?\\)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "vehicle_id", "status"}).AddRow(3, 7, "car-1", "active"))

	policy, err := repo.FindActiveForAsset(context.Background(), 7, "car-1", now)
	require.NoError(t, err)
	assert.Equal(t, uint(3), policy.ID)
	require.NotNil(t, policy.VehicleID)
	assert.Equal(t, "car-1", *policy.VehicleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPolicyRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `policies` WHERE status = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery("SELECT \\* FROM `policies` WHERE status = \\? AND `policies`.`deleted_at` IS NULL ORDER BY created_at DESC LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(11, "pending").AddRow(12, "pending"))

	policies, total, err := repo.List(context.Background(), PolicyFilter{Status: domain.PolicyPending}, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Len(t, policies, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPolicyRepository(db)

	mock.ExpectExec("UPDATE `policies` SET `deleted_at`=\\? WHERE `policies`.`id` = \\? AND `policies`.`deleted_at` IS NULL").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 5))

	mock.ExpectExec("UPDATE `policies` SET `deleted_at`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), 5)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClaimRepository(db)

	rows := sqlmock.NewRows([]string{"id", "claim_number", "status", "priority", "location_address", "involved_parties", "fraud_score", "fraud_flags"}).
		AddRow(9, "CONST-2026-000009", "under_review", "high", "12 Rue de Paris", `[{"name":"A","role":"witness"}]`, 85, `["night incident"]`)

	mock.ExpectQuery("SELECT \\* FROM `claims` WHERE `claims`.`id` = \\? AND `claims`.`deleted_at` IS NULL").
		WillReturnRows(rows)

	claim, err := repo.GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimUnderReview, claim.Status)
	assert.Equal(t, "12 Rue de Paris", claim.Location.Address)
	require.Len(t, claim.InvolvedParties, 1)
	assert.Equal(t, domain.PartyWitness, claim.InvolvedParties[0].Role)
	require.NotNil(t, claim.Fraud.Score)
	assert.Equal(t, 85, *claim.Fraud.Score)
	assert.Equal(t, []string{"night incident"}, []string(claim.Fraud.Flags))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepository_ExistsByClaimNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClaimRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `claims` WHERE claim_number = \\?").
		WithArgs("CONST-2026-000001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByClaimNumber(context.Background(), "CONST-2026-000001")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepository_HighestClaimSequence(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClaimRepository(db)

	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(claim_number\\), ''\\) FROM `claims` WHERE claim_number LIKE \\?").
		WithArgs("CONST-2026-______").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow("CONST-2026-000123"))

	highest, err := repo.HighestClaimSequence(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(123), highest)

	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(claim_number\\), ''\\) FROM `claims`").
		WithArgs("CONST-2027-______").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(""))

	highest, err = repo.HighestClaimSequence(context.Background(), 2027)
	require.NoError(t, err)
	assert.Zero(t, highest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimSequencer_Next(t *testing.T) {
	db, mock := newMockDB(t)
	seq := NewClaimSequencer(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `claim_sequences`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `claim_sequences` WHERE year = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"year", "value"}).AddRow(2026, 41))
	mock.ExpectExec("UPDATE `claim_sequences` SET `value`=\\? WHERE year = \\?").
		WithArgs(int64(42), 2026).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	next, err := seq.Next(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimSequencer_NextRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	seq := NewClaimSequencer(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `claim_sequences`").
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := seq.Next(context.Background(), 2026)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock wait timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO `audit_entries`").
		WillReturnResult(sqlmock.NewResult(17, 1))

	entry := &models.AuditEntry{
		EntityType:  models.EntityClaim,
		EntityID:    9,
		Action:      models.ActionSubmit,
		FromStatus:  "draft",
		ToStatus:    "submitted",
		PerformedBy: 1,
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.Equal(t, uint(17), entry.ID)

	mock.ExpectQuery("SELECT \\* FROM `audit_entries` WHERE entity_type = \\? AND entity_id = \\? ORDER BY created_at DESC,id DESC").
		WithArgs(models.EntityClaim, 9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "action"}).
			AddRow(18, "CLAIM", 9, "REVIEW_APPROVE").
			AddRow(17, "CLAIM", 9, "SUBMIT"))

	entries, err := repo.ListByEntity(context.Background(), models.EntityClaim, 9)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionReviewApprove, entries[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"testing"
	"time"

	"templatestore-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testLicense(id, key, externalOrderID string) *model.License {
	return &model.License{
		ID:              id,
		ExternalOrderID: externalOrderID,
		TemplateID:      "tpl_a",
		Type:            model.LicenseSingle,
		Key:             key,
		MaxUsage:        5,
		IsActive:        true,
	}
}

// queryRecorder captures the SQL gorm emits so tests can assert on the
// generated statement.
type queryRecorder struct {
	last string
}

func (r *queryRecorder) LogMode(logger.LogLevel) logger.Interface        { return r }
func (r *queryRecorder) Info(context.Context, string, ...interface{})    {}
func (r *queryRecorder) Warn(context.Context, string, ...interface{})    {}
func (r *queryRecorder) Error(context.Context, string, ...interface{})   {}
func (r *queryRecorder) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	r.last, _ = fc()
}

// "key" is a reserved word in MySQL. The lookup must let the dialector
// quote the column name; a raw string condition would pass it through
// verbatim and fail with a syntax error on the MySQL driver.
func TestLicenseRepo_FindByKey_QuotesReservedColumn(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(testLicense("lic-1", "TPL-A", "ord_1")).Error)

	recorder := &queryRecorder{}
	repo := NewLicenseRepository(db.Session(&gorm.Session{Logger: recorder}))

	license, err := repo.FindByKey(ctx, "TPL-A")
	require.NoError(t, err)
	require.NotNil(t, license)

	assert.Contains(t, recorder.last, "`key`", "column must be quoted, not emitted bare")
}

func TestLicenseRepo_KeyUniquenessEnforced(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, db, testLicense("lic-1", "TPL-SAME", "ord_1")))

	err := repo.Create(ctx, db, testLicense("lic-2", "TPL-SAME", "ord_2"))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestLicenseRepo_Revoke(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, db, testLicense("lic-1", "TPL-A", "ord_1")))

	license, err := repo.Revoke(ctx, "lic-1", "chargeback")
	require.NoError(t, err)
	require.NotNil(t, license)
	assert.False(t, license.IsActive)
	assert.Equal(t, "chargeback", license.RevokeReason)

	// Idempotent: revoking again succeeds and keeps the original reason.
	license, err = repo.Revoke(ctx, "lic-1", "different reason")
	require.NoError(t, err)
	require.NotNil(t, license)
	assert.False(t, license.IsActive)
	assert.Equal(t, "chargeback", license.RevokeReason)

	// Unknown license id.
	license, err = repo.Revoke(ctx, "lic-unknown", "whatever")
	require.NoError(t, err)
	assert.Nil(t, license)
}

func TestLicenseRepo_DeactivateByOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, db, testLicense("lic-1", "TPL-A", "ord_1")))
	require.NoError(t, repo.Create(ctx, db, testLicense("lic-2", "TPL-B", "ord_1")))
	require.NoError(t, repo.Create(ctx, db, testLicense("lic-3", "TPL-C", "ord_2")))

	n, err := repo.DeactivateByOrder(ctx, db, "ord_1", "order refunded")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Second refund delivery finds nothing active to flip.
	n, err = repo.DeactivateByOrder(ctx, db, "ord_1", "order refunded")
	require.NoError(t, err)
	assert.Zero(t, n)

	untouched, err := repo.FindByKey(ctx, "TPL-C")
	require.NoError(t, err)
	assert.True(t, untouched.IsActive)
}

func TestLicenseRepo_ConsumeUsage(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseRepository(db)
	ctx := context.Background()

	license := testLicense("lic-1", "TPL-A", "ord_1")
	license.MaxUsage = 2
	require.NoError(t, repo.Create(ctx, db, license))

	for i := 0; i < 2; i++ {
		consumed, err := repo.ConsumeUsage(ctx, "lic-1")
		require.NoError(t, err)
		assert.True(t, consumed)
	}

	// Limit reached.
	consumed, err := repo.ConsumeUsage(ctx, "lic-1")
	require.NoError(t, err)
	assert.False(t, consumed)

	stored, err := repo.FindByID(ctx, "lic-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.UsedCount)
}

func TestLicenseRepo_ConsumeUsage_Unbounded(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseRepository(db)
	ctx := context.Background()

	license := testLicense("lic-1", "TPL-A", "ord_1")
	license.MaxUsage = 0
	require.NoError(t, repo.Create(ctx, db, license))

	for i := 0; i < 10; i++ {
		consumed, err := repo.ConsumeUsage(ctx, "lic-1")
		require.NoError(t, err)
		assert.True(t, consumed)
	}
}

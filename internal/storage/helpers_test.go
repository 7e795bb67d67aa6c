package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/rental-ledger/internal/config"
	"github.com/magabrotheeeer/rental-ledger/internal/migrations"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
	"github.com/magabrotheeeer/rental-ledger/internal/storage"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и накатывает миграции.
func setupTestDatabase(t *testing.T) (*storage.Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := storage.New(ctx, config.Storage{DSN: dsn, MaxOpenConns: 10, TxTimeout: 10 * time.Second})
	require.NoError(t, err)

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db.DB, filepath.Join(root, "migrations")))

	cleanup := func() {
		_ = db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return db, cleanup
}

// TestDataFactory создает связанные строки для сценариев.
type TestDataFactory struct {
	storage *storage.Storage
}

func NewTestDataFactory(s *storage.Storage) *TestDataFactory {
	return &TestDataFactory{storage: s}
}

func (f *TestDataFactory) CreateUser(t *testing.T, firstName, lastName string) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO users (first_name, last_name) VALUES ($1, $2) RETURNING user_id`,
		firstName, lastName).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *TestDataFactory) CreateLandlord(t *testing.T, trialUsed bool) (landlordID, userID int64) {
	userID = f.CreateUser(t, "", "")
	err := f.storage.DB.QueryRow(`INSERT INTO landlords (user_id, is_trial_used) VALUES ($1, $2) RETURNING landlord_id`,
		userID, trialUsed).Scan(&landlordID)
	require.NoError(t, err)
	return landlordID, userID
}

func (f *TestDataFactory) CreateTenant(t *testing.T, firstName, lastName string) int64 {
	userID := f.CreateUser(t, firstName, lastName)
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO tenants (user_id) VALUES ($1) RETURNING tenant_id`, userID).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateUnit создает объект арендодателя с одним юнитом.
func (f *TestDataFactory) CreateUnit(t *testing.T, landlordID int64, name string, secDeposit, advance string) int64 {
	var propertyID, unitID int64
	err := f.storage.DB.QueryRow(`INSERT INTO properties (landlord_id) VALUES ($1) RETURNING property_id`,
		landlordID).Scan(&propertyID)
	require.NoError(t, err)
	err = f.storage.DB.QueryRow(`INSERT INTO units (property_id, unit_name, sec_deposit, advanced_payment)
		VALUES ($1, $2, $3, $4) RETURNING unit_id`, propertyID, name, secDeposit, advance).Scan(&unitID)
	require.NoError(t, err)
	return unitID
}

func (f *TestDataFactory) CreateLease(t *testing.T, tenantID, unitID int64, secPaid, advPaid bool) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO lease_agreements
		(tenant_id, unit_id, status, is_security_deposit_paid, is_advance_payment_paid)
		VALUES ($1, $2, 'active', $3, $4) RETURNING agreement_id`,
		tenantID, unitID, secPaid, advPaid).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *TestDataFactory) CreateBilling(t *testing.T, billingID, unitID int64) {
	_, err := f.storage.DB.Exec(`INSERT INTO billings (billing_id, unit_id) VALUES ($1, $2)`, billingID, unitID)
	require.NoError(t, err)
}

// CreatePendingPayment добавляет платёж с загруженным подтверждением, ждущий проверки.
func (f *TestDataFactory) CreatePendingPayment(t *testing.T, agreementID int64, paymentType models.PaymentType, reference string) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO payments
		(agreement_id, payment_type, amount_paid, payment_method_id, payment_status, proof_of_payment, receipt_reference)
		VALUES ($1, $2, 5000, 3, 'pending', 'proofs/receipt.png', $3) RETURNING payment_id`,
		agreementID, string(paymentType), reference).Scan(&id)
	require.NoError(t, err)
	return id
}

// TestVerification читает состояние ledger напрямую.
type TestVerification struct {
	storage *storage.Storage
}

func NewTestVerification(s *storage.Storage) *TestVerification {
	return &TestVerification{storage: s}
}

func (v *TestVerification) Count(t *testing.T, query string, args ...any) int {
	var n int
	require.NoError(t, v.storage.DB.QueryRow(query, args...).Scan(&n))
	return n
}

func (v *TestVerification) ActiveSubscriptions(t *testing.T, landlordID int64) int {
	return v.Count(t, `SELECT COUNT(*) FROM subscriptions WHERE landlord_id = $1 AND is_active`, landlordID)
}

func (v *TestVerification) LeaseFlags(t *testing.T, agreementID int64) (secPaid, advPaid bool) {
	err := v.storage.DB.QueryRow(`SELECT is_security_deposit_paid, is_advance_payment_paid
		FROM lease_agreements WHERE agreement_id = $1`, agreementID).Scan(&secPaid, &advPaid)
	require.NoError(t, err)
	return secPaid, advPaid
}

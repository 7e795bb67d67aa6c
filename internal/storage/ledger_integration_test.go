package storage_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/crypto"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/month"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
	"github.com/magabrotheeeer/rental-ledger/internal/paymentprovider"
	"github.com/magabrotheeeer/rental-ledger/internal/services/billing"
	"github.com/magabrotheeeer/rental-ledger/internal/services/idempotency"
	"github.com/magabrotheeeer/rental-ledger/internal/services/lease"
	"github.com/magabrotheeeer/rental-ledger/internal/services/proof"
	"github.com/magabrotheeeer/rental-ledger/internal/services/subscription"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubGateway struct{}

func (stubGateway) CreateCheckout(_ context.Context, req paymentprovider.CheckoutRequest) (*paymentprovider.CheckoutResponse, error) {
	return &paymentprovider.CheckoutResponse{
		CheckoutID:  "chk-" + req.RequestReferenceNumber,
		RedirectURL: "https://pay.example.com/" + req.RequestReferenceNumber,
	}, nil
}

func (stubGateway) Currency() string { return "PHP" }

type recordingNotifier struct {
	mu     sync.Mutex
	userID []int64
	bodies []string
}

func (n *recordingNotifier) Notify(userID int64, _ string, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.userID = append(n.userID, userID)
	n.bodies = append(n.bodies, body)
}

func checkoutRequest(landlordID int64, plan string) models.CheckoutRequest {
	return models.CheckoutRequest{
		LandlordID: landlordID,
		PlanName:   plan,
		Amount:     decimal.NewFromInt(499),
		RedirectURL: &models.RedirectURL{
			Success: "https://app.example.com/success",
			Failure: "https://app.example.com/failure",
			Cancel:  "https://app.example.com/cancel",
		},
	}
}

func TestLedger_TrialActivation(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	verify := NewTestVerification(db)
	landlordID, _ := factory.CreateLandlord(t, false)
	svc := subscription.New(db, idempotency.New(db), stubGateway{}, newNoopLogger())

	res, err := svc.StartCheckout(context.Background(), checkoutRequest(landlordID, "Standard"))
	require.NoError(t, err)
	require.True(t, res.Trial)

	want := month.AddDays(time.Now(), 10).Format(time.DateOnly)
	var trialEnd string
	var trialUsed bool
	require.NoError(t, db.DB.QueryRow(`SELECT trial_end_date::text FROM subscriptions
		WHERE landlord_id = $1 AND is_trial`, landlordID).Scan(&trialEnd))
	require.NoError(t, db.DB.QueryRow(`SELECT is_trial_used FROM landlords WHERE landlord_id = $1`,
		landlordID).Scan(&trialUsed))
	assert.Equal(t, want, trialEnd)
	assert.True(t, trialUsed)
	assert.Equal(t, 1, verify.ActiveSubscriptions(t, landlordID))

	// второй запрос идёт в шлюз, пробный период не повторяется
	res, err = svc.StartCheckout(context.Background(), checkoutRequest(landlordID, "Standard"))
	require.NoError(t, err)
	assert.False(t, res.Trial)
	assert.NotEmpty(t, res.CheckoutURL)
	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM subscriptions WHERE landlord_id = $1 AND is_trial`, landlordID))
	assert.Equal(t, 1, verify.ActiveSubscriptions(t, landlordID))
}

func TestLedger_ConcurrentCheckoutGrantsOneTrial(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	landlordID, _ := factory.CreateLandlord(t, false)
	svc := subscription.New(db, idempotency.New(db), stubGateway{}, newNoopLogger())

	const workers = 8
	var wg sync.WaitGroup
	trials := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.StartCheckout(context.Background(), checkoutRequest(landlordID, "Premium"))
			if assert.NoError(t, err) {
				trials <- res.Trial
			}
		}()
	}
	wg.Wait()
	close(trials)

	granted := 0
	for trial := range trials {
		if trial {
			granted++
		}
	}
	assert.Equal(t, 1, granted)
	assert.Equal(t, 1, NewTestVerification(db).ActiveSubscriptions(t, landlordID))
}

func TestLedger_ConfirmPaymentIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	verify := NewTestVerification(db)
	landlordID, _ := factory.CreateLandlord(t, true)
	svc := subscription.New(db, idempotency.New(db), stubGateway{}, newNoopLogger())
	ctx := context.Background()

	checkout, err := svc.StartCheckout(ctx, checkoutRequest(landlordID, "Premium"))
	require.NoError(t, err)
	require.False(t, checkout.Trial)
	assert.Equal(t, 0, verify.ActiveSubscriptions(t, landlordID))

	req := models.ConfirmSubscriptionRequest{
		LandlordID:             landlordID,
		PlanName:               "Premium",
		Amount:                 decimal.NewFromInt(499),
		RequestReferenceNumber: checkout.RequestReferenceNumber,
	}
	first, err := svc.ConfirmPayment(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)
	assert.Equal(t, models.SubscriptionPaid, first.Subscription.Status)

	second, err := svc.ConfirmPayment(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Subscription.ID, second.Subscription.ID)

	assert.Equal(t, 1, verify.ActiveSubscriptions(t, landlordID))
	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM subscriptions WHERE request_reference_number = $1`,
		checkout.RequestReferenceNumber))

	// после подтверждения отмена уже ничего не удаляет
	cancel, err := svc.CancelPending(ctx, models.CancelPendingRequest{
		LandlordID:             landlordID,
		RequestReferenceNumber: checkout.RequestReferenceNumber,
	})
	require.NoError(t, err)
	assert.False(t, cancel.Cancelled)
	assert.True(t, cancel.HasActivePlan)
	assert.Equal(t, "Premium", cancel.ActivePlan)
}

func TestLedger_ConfirmReplacesActiveSubscription(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	landlordID, _ := factory.CreateLandlord(t, false)
	svc := subscription.New(db, idempotency.New(db), stubGateway{}, newNoopLogger())
	ctx := context.Background()

	_, err := svc.StartCheckout(ctx, checkoutRequest(landlordID, "Standard"))
	require.NoError(t, err)

	res, err := svc.ConfirmPayment(ctx, models.ConfirmSubscriptionRequest{
		LandlordID:             landlordID,
		PlanName:               "Premium",
		Amount:                 decimal.NewFromInt(999),
		RequestReferenceNumber: "REF-DIRECT",
	})
	require.NoError(t, err)

	active, err := svc.Active(ctx, landlordID)
	require.NoError(t, err)
	assert.Equal(t, res.Subscription.ID, active.ID)
	assert.Equal(t, "Premium", active.PlanName)
	assert.Equal(t, 1, NewTestVerification(db).ActiveSubscriptions(t, landlordID))
}

func TestLedger_ConcurrentConfirmAppliesOnce(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	verify := NewTestVerification(db)
	landlordID, _ := factory.CreateLandlord(t, true)
	svc := subscription.New(db, idempotency.New(db), stubGateway{}, newNoopLogger())
	req := models.ConfirmSubscriptionRequest{
		LandlordID:             landlordID,
		PlanName:               "Premium",
		Amount:                 decimal.NewFromInt(499),
		RequestReferenceNumber: "REF-RACE",
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan *models.ConfirmResult, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.ConfirmPayment(context.Background(), req)
			if assert.NoError(t, err) {
				results <- res
			}
		}()
	}
	wg.Wait()
	close(results)

	applied := 0
	ids := make(map[int64]struct{})
	for res := range results {
		if !res.Replayed {
			applied++
		}
		ids[res.Subscription.ID] = struct{}{}
	}
	assert.Equal(t, 1, applied)
	assert.Len(t, ids, 1)
	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM subscriptions WHERE request_reference_number = $1`,
		"REF-RACE"))
	assert.Equal(t, 1, verify.ActiveSubscriptions(t, landlordID))
}

func TestLedger_DowngradeExpired(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	landlordID, _ := factory.CreateLandlord(t, true)
	_, err := db.DB.Exec(`INSERT INTO subscriptions (landlord_id, plan_name, status, is_active, start_date, end_date,
		payment_status, request_reference_number)
		VALUES ($1, 'Standard', 'paid', TRUE, CURRENT_DATE - 40, CURRENT_DATE - 10, 'paid', 'REF-OLD')`, landlordID)
	require.NoError(t, err)

	svc := subscription.New(db, idempotency.New(db), stubGateway{}, newNoopLogger())
	n, err := svc.DowngradeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := svc.Active(context.Background(), landlordID)
	require.NoError(t, err)
	assert.Equal(t, models.FreePlan, active.PlanName)
	assert.Nil(t, active.EndDate)

	n, err = svc.DowngradeExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLedger_LeaseChargesReconciled(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	verify := NewTestVerification(db)
	landlordID, _ := factory.CreateLandlord(t, true)
	tenantID := factory.CreateTenant(t, "", "")
	unitID := factory.CreateUnit(t, landlordID, "Unit 1", "5000", "5000")
	agreementID := factory.CreateLease(t, tenantID, unitID, false, false)

	svc := lease.New(db, idempotency.New(db), nil, 7, newNoopLogger())
	req := models.ReconcileRequest{
		AgreementID:            agreementID,
		PaymentTypes:           []string{"security_deposit", "advance_rent"},
		RequestReferenceNumber: "REF-1",
		TotalAmount:            decimal.NewFromInt(10000),
	}

	first, err := svc.Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.PaymentType{models.PaymentSecurityDeposit, models.PaymentAdvanceRent}, first.Recorded)
	assert.True(t, decimal.NewFromInt(10000).Equal(first.Total))

	secPaid, advPaid := verify.LeaseFlags(t, agreementID)
	assert.True(t, secPaid)
	assert.True(t, advPaid)
	assert.Equal(t, 2, verify.Count(t, `SELECT COUNT(*) FROM payments
		WHERE agreement_id = $1 AND amount_paid = 5000 AND payment_status = 'confirmed'`, agreementID))

	second, err := svc.Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.ElementsMatch(t, first.Recorded, second.Recorded)
	assert.Equal(t, 2, verify.Count(t, `SELECT COUNT(*) FROM payments WHERE agreement_id = $1`, agreementID))
}

func TestLedger_ConcurrentReconcileRecordsOnce(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	verify := NewTestVerification(db)
	landlordID, _ := factory.CreateLandlord(t, true)
	tenantID := factory.CreateTenant(t, "", "")
	unitID := factory.CreateUnit(t, landlordID, "Unit 7", "5000", "5000")
	agreementID := factory.CreateLease(t, tenantID, unitID, false, false)

	svc := lease.New(db, idempotency.New(db), nil, 7, newNoopLogger())
	req := models.ReconcileRequest{
		AgreementID:            agreementID,
		PaymentTypes:           []string{"security_deposit", "advance_rent"},
		RequestReferenceNumber: "REF-1",
		TotalAmount:            decimal.NewFromInt(10000),
	}

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reconcile(context.Background(), req)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, verify.Count(t, `SELECT COUNT(*) FROM payments WHERE agreement_id = $1`, agreementID))
	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM payments
		WHERE agreement_id = $1 AND payment_type = 'security_deposit'`, agreementID))
	secPaid, advPaid := verify.LeaseFlags(t, agreementID)
	assert.True(t, secPaid)
	assert.True(t, advPaid)
}

func TestLedger_ProofApprovalOfPaidCharge(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	verify := NewTestVerification(db)
	landlordID, _ := factory.CreateLandlord(t, true)
	tenantID := factory.CreateTenant(t, "", "")
	unitID := factory.CreateUnit(t, landlordID, "Unit 5", "5000", "5000")
	agreementID := factory.CreateLease(t, tenantID, unitID, false, false)
	ctx := context.Background()

	_, err := lease.New(db, idempotency.New(db), nil, 7, newNoopLogger()).Reconcile(ctx, models.ReconcileRequest{
		AgreementID:            agreementID,
		PaymentTypes:           []string{"security_deposit"},
		RequestReferenceNumber: "REF-1",
	})
	require.NoError(t, err)

	pendingID := factory.CreatePendingPayment(t, agreementID, models.PaymentSecurityDeposit, "RCPT-9")
	svc := proof.New(db, nil, nil, newNoopLogger())

	_, err = svc.Review(ctx, pendingID, models.ReviewApprove)
	require.ErrorIs(t, err, apperr.ErrDuplicatePayment)

	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM payments
		WHERE agreement_id = $1 AND payment_type = 'security_deposit' AND payment_status = 'confirmed'`, agreementID))
	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM payments
		WHERE payment_id = $1 AND payment_status = 'pending'`, pendingID))

	// отклонить такой платёж по-прежнему можно
	res, err := svc.Review(ctx, pendingID, models.ReviewReject)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, res.Status)
}

func TestLedger_ConcurrentProofApprovalsConfirmOnce(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	verify := NewTestVerification(db)
	landlordID, _ := factory.CreateLandlord(t, true)
	tenantID := factory.CreateTenant(t, "", "")
	unitID := factory.CreateUnit(t, landlordID, "Unit 6", "5000", "5000")
	agreementID := factory.CreateLease(t, tenantID, unitID, false, false)

	ids := []int64{
		factory.CreatePendingPayment(t, agreementID, models.PaymentSecurityDeposit, "RCPT-9"),
		factory.CreatePendingPayment(t, agreementID, models.PaymentSecurityDeposit, "RCPT-10"),
	}
	svc := proof.New(db, nil, nil, newNoopLogger())

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Review(context.Background(), id, models.ReviewApprove)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	approved, duplicates := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			approved++
		case assert.ErrorIs(t, err, apperr.ErrDuplicatePayment):
			duplicates++
		}
	}
	assert.Equal(t, 1, approved)
	assert.Equal(t, 1, duplicates)
	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM payments
		WHERE agreement_id = $1 AND payment_type = 'security_deposit' AND payment_status = 'confirmed'`, agreementID))
	secPaid, _ := verify.LeaseFlags(t, agreementID)
	assert.True(t, secPaid)
}

func TestLedger_LeaseChargesPartiallyPaid(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	verify := NewTestVerification(db)
	landlordID, _ := factory.CreateLandlord(t, true)
	tenantID := factory.CreateTenant(t, "", "")
	unitID := factory.CreateUnit(t, landlordID, "Unit 2", "3000", "2500")
	agreementID := factory.CreateLease(t, tenantID, unitID, true, false)

	svc := lease.New(db, idempotency.New(db), nil, 7, newNoopLogger())
	res, err := svc.Reconcile(context.Background(), models.ReconcileRequest{
		AgreementID:            agreementID,
		PaymentTypes:           []string{"security_deposit", "advance_rent"},
		RequestReferenceNumber: "REF-2",
	})
	require.NoError(t, err)
	assert.Equal(t, []models.PaymentType{models.PaymentAdvanceRent}, res.Recorded)
	assert.True(t, decimal.NewFromInt(2500).Equal(res.Total))
	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM payments WHERE agreement_id = $1`, agreementID))

	_, advPaid := verify.LeaseFlags(t, agreementID)
	assert.True(t, advPaid)
}

func TestLedger_BillingSettlement(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	cipher, err := crypto.New("test-secret")
	require.NoError(t, err)
	first, err := cipher.EncryptString("Juan")
	require.NoError(t, err)
	last, err := cipher.EncryptString("Dela Cruz")
	require.NoError(t, err)

	factory := NewTestDataFactory(db)
	verify := NewTestVerification(db)
	landlordID, landlordUserID := factory.CreateLandlord(t, true)
	tenantID := factory.CreateTenant(t, first, last)
	unitID := factory.CreateUnit(t, landlordID, "Unit 42", "0", "0")
	factory.CreateLease(t, tenantID, unitID, true, true)
	factory.CreateBilling(t, 42, unitID)

	notifier := &recordingNotifier{}
	svc := billing.New(db, idempotency.New(db), notifier, cipher, 7, newNoopLogger())
	req := models.SettleRequest{
		TenantID:               tenantID,
		RequestReferenceNumber: "BILL-42",
		Amount:                 decimal.NewFromInt(1500),
		BillingID:              42,
		Outcome:                models.OutcomeConfirmed,
	}

	res, err := svc.Settle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.BillingPaid, res.BillingStatus)

	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM billings WHERE billing_id = 42 AND status = 'paid'`))
	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM payments
		WHERE payment_type = 'billing' AND payment_status = 'confirmed' AND amount_paid = 1500`))
	require.Len(t, notifier.userID, 1)
	assert.Equal(t, landlordUserID, notifier.userID[0])
	assert.Contains(t, notifier.bodies[0], "Juan Dela Cruz")
	assert.Contains(t, notifier.bodies[0], "Unit 42")

	_, err = svc.Settle(context.Background(), req)
	require.ErrorIs(t, err, apperr.ErrDuplicatePayment)
	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM payments WHERE receipt_reference = 'BILL-42'`))
	assert.Len(t, notifier.userID, 1)
}

func TestLedger_BillingWithoutActiveLease(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	tenantID := NewTestDataFactory(db).CreateTenant(t, "", "")
	svc := billing.New(db, idempotency.New(db), &recordingNotifier{}, nil, 7, newNoopLogger())

	_, err := svc.Settle(context.Background(), models.SettleRequest{
		TenantID:               tenantID,
		RequestReferenceNumber: "BILL-X",
		Amount:                 decimal.NewFromInt(100),
		BillingID:              1,
		Outcome:                models.OutcomeCancelled,
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, NewTestVerification(db).Count(t, `SELECT COUNT(*) FROM payments`))
}

func TestLedger_BillingOfAnotherUnit(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(db)
	verify := NewTestVerification(db)
	landlordID, _ := factory.CreateLandlord(t, true)
	tenantID := factory.CreateTenant(t, "", "")
	leasedUnit := factory.CreateUnit(t, landlordID, "Unit 8", "0", "0")
	otherUnit := factory.CreateUnit(t, landlordID, "Unit 9", "0", "0")
	factory.CreateLease(t, tenantID, leasedUnit, true, true)
	factory.CreateBilling(t, 43, otherUnit)

	notifier := &recordingNotifier{}
	svc := billing.New(db, idempotency.New(db), notifier, nil, 7, newNoopLogger())
	_, err := svc.Settle(context.Background(), models.SettleRequest{
		TenantID:               tenantID,
		RequestReferenceNumber: "BILL-43",
		Amount:                 decimal.NewFromInt(800),
		BillingID:              43,
		Outcome:                models.OutcomeConfirmed,
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Equal(t, 1, verify.Count(t, `SELECT COUNT(*) FROM billings WHERE billing_id = 43 AND status = 'unpaid'`))
	assert.Zero(t, verify.Count(t, `SELECT COUNT(*) FROM payments WHERE receipt_reference = 'BILL-43'`))
	assert.Empty(t, notifier.userID)
}

func TestStorage_NotificationsInbox(t *testing.T) {
	db, cleanup := setupTestDatabase(t)
	defer cleanup()

	userID := NewTestDataFactory(db).CreateUser(t, "", "")
	ctx := context.Background()
	for _, title := range []string{"first", "second"} {
		require.NoError(t, db.InsertNotification(ctx, &models.Notification{UserID: userID, Title: title, Body: "b"}))
	}

	got, err := db.ListNotifications(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Title)

	err = db.InsertNotification(ctx, &models.Notification{UserID: userID + 1000, Title: "t", Body: "b"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

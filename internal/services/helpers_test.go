package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eventease/eventease-gobackend/internal/models"
	"github.com/eventease/eventease-gobackend/internal/services"
	"github.com/eventease/eventease-gobackend/internal/store/memstore"
	"github.com/eventease/eventease-gobackend/internal/txref"
)

// stubGateway scripts the payment provider's behavior per test.
type stubGateway struct {
	initFn   func(ctx context.Context, req services.ChapaInitializeRequest) (*services.ChapaInitializeResult, error)
	verifyFn func(ctx context.Context, txRef string) (*services.ChapaVerifyResult, error)

	mu        sync.Mutex
	initCalls []services.ChapaInitializeRequest
}

func (g *stubGateway) Initialize(ctx context.Context, req services.ChapaInitializeRequest) (*services.ChapaInitializeResult, error) {
	g.mu.Lock()
	g.initCalls = append(g.initCalls, req)
	g.mu.Unlock()
	if g.initFn != nil {
		return g.initFn(ctx, req)
	}
	return &services.ChapaInitializeResult{
		CheckoutURL:      "https://checkout.example.test/" + req.TxRef,
		GatewayReference: "gw-" + req.TxRef,
	}, nil
}

func (g *stubGateway) Verify(ctx context.Context, txRef string) (*services.ChapaVerifyResult, error) {
	if g.verifyFn != nil {
		return g.verifyFn(ctx, txRef)
	}
	return &services.ChapaVerifyResult{Status: "success", Raw: map[string]interface{}{"status": "success"}}, nil
}

// recordingMailer captures confirmation emails instead of sending them.
type recordingMailer struct {
	mu   sync.Mutex
	sent []string // tx refs
	fail bool
}

func (m *recordingMailer) SendPaymentConfirmation(ctx context.Context, tx *models.PaymentTransaction, event *models.Event, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return context.DeadlineExceeded
	}
	m.sent = append(m.sent, tx.TxRef)
	return nil
}

func (m *recordingMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// fixture bundles the stores and services under test over memstore.
type fixture struct {
	events  *memstore.EventStore
	ledger  *memstore.TransactionStore
	users   *memstore.UserStore
	recs    *memstore.ReconciliationStore
	gateway *stubGateway
	mailer  *recordingMailer

	registrations *services.RegistrationService
	callbacks     *services.CallbackService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		events:  memstore.NewEventStore(),
		ledger:  memstore.NewTransactionStore(),
		users:   memstore.NewUserStore(),
		recs:    memstore.NewReconciliationStore(),
		gateway: &stubGateway{},
		mailer:  &recordingMailer{},
	}
	f.registrations = services.NewRegistrationService(
		f.events, f.ledger, f.users, f.gateway, txref.New(""),
		"https://api.example.test/api/payment/callback",
		"https://app.example.test/payment/return",
	)
	f.callbacks = services.NewCallbackService(f.events, f.ledger, f.users, f.recs, f.gateway, f.mailer)
	return f
}

func (f *fixture) seedEvent(t *testing.T, capacity int, price float64) *models.Event {
	t.Helper()
	event := &models.Event{
		ID:            uuid.NewString(),
		Title:         "Addis Tech Summit",
		Capacity:      capacity,
		PriceAmount:   price,
		PriceCurrency: "ETB",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, f.events.Create(context.Background(), event))
	return event
}

func (f *fixture) seedUser(t *testing.T, name, email string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.NewString(),
		FullName:  name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) seedPending(t *testing.T, txRef string, event *models.Event, userID string) *models.PaymentTransaction {
	t.Helper()
	tx := &models.PaymentTransaction{
		TxRef:     txRef,
		EventID:   event.ID,
		UserID:    userID,
		Amount:    event.PriceAmount,
		Currency:  event.PriceCurrency,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.ledger.Insert(context.Background(), tx))
	return tx
}

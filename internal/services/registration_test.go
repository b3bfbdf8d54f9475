package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventease/eventease-gobackend/internal/models"
	"github.com/eventease/eventease-gobackend/internal/services"
	"github.com/eventease/eventease-gobackend/internal/store"
)

func TestRegister_FreeEventAdmits(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 10, 0)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")

	result, err := f.registrations.Register(context.Background(), event.ID, user.ID)

	require.NoError(t, err)
	assert.Equal(t, services.StateFreeAdmitted, result.State)
	require.NotNil(t, result.Event)
	assert.Contains(t, result.Event.AttendeeIDs, user.ID)
}

func TestRegister_TwiceIsIdempotentSuccess(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 10, 0)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")

	_, err := f.registrations.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	result, err := f.registrations.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, services.StateAlreadyRegistered, result.State)

	count, err := f.events.AttendeeCount(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegister_FullEvent(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 1, 0)
	first := f.seedUser(t, "Abel Tesfaye", "abel@example.test")
	second := f.seedUser(t, "Sara Bekele", "sara@example.test")

	_, err := f.registrations.Register(context.Background(), event.ID, first.ID)
	require.NoError(t, err)

	_, err = f.registrations.Register(context.Background(), event.ID, second.ID)
	assert.ErrorIs(t, err, services.ErrCapacityExceeded)
}

func TestRegister_ConcurrentForLastSlot(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 1, 0)

	const callers = 2
	var wg sync.WaitGroup
	outcomes := make([]error, callers)
	for i := 0; i < callers; i++ {
		user := f.seedUser(t, fmt.Sprintf("User %d", i), fmt.Sprintf("user%d@example.test", i))
		wg.Add(1)
		go func(n int, userID string) {
			defer wg.Done()
			_, outcomes[n] = f.registrations.Register(context.Background(), event.ID, userID)
		}(i, user.ID)
	}
	wg.Wait()

	var admitted, full int
	for _, err := range outcomes {
		switch {
		case err == nil:
			admitted++
		case assert.ErrorIs(t, err, services.ErrCapacityExceeded):
			full++
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, full)
}

func TestRegister_PaidEventRejected(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 10, 250)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")

	_, err := f.registrations.Register(context.Background(), event.ID, user.ID)

	assert.ErrorIs(t, err, services.ErrPaidEvent)
}

func TestRegister_UnknownEvent(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")

	_, err := f.registrations.Register(context.Background(), "missing", user.ID)

	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInitializePurchase_ReturnsCheckout(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 10, 250)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")

	result, err := f.registrations.InitializePurchase(context.Background(), event.ID, user.ID)

	require.NoError(t, err)
	assert.Equal(t, services.StatePaymentPending, result.State)
	assert.NotEmpty(t, result.TxRef)
	assert.Equal(t, "https://checkout.example.test/"+result.TxRef, result.CheckoutURL)
	assert.Equal(t, 250.0, result.Amount)
	assert.Equal(t, "ETB", result.Currency)

	// The ledger row is pending and carries the gateway's reference.
	tx, err := f.ledger.FindByTxRef(context.Background(), result.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, tx.Status)
	assert.Equal(t, "gw-"+result.TxRef, tx.GatewayReference)

	// No admission happens before the money clears.
	count, err := f.events.AttendeeCount(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// The gateway was given the callback URL with the reference attached.
	require.Len(t, f.gateway.initCalls, 1)
	assert.Contains(t, f.gateway.initCalls[0].CallbackURL, result.TxRef)
	assert.Equal(t, user.Email, f.gateway.initCalls[0].Email)
}

func TestInitializePurchase_FreeEvent(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 10, 0)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")

	_, err := f.registrations.InitializePurchase(context.Background(), event.ID, user.ID)

	assert.ErrorIs(t, err, services.ErrFreeEvent)
}

func TestInitializePurchase_AlreadyTicketed(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 10, 250)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")
	tx := f.seedPending(t, "EE-1-aaaaaaaa", event, user.ID)
	_, err := f.ledger.MarkTerminal(context.Background(), tx.TxRef, models.StatusSuccess, nil)
	require.NoError(t, err)

	_, err = f.registrations.InitializePurchase(context.Background(), event.ID, user.ID)

	assert.ErrorIs(t, err, services.ErrAlreadyTicketed)
}

func TestInitializePurchase_EventFull(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 1, 250)
	_, err := f.events.TryAdmit(context.Background(), event.ID, "someone-else")
	require.NoError(t, err)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")

	_, err = f.registrations.InitializePurchase(context.Background(), event.ID, user.ID)

	assert.ErrorIs(t, err, services.ErrCapacityExceeded)
}

func TestInitializePurchase_GatewayFailureLeavesPendingRow(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 10, 250)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")
	f.gateway.initFn = func(ctx context.Context, req services.ChapaInitializeRequest) (*services.ChapaInitializeResult, error) {
		return nil, fmt.Errorf("%w: initialize returned status 503", services.ErrGateway)
	}

	_, err := f.registrations.InitializePurchase(context.Background(), event.ID, user.ID)
	assert.ErrorIs(t, err, services.ErrGateway)

	// The orphaned pending row stays behind; it consumes no capacity and can
	// never be promoted without a verified callback.
	txs, err := f.ledger.FindByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.StatusPending, txs[0].Status)
}

func TestInitializePurchase_TwoPendingRowsAllowed(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 10, 250)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")

	first, err := f.registrations.InitializePurchase(context.Background(), event.ID, user.ID)
	require.NoError(t, err)
	second, err := f.registrations.InitializePurchase(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.TxRef, second.TxRef, "only success is exclusive, pending rows may coexist")
}

func TestPaymentStatus_JoinsEventSummary(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 10, 250)
	user := f.seedUser(t, "Abel Tesfaye", "abel@example.test")
	tx := f.seedPending(t, "EE-7-bbbbbbbb", event, user.ID)

	result, err := f.registrations.PaymentStatus(context.Background(), tx.TxRef)

	require.NoError(t, err)
	assert.Equal(t, tx.TxRef, result.Transaction.TxRef)
	require.NotNil(t, result.Event)
	assert.Equal(t, event.ID, result.Event.ID)
}

func TestPaymentStatus_UnknownTxRef(t *testing.T) {
	f := newFixture(t)

	_, err := f.registrations.PaymentStatus(context.Background(), "EE-0-missing0")

	assert.ErrorIs(t, err, store.ErrNotFound)
}

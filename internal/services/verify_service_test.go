package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jahmax1/Dragotix/internal/services/proof"
	"github.com/Jahmax1/Dragotix/internal/status"
	"github.com/Jahmax1/Dragotix/models"
)

func newTestVerifyService(t *testing.T, fs *fakeStore) (*VerifyService, *proof.Codec) {
	t.Helper()
	codec, err := proof.NewCodec("test-signing-key")
	require.NoError(t, err)
	return NewVerifyService(fs, codec, NopNotifier{}), codec
}

// issueTicket seeds a purchased ticket with a matching signed proof, the way
// the confirmation flow would have stored it.
func issueTicket(t *testing.T, fs *fakeStore, codec *proof.Codec, userID string, ticketStatus string) (*models.Ticket, string) {
	t.Helper()

	purchaseDate := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
	encoded, err := codec.Encode(proof.Payload{
		UserID:       userID,
		EventID:      "event-1",
		TicketType:   "VIP",
		PurchaseDate: purchaseDate,
	})
	require.NoError(t, err)

	tk := seedTicket(fs, userID, purchaseDate, ticketStatus)
	tk.Proof = encoded
	return tk, encoded
}

func seedVerificationWorld(fs *fakeStore) {
	seedEvent(fs, 5)
	fs.users["user-1"] = &models.User{ID: "user-1", Email: "fan@example.com", Role: "user"}
}

func TestVerifyService_Verify_Success(t *testing.T) {
	fs := newFakeStore()
	seedVerificationWorld(fs)
	svc, codec := newTestVerifyService(t, fs)
	tk, encoded := issueTicket(t, fs, codec, "user-1", models.TicketStatusPurchased)

	summary, err := svc.Verify(context.Background(), encoded)
	require.NoError(t, err)

	assert.Equal(t, "fan@example.com", summary.UserEmail)
	assert.Equal(t, "Test Concert", summary.EventTitle)
	assert.Equal(t, "VIP", summary.TicketType)
	assert.True(t, summary.PurchaseDate.Equal(tk.PurchaseDate))

	stored, _ := fs.FindTicketByID(tk.ID)
	assert.Equal(t, models.TicketStatusScanned, stored.Status)
}

func TestVerifyService_Verify_Replay(t *testing.T) {
	fs := newFakeStore()
	seedVerificationWorld(fs)
	svc, codec := newTestVerifyService(t, fs)
	_, encoded := issueTicket(t, fs, codec, "user-1", models.TicketStatusPurchased)

	_, err := svc.Verify(context.Background(), encoded)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), encoded)
	assert.ErrorIs(t, err, status.ErrAlreadyScanned)
}

func TestVerifyService_Verify_MalformedProof(t *testing.T) {
	fs := newFakeStore()
	seedVerificationWorld(fs)
	svc, _ := newTestVerifyService(t, fs)

	_, err := svc.Verify(context.Background(), "not-a-proof")
	assert.ErrorIs(t, err, status.ErrMalformedProof)
}

func TestVerifyService_Verify_UnknownTicket(t *testing.T) {
	fs := newFakeStore()
	seedVerificationWorld(fs)
	svc, codec := newTestVerifyService(t, fs)

	// Validly signed proof with no ticket behind it.
	encoded, err := codec.Encode(proof.Payload{
		UserID:       "user-1",
		EventID:      "event-1",
		TicketType:   "VIP",
		PurchaseDate: time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), encoded)
	assert.ErrorIs(t, err, status.ErrUnknownTicket)
}

func TestVerifyService_Verify_OrphanedUser(t *testing.T) {
	fs := newFakeStore()
	seedEvent(fs, 5)
	svc, codec := newTestVerifyService(t, fs)
	tk, encoded := issueTicket(t, fs, codec, "deleted-user", models.TicketStatusPurchased)

	_, err := svc.Verify(context.Background(), encoded)
	assert.ErrorIs(t, err, status.ErrUnknownUser)

	// The failed scan must not consume the ticket.
	stored, _ := fs.FindTicketByID(tk.ID)
	assert.Equal(t, models.TicketStatusPurchased, stored.Status)
}

func TestVerifyService_Verify_CancelledTicket(t *testing.T) {
	fs := newFakeStore()
	seedVerificationWorld(fs)
	svc, codec := newTestVerifyService(t, fs)
	_, encoded := issueTicket(t, fs, codec, "user-1", models.TicketStatusCancelled)

	_, err := svc.Verify(context.Background(), encoded)
	assert.ErrorIs(t, err, status.ErrTicketCancelled)
}

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	return ve.Field
}

func TestNewContactRequest_Normalizes(t *testing.T) {
	r := NewContactRequest("  Mario Rossi ", " Mario.Rossi@Example.COM ", " Nuovo sito ", "  Vorrei un preventivo. ")

	assert.Equal(t, "Mario Rossi", r.Name)
	assert.Equal(t, "mario.rossi@example.com", r.Email)
	assert.Equal(t, "Nuovo sito", r.Subject)
	assert.Equal(t, "Vorrei un preventivo.", r.Message)
	assert.NoError(t, r.Validate())
}

func TestContactRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      ContactRequest
		field   string
		wantErr bool
	}{
		{"short message", NewContactRequest("Al", "a@b.com", "Hi there", "short"), "message", true},
		{"missing name", NewContactRequest("", "a@b.com", "Hi there", "long enough message"), "name", true},
		{"blank name", NewContactRequest("   ", "a@b.com", "Hi there", "long enough message"), "name", true},
		{"bad email", NewContactRequest("Al", "not-an-email", "Hi there", "long enough message"), "email", true},
		{"email without tld", NewContactRequest("Al", "a@b", "Hi there", "long enough message"), "email", true},
		{"short name", NewContactRequest("A", "a@b.com", "Hi there", "long enough message"), "name", true},
		{"short subject", NewContactRequest("Al", "a@b.com", "Hi", "long enough message"), "subject", true},
		{"padded message", NewContactRequest("Al", "a@b.com", "Hi there", "   short    "), "message", true},
		{"valid", NewContactRequest("Al", "a@b.com", "Hi there", "long enough message"), "", false},
		{"multibyte name", NewContactRequest("Zö", "zo@b.it", "Ciao ciao", "questo è un messaggio"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.field, fieldOf(t, err))
		})
	}
}

func TestContactRequest_AssignDefaultsToNew(t *testing.T) {
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	r := NewContactRequest("Al", "a@b.com", "Hi there", "long enough message").Assign("id-1", now)

	assert.Equal(t, "id-1", r.ID)
	assert.Equal(t, RequestStatusNew, r.Status)
	assert.Equal(t, now, r.CreatedAt)
	assert.Equal(t, now, r.UpdatedAt)
	assert.True(t, r.Unread())
}

func TestContactRequest_TransitionToRead(t *testing.T) {
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	r := NewContactRequest("Al", "a@b.com", "Hi there", "long enough message").Assign("id-1", now)

	read, err := record.Transition(r, RequestStatusRead, now)

	require.NoError(t, err)
	assert.Equal(t, RequestStatusRead, read.Status)
	assert.True(t, read.UpdatedAt.After(read.CreatedAt))
	assert.Equal(t, r.Message, read.Message)

	_, err = record.Transition(r, RequestStatus("archived"), now)
	assert.ErrorIs(t, err, errs.ErrInvalidStatus)
}

func TestContactRequest_WithNotes(t *testing.T) {
	created := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	r := NewContactRequest("Al", "a@b.com", "Hi there", "long enough message").Assign("id-1", created)
	at := created.Add(time.Hour)

	noted := r.WithNotes("called back", at)

	assert.Equal(t, "called back", noted.AdminNotes)
	require.NotNil(t, noted.NotesUpdatedAt)
	assert.Equal(t, at, *noted.NotesUpdatedAt)
	assert.Equal(t, RequestStatusNew, noted.Status)
	assert.Empty(t, r.AdminNotes)
}

func TestContactRequest_SearchText(t *testing.T) {
	r := NewContactRequest("Giulia Bianchi", "giulia@startup.it", "E-commerce", "Negozio online per abbigliamento")

	for _, q := range []string{"Giulia", "startup.it", "commerce", "abbigliamento"} {
		assert.Contains(t, r.SearchText(), q)
	}
}

func TestRequestStatus_Valid(t *testing.T) {
	for _, s := range RequestStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, RequestStatus("").Valid())
	assert.False(t, RequestStatus("open").Valid())
	assert.False(t, RequestStatus("NEW").Valid())
}

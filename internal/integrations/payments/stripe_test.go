package payments

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"lexdesk/internal/config"
	"lexdesk/internal/practice"
)

// fakeStripe records the form posted to each path and replies with canned
// JSON bodies.
type fakeStripe struct {
	mu        sync.Mutex
	calls     []string
	forms     map[string]map[string]string
	customers string
}

func newFakeStripe(t *testing.T, existingCustomers string) (*fakeStripe, *httptest.Server) {
	t.Helper()
	f := &fakeStripe{forms: map[string]map[string]string{}, customers: existingCustomers}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		form := map[string]string{}
		for k := range r.Form {
			form[k] = r.Form.Get(k)
		}
		f.forms[r.Method+" "+r.URL.Path] = form
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "GET /v1/customers":
			w.Write([]byte(`{"object":"list","url":"/v1/customers","has_more":false,"data":[` + f.customers + `]}`))
		case "POST /v1/customers":
			w.Write([]byte(`{"id":"cus_new","object":"customer"}`))
		case "POST /v1/invoices":
			w.Write([]byte(`{"id":"in_123","object":"invoice"}`))
		case "POST /v1/invoiceitems":
			w.Write([]byte(`{"id":"ii_1","object":"invoiceitem"}`))
		case "POST /v1/invoices/in_123/finalize":
			w.Write([]byte(`{"id":"in_123","object":"invoice","status":"open"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"no such route"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func TestNewStripe_Unconfigured(t *testing.T) {
	assert.Nil(t, NewStripe(config.StripeConfig{}))
}

func TestStripe_EnsureCustomer(t *testing.T) {
	ctx := context.Background()
	info := practice.CustomerInfo{Email: "c1@example.com", Name: "Client One", Phone: "555-0100"}

	t.Run("reuses existing customer", func(t *testing.T) {
		f, srv := newFakeStripe(t, `{"id":"cus_existing","object":"customer"}`)
		s := NewStripe(config.StripeConfig{SecretKey: "sk_test", BaseURL: srv.URL})

		id, err := s.EnsureCustomer(ctx, info)
		require.NoError(t, err)
		assert.Equal(t, "cus_existing", id)
		assert.Equal(t, []string{"GET /v1/customers"}, f.calls)
		assert.Equal(t, "c1@example.com", f.forms["GET /v1/customers"]["email"])
		assert.Equal(t, "1", f.forms["GET /v1/customers"]["limit"])
	})

	t.Run("creates customer when none exists", func(t *testing.T) {
		f, srv := newFakeStripe(t, "")
		s := NewStripe(config.StripeConfig{SecretKey: "sk_test", BaseURL: srv.URL})

		id, err := s.EnsureCustomer(ctx, info)
		require.NoError(t, err)
		assert.Equal(t, "cus_new", id)
		assert.Equal(t, []string{"GET /v1/customers", "POST /v1/customers"}, f.calls)
		form := f.forms["POST /v1/customers"]
		assert.Equal(t, "Client One", form["name"])
		assert.Equal(t, "555-0100", form["phone"])
	})
}

func TestStripe_CreateInvoice(t *testing.T) {
	f, srv := newFakeStripe(t, "")
	s := NewStripe(config.StripeConfig{SecretKey: "sk_test", BaseURL: srv.URL})

	id, err := s.CreateInvoice(context.Background(), "cus_1", 25000, "Consultation")
	require.NoError(t, err)
	assert.Equal(t, "in_123", id)
	assert.Equal(t, []string{
		"POST /v1/invoices",
		"POST /v1/invoiceitems",
		"POST /v1/invoices/in_123/finalize",
	}, f.calls)

	inv := f.forms["POST /v1/invoices"]
	assert.Equal(t, "send_invoice", inv["collection_method"])
	assert.Equal(t, "30", inv["days_until_due"])

	item := f.forms["POST /v1/invoiceitems"]
	assert.Equal(t, "25000", item["amount"])
	assert.Equal(t, "usd", item["currency"])
	assert.Equal(t, "in_123", item["invoice"])
	assert.Equal(t, "Consultation", item["description"])
}

func TestStripe_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad customer"}}`))
	}))
	defer srv.Close()
	s := NewStripe(config.StripeConfig{SecretKey: "sk_test", BaseURL: srv.URL})

	_, err := s.CreateInvoice(context.Background(), "cus_bad", 100, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, practice.ErrUpstream))
}

func TestParseWebhook(t *testing.T) {
	const secret = "whsec_test"
	paid := []byte(`{"id":"evt_1","object":"event","type":"invoice.paid","data":{"object":{"id":"in_123","object":"invoice"}}}`)
	other := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)

	sign := func(payload []byte, key string) string {
		return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: key}).Header
	}

	tests := []struct {
		name      string
		payload   []byte
		signature string
		secret    string
		want      practice.PaymentEvent
		wantErr   error
	}{
		{
			name:      "valid invoice event",
			payload:   paid,
			signature: sign(paid, secret),
			secret:    secret,
			want:      practice.PaymentEvent{Type: "invoice.paid", ExternalInvoiceID: "in_123"},
		},
		{
			name:      "non-invoice object",
			payload:   other,
			signature: sign(other, secret),
			secret:    secret,
			want:      practice.PaymentEvent{Type: "customer.created"},
		},
		{
			name:      "wrong secret",
			payload:   paid,
			signature: sign(paid, "whsec_other"),
			secret:    secret,
			wantErr:   practice.ErrInvalidSignature,
		},
		{
			name:      "missing header",
			payload:   paid,
			signature: "",
			secret:    secret,
			wantErr:   practice.ErrInvalidSignature,
		},
		{
			name:      "secret not configured",
			payload:   paid,
			signature: sign(paid, secret),
			secret:    "",
			wantErr:   practice.ErrInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWebhook(tt.payload, tt.signature, tt.secret)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

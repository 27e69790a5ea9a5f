package handlers

import "testing"

// TestValidatePayment проверяет пополевую валидацию платежных данных.
func TestValidatePayment(t *testing.T) {
	valid := paymentRequest{
		CardNumber:     "4242 4242 4242 4242",
		ExpiryDate:     "12/39",
		CVV:            "123",
		CardHolder:     "Jane Doe",
		BillingAddress: "1 Main St, Springfield",
	}

	if fieldErrors := validatePayment(valid); len(fieldErrors) != 0 {
		t.Fatalf("expected no errors, got %v", fieldErrors)
	}

	cases := []struct {
		name   string
		mutate func(*paymentRequest)
		field  string
	}{
		{"short card number", func(r *paymentRequest) { r.CardNumber = "1234" }, "card_number"},
		{"letters in card number", func(r *paymentRequest) { r.CardNumber = "4242abcd42424242" }, "card_number"},
		{"bad expiry format", func(r *paymentRequest) { r.ExpiryDate = "13/39" }, "expiry_date"},
		{"expired card", func(r *paymentRequest) { r.ExpiryDate = "01/20" }, "expiry_date"},
		{"short cvv", func(r *paymentRequest) { r.CVV = "12" }, "cvv"},
		{"blank holder", func(r *paymentRequest) { r.CardHolder = "   " }, "card_holder"},
		{"blank address", func(r *paymentRequest) { r.BillingAddress = "" }, "billing_address"},
	}

	for _, tc := range cases {
		req := valid
		tc.mutate(&req)

		fieldErrors := validatePayment(req)
		if _, ok := fieldErrors[tc.field]; !ok {
			t.Fatalf("%s: expected error for field %q, got %v", tc.name, tc.field, fieldErrors)
		}
	}
}

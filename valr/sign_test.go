package valr

import "testing"

func TestSignKnownVectors(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		ts     int64
		method string
		path   string
		body   string
		want   string
	}{
		{
			// Vector published in the exchange API documentation.
			name:   "documented balances request",
			secret: "4961b74efac86b25cce8fbe4c9811c4c7a787b7a5996660afcc2e287ad864363",
			ts:     1558014486185,
			method: "GET",
			path:   "/v1/account/balances",
			body:   "",
			want:   "9d52c181ed69460b49307b7891f04658e938b21181173844b5018b2fe783a6d4c62b8e67a03de4d099e7437ebfabe12c56233b73c6a0cc0f7ae87e05f6289928",
		},
		{
			name:   "get without body",
			secret: "topsecret",
			ts:     1700000000000,
			method: "GET",
			path:   "/v1/public/time",
			body:   "",
			want:   "021ba8f95908daf6c2e453e3dbf8c04e19cd485062e1a7b0c43e1c57a54e788560ea4d09d7602e7a9b622f0c5913992d7495e7d815b1a8fb67c1fc39046800e1",
		},
		{
			name:   "post with body",
			secret: "topsecret",
			ts:     1700000000000,
			method: "POST",
			path:   "/v1/orders/limit",
			body:   `{"pair":"BTCZAR"}`,
			want:   "0b410622f8ffd943530425da12985e10727cbe21d348758785bd504fa2dc66c98e4bc008766345aa44383f8cc04568315f4b2285fa5b6bc9f67a813570a8b9ae",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sign(tt.secret, tt.ts, tt.method, tt.path, tt.body)
			if got != tt.want {
				t.Fatalf("Sign() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSignUppercasesMethod(t *testing.T) {
	upper := Sign("s", 1, "GET", "/v1/public/time", "")
	lower := Sign("s", 1, "get", "/v1/public/time", "")
	if upper != lower {
		t.Fatalf("method case changed the signature")
	}
}

func TestSignSensitivity(t *testing.T) {
	base := Sign("s", 1, "GET", "/v1/public/time", "")
	variants := []string{
		Sign("x", 1, "GET", "/v1/public/time", ""),
		Sign("s", 2, "GET", "/v1/public/time", ""),
		Sign("s", 1, "POST", "/v1/public/time", ""),
		Sign("s", 1, "GET", "/v1/public/status", ""),
		Sign("s", 1, "GET", "/v1/public/time", "x"),
	}
	for i, v := range variants {
		if v == base {
			t.Fatalf("variant %d produced the same signature as the base input", i)
		}
	}
}

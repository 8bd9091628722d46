package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"financeiro/internal/core"
)

func decode(t *testing.T, s string) core.AppData {
	t.Helper()
	var a core.AppData
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return a
}

func TestSnapshotShape(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{name: "empty collections", in: `{"entradas":[],"fixas":[],"cartoes":[]}`},
		{name: "with watermark", in: `{"entradas":[],"fixas":[],"cartoes":[],"lastProcessedMonth":"2024-06-01"}`},
		{name: "missing collections", in: `{"foo":1}`, wantErr: "entradas"},
		{name: "bad watermark", in: `{"entradas":[],"fixas":[],"cartoes":[],"lastProcessedMonth":"2024-06-15"}`, wantErr: "monthkey"},
		{
			name:    "non positive income",
			in:      `{"entradas":[{"id":"a","date":"2024-01-01","description":"x","value":0}],"fixas":[],"cartoes":[]}`,
			wantErr: "value",
		},
		{
			name:    "due day out of range",
			in:      `{"entradas":[],"fixas":[{"id":"f","description":"x","value":1,"dueDate":32,"paidMonths":[]}],"cartoes":[]}`,
			wantErr: "dueDate",
		},
		{
			name:    "duplicate paid month",
			in:      `{"entradas":[],"fixas":[{"id":"f","description":"x","value":1,"dueDate":3,"paidMonths":[{"monthKey":"2024-01-01"},{"monthKey":"2024-01-01"}]}],"cartoes":[]}`,
			wantErr: "unique",
		},
		{
			name:    "income below a cent",
			in:      `{"entradas":[{"id":"a","date":"2024-01-01","description":"x","value":10.005}],"fixas":[],"cartoes":[]}`,
			wantErr: "cents",
		},
		{
			name:    "installment below a cent",
			in:      `{"entradas":[],"fixas":[],"cartoes":[{"id":"c","name":"Visa","dueDate":10,"purchases":[{"id":"p","date":"2024-01-01","description":"x","value":10,"installments":[{"value":10.001,"dueDate":"2024-02-10","isPaid":false}]}]}]}`,
			wantErr: "cents",
		},
		{
			name:    "purchase without installments",
			in:      `{"entradas":[],"fixas":[],"cartoes":[{"id":"c","name":"Visa","dueDate":10,"purchases":[{"id":"p","date":"2024-01-01","description":"x","value":10,"installments":[]}]}]}`,
			wantErr: "installments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(decode(t, tt.in))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", Describe(err))
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(strings.Join(Describe(err), "\n"), tt.wantErr) {
				t.Fatalf("error %v does not mention %q", Describe(err), tt.wantErr)
			}
		})
	}
}

func TestDescribeNil(t *testing.T) {
	if Describe(nil) != nil {
		t.Fatalf("expected nil")
	}
}

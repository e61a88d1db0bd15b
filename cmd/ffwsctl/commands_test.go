package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/esareynor/ffws-jatim-sub001/internal/auth"
	"github.com/esareynor/ffws-jatim-sub001/internal/config"
	"github.com/esareynor/ffws-jatim-sub001/internal/output"
)

func testContext(buf *bytes.Buffer) Context {
	return Context{
		Config: config.Config{
			DB:   config.DBConfig{Timezone: "Asia/Jakarta"},
			Auth: config.AuthConfig{JWTSecret: "test-secret"},
		},
		Logger: zap.NewNop(),
		Output: output.FormatJSON,
		Stdout: buf,
	}
}

func TestDispatchRejectsBadInvocations(t *testing.T) {
	var buf bytes.Buffer
	ctx := testContext(&buf)

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"backfill"}, "unknown command"},
		{[]string{"provision"}, "--source required"},
		{[]string{"curves"}, "--sensor required"},
		{[]string{"recalculate"}, "--sensor required"},
		{[]string{"recalculate", "--sensor", "S1", "--from", "%%%"}, "--from"},
		{[]string{"token"}, "--subject required"},
	}
	for _, tc := range cases {
		err := Dispatch(ctx, tc.args)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%v: expected error containing %q, got %v", tc.args, tc.want, err)
		}
	}
}

func TestParseBoundUsesLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	got, err := parseBound("from", "2025-01-01 07:00:00", loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant: %v", got.UTC())
	}
	if got, err := parseBound("to", " ", loc); err != nil || got != nil {
		t.Fatalf("expected open bound, got %v %v", got, err)
	}
}

func TestTokenCommandSignsVerifiableToken(t *testing.T) {
	var buf bytes.Buffer
	ctx := testContext(&buf)
	if err := Dispatch(ctx, []string{"token", "--subject", "ops", "--ttl", "1h"}); err != nil {
		t.Fatalf("token: %v", err)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := auth.JWT{Secret: []byte("test-secret")}.Verify(out.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "ops" || claims.Role != "operator" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	ctx.Config.Auth.JWTSecret = ""
	if err := Dispatch(ctx, []string{"token", "--subject", "ops"}); err == nil {
		t.Fatalf("expected error without secret")
	}
}

package grpcapi

import (
	"context"
	"fmt"
	"net"
	"slices"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/errs"
	"github.com/xtding233/gacha-scout/internal/gacha"
	"github.com/xtding233/gacha-scout/internal/rates"
	"github.com/xtding233/gacha-scout/internal/scout"
)

type fakeScouter struct {
	last gacha.DrawRequest
	opts scout.ScoutOptions
	err  error
}

func (f *fakeScouter) Scout(_ context.Context, req gacha.DrawRequest, opts scout.ScoutOptions) (scout.Result, error) {
	f.last, f.opts = req, opts
	if f.err != nil {
		return scout.Result{}, f.err
	}
	return scout.Result{Image: []byte("png-bytes")}, nil
}

type fakeDrawer struct {
	err error
}

func (f *fakeDrawer) Draw(_ context.Context, req gacha.DrawRequest) ([]card.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]card.Card, req.Count)
	for i := range out {
		out[i] = card.Card{ID: 10 + i%2, Name: "Kurosawa Dia", Rarity: card.UR}
	}
	return out, nil
}

func dial(t *testing.T, sc Scouter, d scout.Drawer) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(NewServer(sc, d, nil), nil)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestScoutRoundTrip(t *testing.T) {
	sc := &fakeScouter{}
	c := dial(t, sc, &fakeDrawer{})

	out, err := c.Scout(context.Background(), mustStruct(t, map[string]any{
		"box":        "Support",
		"count":      11,
		"guaranteed": true,
		"filter":     map[string]any{"main_unit": []any{"Aqours"}, "year": "First,Second"},
		"rows":       3,
		"labels":     true,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if string(out.GetValue()) != "png-bytes" {
		t.Fatalf("image = %q", out.GetValue())
	}
	if sc.last.Box != gacha.BoxSupport || sc.last.Count != 11 || !sc.last.GuaranteedRare {
		t.Fatalf("request = %+v", sc.last)
	}
	if !slices.Equal(sc.last.Filter.Values(card.DimYear), []string{"First", "Second"}) ||
		!slices.Equal(sc.last.Filter.Values(card.DimMainUnit), []string{"Aqours"}) {
		t.Fatalf("filter = %v", sc.last.Filter)
	}
	if sc.opts.Rows != 3 || !sc.opts.Labels {
		t.Fatalf("opts = %+v", sc.opts)
	}
}

func TestDrawRoundTrip(t *testing.T) {
	c := dial(t, &fakeScouter{}, &fakeDrawer{})
	out, err := c.Draw(context.Background(), mustStruct(t, map[string]any{"count": 3}))
	if err != nil {
		t.Fatal(err)
	}
	m := out.AsMap()
	if m["box"] != "honour" || m["count"] != float64(3) || m["unique"] != float64(2) {
		t.Fatalf("response = %v", m)
	}
	cards := m["cards"].([]any)
	if first := cards[0].(map[string]any); first["rarity"] != "UR" || first["id"] != float64(10) {
		t.Fatalf("card = %v", first)
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: UR", errs.ErrPoolExhausted), codes.NotFound},
		{fmt.Errorf("%w: reset", errs.ErrTransport), codes.Unavailable},
		{fmt.Errorf("%w: 3 of 4", errs.ErrIntegrity), codes.Internal},
		{fmt.Errorf("%w: %q", gacha.ErrUnknownBox, "x"), codes.NotFound},
		{fmt.Errorf("box honour: %w: sum 0.5", gacha.ErrInvalidTable), codes.InvalidArgument},
		{fmt.Errorf("%w: rates.r: negative", rates.ErrInvalidConfig), codes.InvalidArgument},
	}
	for _, tt := range tests {
		c := dial(t, &fakeScouter{err: tt.err}, &fakeDrawer{})
		_, err := c.Scout(context.Background(), mustStruct(t, map[string]any{"count": 2}))
		if got := status.Code(err); got != tt.want {
			t.Errorf("%v: code = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestInvalidArguments(t *testing.T) {
	c := dial(t, &fakeScouter{}, &fakeDrawer{})
	for _, in := range []map[string]any{
		{"count": 0},
		{"count": 2.5},
		{"count": 51},
		{"filter": map[string]any{"colour": []any{"red"}}},
	} {
		_, err := c.Draw(context.Background(), mustStruct(t, in))
		if status.Code(err) != codes.InvalidArgument {
			t.Errorf("%v: code = %v", in, status.Code(err))
		}
	}
}

package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/errs"
	"github.com/xtding233/gacha-scout/internal/gacha"
	"github.com/xtding233/gacha-scout/internal/rates"
	"github.com/xtding233/gacha-scout/internal/scout"
)

const maxCount = 50

// Scouter renders scouts.
type Scouter interface {
	Scout(ctx context.Context, req gacha.DrawRequest, opts scout.ScoutOptions) (scout.Result, error)
}

// Server implements ScoutServiceServer on top of the scout service.
type Server struct {
	scouter Scouter
	drawer  scout.Drawer
	logger  *slog.Logger
}

var _ ScoutServiceServer = (*Server)(nil)

func NewServer(sc Scouter, d scout.Drawer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{scouter: sc, drawer: d, logger: logger}
}

// NewGRPCServer builds a grpc.Server with tracing and access logging, and
// registers srv on it.
func NewGRPCServer(srv *Server, logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(LoggingInterceptor(logger)),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterScoutServiceServer(s, srv)
	return s
}

// LoggingInterceptor logs each call with structured fields.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.InfoContext(ctx, "rpc",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

func (s *Server) Scout(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	req, err := drawRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	fields := in.GetFields()
	opts := scout.ScoutOptions{
		Rows:   int(fields["rows"].GetNumberValue()),
		Align:  fields["align"].GetBoolValue(),
		Labels: fields["labels"].GetBoolValue(),
	}
	res, err := s.scouter.Scout(ctx, req, opts)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return wrapperspb.Bytes(res.Image), nil
}

func (s *Server) Draw(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := drawRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	cards, err := s.drawer.Draw(ctx, req)
	if err != nil {
		return nil, s.toStatus(err)
	}
	list := make([]any, len(cards))
	for i, c := range cards {
		list[i] = map[string]any{
			"id":        c.ID,
			"name":      c.Name,
			"rarity":    c.Rarity.String(),
			"attribute": c.Attribute,
			"thumbnail": c.ThumbnailURL(),
			"image":     c.FullImageURL(),
		}
	}
	out, err := structpb.NewStruct(map[string]any{
		"box":    string(req.Box),
		"count":  len(cards),
		"unique": len(card.Unique(cards)),
		"cards":  list,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func drawRequest(in *structpb.Struct) (gacha.DrawRequest, error) {
	fields := in.GetFields()
	req := gacha.DrawRequest{Box: gacha.BoxHonour, Count: 1}
	if b := fields["box"].GetStringValue(); b != "" {
		req.Box = gacha.Box(strings.ToLower(b))
	}
	if v, ok := fields["count"]; ok {
		n := v.GetNumberValue()
		if n != math.Trunc(n) || n < 1 || n > maxCount {
			return req, fmt.Errorf("count must be an integer between 1 and %d", maxCount)
		}
		req.Count = int(n)
	}
	req.GuaranteedRare = fields["guaranteed"].GetBoolValue()

	f := card.Filter{}
	for name, v := range fields["filter"].GetStructValue().GetFields() {
		d, err := card.ParseDimension(name)
		if err != nil {
			return req, err
		}
		for _, item := range v.GetListValue().GetValues() {
			f.Add(d, item.GetStringValue())
		}
		if s := v.GetStringValue(); s != "" {
			f.Add(d, strings.Split(s, ",")...)
		}
	}
	req.Filter = f
	return req, nil
}

func (s *Server) toStatus(err error) error {
	switch {
	case errors.Is(err, errs.ErrPoolExhausted):
		return status.Error(codes.NotFound, "no matching cards")
	case errors.Is(err, gacha.ErrUnknownBox):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, gacha.ErrInvalidCount), errors.Is(err, gacha.ErrInvalidTable), errors.Is(err, rates.ErrInvalidConfig):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrTransport):
		s.logger.Error("upstream failure", "error", err)
		return status.Error(codes.Unavailable, "upstream failure")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error("internal error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

// Package grpcapi implements the calculator's gRPC service. Requests and
// responses are google.protobuf.Struct messages, so no generated code is
// needed on either side.
package grpcapi

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/string-calculator/pkg/expr"
	"github.com/lemonberrylabs/string-calculator/pkg/types"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "calculator.v1.Calculator"

const (
	evaluateMethod = "/" + ServiceName + "/Evaluate"
	validateMethod = "/" + ServiceName + "/Validate"
)

// CalculatorServer is the server API for the Calculator service.
type CalculatorServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "Validate", Handler: validateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "calculator/v1/calculator.proto",
}

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: evaluateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func validateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: validateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).Validate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server implements the Calculator gRPC service.
type Server struct {
	maxLength int
	grpc      *grpc.Server
}

// New creates a new gRPC server. maxLength caps accepted expression length.
func New(maxLength int, opts ...grpc.ServerOption) *Server {
	srv := &Server{maxLength: maxLength}

	gs := grpc.NewServer(opts...)
	gs.RegisterService(&serviceDesc, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves gRPC requests on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// Stop stops the gRPC server immediately.
func (s *Server) Stop() {
	s.grpc.Stop()
}

// Evaluate evaluates req.expression and returns {result, display}. Domain
// failures map to codes.InvalidArgument.
func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := s.expression(req)
	if err != nil {
		return nil, err
	}

	v, err := expr.Evaluate(input)
	if err != nil {
		return nil, calcStatus(err)
	}

	// result carries the raw double, Infinity and NaN included; display is
	// what a caller should show.
	return structpb.NewStruct(map[string]interface{}{
		"result":  v.Float64(),
		"display": v.String(),
	})
}

// Validate reports the balance and lexical checks for req.expression along
// with the first failure reason, if any.
func (s *Server) Validate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := s.expression(req)
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{
		"balanced":       expr.IsBalanced(input),
		"lexicallyValid": expr.IsLexicallyValid(input),
		"valid":          true,
	}
	if err := expr.Check(input); err != nil {
		out["valid"] = false
		if ce := types.AsCalcError(err); ce != nil {
			out["reason"] = ce.Reason()
			out["message"] = ce.Message
			out["userMessage"] = ce.UserMessage()
		}
	}
	return structpb.NewStruct(out)
}

func (s *Server) expression(req *structpb.Struct) (string, error) {
	field, ok := req.GetFields()["expression"]
	if !ok {
		return "", status.Error(codes.InvalidArgument, "expression is required")
	}
	sv, ok := field.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Error(codes.InvalidArgument, "expression must be a string")
	}
	if s.maxLength > 0 && len(sv.StringValue) > s.maxLength {
		return "", status.Errorf(codes.InvalidArgument, "expression exceeds maximum length of %d characters", s.maxLength)
	}
	return sv.StringValue, nil
}

func calcStatus(err error) error {
	ce := types.AsCalcError(err)
	if ce == nil {
		return status.Error(codes.Internal, err.Error())
	}
	return status.Errorf(codes.InvalidArgument, "%s: %s", ce.Reason(), ce.Message)
}

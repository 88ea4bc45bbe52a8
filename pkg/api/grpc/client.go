package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Validation is the decoded response of the Validate RPC.
type Validation struct {
	Balanced       bool
	LexicallyValid bool
	Valid          bool
	Reason         string
	Message        string
	UserMessage    string
}

// Client is a thin typed wrapper over a connection to the Calculator service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a Calculator server without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Evaluate returns the numeric result and its display string.
func (c *Client) Evaluate(ctx context.Context, expression string) (float64, string, error) {
	out, err := c.call(ctx, evaluateMethod, expression)
	if err != nil {
		return 0, "", err
	}
	fields := out.GetFields()
	return fields["result"].GetNumberValue(), fields["display"].GetStringValue(), nil
}

// Validate runs the server-side checks on expression.
func (c *Client) Validate(ctx context.Context, expression string) (*Validation, error) {
	out, err := c.call(ctx, validateMethod, expression)
	if err != nil {
		return nil, err
	}
	f := out.GetFields()
	return &Validation{
		Balanced:       f["balanced"].GetBoolValue(),
		LexicallyValid: f["lexicallyValid"].GetBoolValue(),
		Valid:          f["valid"].GetBoolValue(),
		Reason:         f["reason"].GetStringValue(),
		Message:        f["message"].GetStringValue(),
		UserMessage:    f["userMessage"].GetStringValue(),
	}, nil
}

func (c *Client) call(ctx context.Context, method, expression string) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"expression": expression})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

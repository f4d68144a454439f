package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// ClientConfig describes how to reach a remote scheduling service.
type ClientConfig struct {
	Address string
	APIKey  string
	Extra   string
	TLS     bool
	Timeout time.Duration
}

// Client is a thin gRPC client for SchedulingService.
type Client struct {
	conn    *grpc.ClientConn
	cfg     ClientConfig
	headers metadata.MD
}

func Dial(cfg ClientConfig, opts ...grpc.DialOption) (*Client, error) {
	creds := insecure.NewCredentials()
	if cfg.TLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Address, err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	md := metadata.MD{}
	if cfg.APIKey != "" {
		md.Set(apiKeyHeaderDefault, cfg.APIKey)
		md.Set(apiExtraHeaderDefault, cfg.Extra)
	}
	return &Client{conn: conn, cfg: cfg, headers: md}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) CheckAppointment(ctx context.Context, workerID, serviceID int64, scheduledFor string) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{
		"worker_id":     workerID,
		"service_id":    serviceID,
		"scheduled_for": scheduledFor,
	})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, checkAppointmentMethod, req)
}

func (c *Client) CheckLocation(ctx context.Context, locationID int64, day, start, end string) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{
		"location_id": locationID,
		"day_of_week": day,
		"start":       start,
		"end":         end,
	})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, checkLocationMethod, req)
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	if len(c.headers) > 0 {
		ctx = metadata.NewOutgoingContext(ctx, c.headers)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

package countdown

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mcdev12/footy-auction/go/internal/auction"
	"github.com/mcdev12/footy-auction/go/internal/models"
)

const (
	// CountdownServiceName is the fully-qualified name of the countdown RPC service.
	CountdownServiceName = "auction.v1.CountdownService"
	// GetSnapshotProcedure is the full path of the GetSnapshot RPC.
	GetSnapshotProcedure = "/" + CountdownServiceName + "/GetSnapshot"
)

// NewRPCHandler builds the Connect handler for the countdown service and returns
// the path prefix to mount it on.
func NewRPCHandler(synchronizer *Synchronizer, opts ...connect.HandlerOption) (string, http.Handler) {
	getSnapshot := connect.NewUnaryHandler(
		GetSnapshotProcedure,
		func(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
			snap, err := synchronizer.Snapshot(ctx)
			if err != nil {
				if errors.Is(err, auction.ErrUnavailable) {
					return nil, connect.NewError(connect.CodeUnavailable, err)
				}
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			msg, err := SnapshotToStruct(snap)
			if err != nil {
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			res := connect.NewResponse(msg)
			res.Header().Set("Cache-Control", "no-store")
			return res, nil
		},
		opts...,
	)

	mux := http.NewServeMux()
	mux.Handle(GetSnapshotProcedure, getSnapshot)
	return "/" + CountdownServiceName + "/", mux
}

// RPCClient fetches snapshots from a remote countdown service.
type RPCClient struct {
	getSnapshot *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewRPCClient creates a client for the countdown service at baseURL.
func NewRPCClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RPCClient {
	return &RPCClient{
		getSnapshot: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetSnapshotProcedure, opts...),
	}
}

// GetSnapshot calls the remote GetSnapshot procedure.
func (c *RPCClient) GetSnapshot(ctx context.Context) (models.Snapshot, error) {
	res, err := c.getSnapshot.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return models.Snapshot{}, err
	}
	return SnapshotFromStruct(res.Msg)
}

// SnapshotToStruct encodes a snapshot with the same field names as its JSON form.
func SnapshotToStruct(snap models.Snapshot) (*structpb.Struct, error) {
	fields := map[string]any{
		"server_time": snap.ServerTime.Format(time.RFC3339Nano),
		"deadline":    nil,
		"version":     snap.Version,
		"state":       string(snap.State),
		"label":       snap.Label,
	}
	if snap.Deadline != nil {
		fields["deadline"] = snap.Deadline.Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(fields)
}

// SnapshotFromStruct decodes a snapshot produced by SnapshotToStruct.
func SnapshotFromStruct(s *structpb.Struct) (models.Snapshot, error) {
	f := s.GetFields()

	serverTime, err := time.Parse(time.RFC3339Nano, f["server_time"].GetStringValue())
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("invalid server_time: %w", err)
	}

	snap := models.Snapshot{
		ServerTime: serverTime,
		Version:    int64(f["version"].GetNumberValue()),
		State:      models.AuctionState(f["state"].GetStringValue()),
		Label:      f["label"].GetStringValue(),
	}

	if v, ok := f["deadline"]; ok {
		if _, isNull := v.GetKind().(*structpb.Value_NullValue); !isNull {
			d, err := time.Parse(time.RFC3339Nano, v.GetStringValue())
			if err != nil {
				return models.Snapshot{}, fmt.Errorf("invalid deadline: %w", err)
			}
			snap.Deadline = &d
		}
	}
	return snap, nil
}

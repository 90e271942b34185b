// Package pb describes the dispenser.v1.Dispenser gRPC service. Messages are plain structs
// carried with a JSON codec instead of generated protobuf types.
package pb

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName                        = "dispenser.v1.Dispenser"
	Dispenser_Withdraw_FullMethodName  = "/" + ServiceName + "/Withdraw"
	Dispenser_Inventory_FullMethodName = "/" + ServiceName + "/Inventory"
)

type Note struct {
	Denomination int64 `json:"denomination"`
	Count        int64 `json:"count"`
}

type WithdrawRequest struct {
	RequestId string `json:"request_id,omitempty"`
	Amount    int64  `json:"amount"`
}

func (r *WithdrawRequest) GetRequestId() string {
	if r == nil {
		return ""
	}
	return r.RequestId
}

func (r *WithdrawRequest) GetAmount() int64 {
	if r == nil {
		return 0
	}
	return r.Amount
}

type WithdrawResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ErrorCode    string `json:"error_code,omitempty"`
	WithdrawalId string `json:"withdrawal_id,omitempty"`
	Notes        []Note `json:"notes,omitempty"`
}

type InventoryRequest struct{}

type InventoryResponse struct {
	Version int64  `json:"version"`
	Balance int64  `json:"balance"`
	Notes   []Note `json:"notes"`
}

// DispenserServer is the server API for the Dispenser service.
type DispenserServer interface {
	Withdraw(context.Context, *WithdrawRequest) (*WithdrawResponse, error)
	Inventory(context.Context, *InventoryRequest) (*InventoryResponse, error)
}

// UnimplementedDispenserServer can be embedded to get forward compatible implementations.
type UnimplementedDispenserServer struct{}

func (UnimplementedDispenserServer) Withdraw(context.Context, *WithdrawRequest) (*WithdrawResponse, error) {
	return nil, errUnimplemented("Withdraw")
}

func (UnimplementedDispenserServer) Inventory(context.Context, *InventoryRequest) (*InventoryResponse, error) {
	return nil, errUnimplemented("Inventory")
}

func RegisterDispenserServer(s grpc.ServiceRegistrar, srv DispenserServer) {
	s.RegisterService(&Dispenser_ServiceDesc, srv)
}

func _Dispenser_Withdraw_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(WithdrawRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispenserServer).Withdraw(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Dispenser_Withdraw_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispenserServer).Withdraw(ctx, req.(*WithdrawRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Dispenser_Inventory_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InventoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispenserServer).Inventory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Dispenser_Inventory_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispenserServer).Inventory(ctx, req.(*InventoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var Dispenser_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DispenserServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Withdraw", Handler: _Dispenser_Withdraw_Handler},
		{MethodName: "Inventory", Handler: _Dispenser_Inventory_Handler},
	},
	Streams: []grpc.StreamDesc{},
}

// DispenserClient is the client API for the Dispenser service.
type DispenserClient struct {
	cc grpc.ClientConnInterface
}

func NewDispenserClient(cc grpc.ClientConnInterface) *DispenserClient {
	return &DispenserClient{cc: cc}
}

func (c *DispenserClient) Withdraw(ctx context.Context, in *WithdrawRequest, opts ...grpc.CallOption) (*WithdrawResponse, error) {
	out := new(WithdrawResponse)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := c.cc.Invoke(ctx, Dispenser_Withdraw_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DispenserClient) Inventory(ctx context.Context, in *InventoryRequest, opts ...grpc.CallOption) (*InventoryResponse, error) {
	out := new(InventoryResponse)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := c.cc.Invoke(ctx, Dispenser_Inventory_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

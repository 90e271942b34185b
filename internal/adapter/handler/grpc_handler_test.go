package handler

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/cash-dispenser/internal/adapter/handler/pb"
)

func newGRPCClient(t *testing.T, h *GRPCHandler) *pb.DispenserClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterDispenserServer(srv, h)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return pb.NewDispenserClient(conn)
}

func TestGRPCWithdraw_Success(t *testing.T) {
	client := newGRPCClient(t, NewGRPCHandler(newService(t, 8, 3)))

	resp, err := client.Withdraw(context.Background(), &pb.WithdrawRequest{RequestId: "r-1", Amount: 150})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.WithdrawalId)
	assert.Equal(t, []pb.Note{{Denomination: 20, Count: 5}, {Denomination: 50, Count: 1}}, resp.Notes)
}

func TestGRPCWithdraw_BusinessFailures(t *testing.T) {
	client := newGRPCClient(t, NewGRPCHandler(newService(t, 8, 1)))

	resp, err := client.Withdraw(context.Background(), &pb.WithdrawRequest{Amount: 30})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "unsupported_amount", resp.ErrorCode)

	resp, err = client.Withdraw(context.Background(), &pb.WithdrawRequest{Amount: 300})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "insufficient_funds", resp.ErrorCode)

	resp, err = client.Withdraw(context.Background(), &pb.WithdrawRequest{Amount: -20})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid_amount", resp.ErrorCode)

	resp, err = client.Withdraw(context.Background(), &pb.WithdrawRequest{RequestId: "same", Amount: 20})
	require.NoError(t, err)
	require.True(t, resp.Success)

	resp, err = client.Withdraw(context.Background(), &pb.WithdrawRequest{RequestId: "same", Amount: 20})
	require.NoError(t, err)
	assert.Equal(t, "duplicate_request", resp.ErrorCode)
}

func TestGRPCInventory(t *testing.T) {
	client := newGRPCClient(t, NewGRPCHandler(newService(t, 10, 20)))

	resp, err := client.Inventory(context.Background(), &pb.InventoryRequest{})
	require.NoError(t, err)

	assert.Equal(t, int64(0), resp.Version)
	assert.Equal(t, int64(1200), resp.Balance)
	assert.Equal(t, []pb.Note{{Denomination: 20, Count: 10}, {Denomination: 50, Count: 20}}, resp.Notes)
}

func TestGRPCInventory_LargeCounts(t *testing.T) {
	const fifties = 3_000_000_000
	client := newGRPCClient(t, NewGRPCHandler(newService(t, 0, fifties)))

	resp, err := client.Inventory(context.Background(), &pb.InventoryRequest{})
	require.NoError(t, err)

	assert.Equal(t, []pb.Note{{Denomination: 20, Count: 0}, {Denomination: 50, Count: fifties}}, resp.Notes)
	assert.Equal(t, int64(50*fifties), resp.Balance)
}

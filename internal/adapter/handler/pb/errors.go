package pb

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func errUnimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

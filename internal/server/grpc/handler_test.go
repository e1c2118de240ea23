package grpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: username is required", common.ErrorValidation), codes.InvalidArgument},
		{common.ErrorAlreadyExists, codes.AlreadyExists},
		{common.ErrInvalidCredentials, codes.Unauthenticated},
		{common.ErrMissingToken, codes.Unauthenticated},
		{common.ErrInvalidToken, codes.PermissionDenied},
		{common.ErrRateLimited, codes.ResourceExhausted},
		{fmt.Errorf("%w: db", common.ErrorInternal), codes.Internal},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		st, ok := status.FromError(toStatus(tt.err))
		assert.True(t, ok)
		assert.Equal(t, tt.want, st.Code(), tt.err.Error())
		if tt.want == codes.Internal {
			assert.Equal(t, "internal error", st.Message())
		}
	}
}
